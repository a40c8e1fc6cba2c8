package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/otp-file-gateway/internal/application/auth"
	fileapp "github.com/otp-file-gateway/internal/application/file"
	"github.com/otp-file-gateway/internal/config"
	"github.com/otp-file-gateway/internal/transport/http/handler"
	appmiddleware "github.com/otp-file-gateway/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authSvc := auth.NewService(auth.ServiceDeps{
		Credentials: deps.Credentials,
		OTPs:        deps.OTPs,
		Tokens:      deps.Tokens,
		Notifier:    deps.Notifier,
		OTPTTL:      cfg.OTPTTL,
		TokenTTL:    cfg.AccessTokenTTL,
		Now:         deps.Now,
	})
	fileSvc := fileapp.NewService(fileapp.ServiceDeps{
		Users:   deps.Credentials,
		Objects: deps.Objects,
		Now:     deps.Now,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	fileH := handler.NewFileHandler(fileSvc, cfg.UploadMaxBytes)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
		r.Post("/otp_verification", authH.VerifyOTP)

		// ── Bearer token routes ──────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(authSvc))

			r.Post("/upload", fileH.Upload)
			r.Get("/files", fileH.List)
			r.Get("/download", fileH.Download)
		})
	})

	return r
}
