package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/otp-file-gateway/internal/application/auth"
	"github.com/otp-file-gateway/internal/application/notification"
	"github.com/otp-file-gateway/internal/config"
	"github.com/otp-file-gateway/internal/infrastructure/awsconf"
	"github.com/otp-file-gateway/internal/infrastructure/cognito"
	"github.com/otp-file-gateway/internal/infrastructure/dynamo"
	mongoinfra "github.com/otp-file-gateway/internal/infrastructure/mongo"
	s3infra "github.com/otp-file-gateway/internal/infrastructure/s3"
	"github.com/otp-file-gateway/internal/infrastructure/smtp"
	transporthttp "github.com/otp-file-gateway/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading from environment")
	}
	if err := run(); err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx := context.Background()
	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		return err
	}
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)

	// Credential store.
	var credentials auth.CredentialStore
	switch cfg.AuthProvider {
	case config.AuthProviderCognito:
		credentials = cognito.NewStore(
			cognito.NewClient(awsCfg, cfg.AWSEndpointURL),
			cfg.CognitoUserPoolID, cfg.CognitoClientID, cfg.CognitoClientSecret,
		)
	default:
		dynamo.BootstrapUsers(ctx, dynamoClient, cfg.DynamoTables.Users)
		credentials = dynamo.NewCredentialStore(dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users))
	}

	// OTP and access token ledgers.
	var (
		otps   auth.OTPLedger
		tokens auth.TokenLedger
	)
	switch cfg.LedgerBackend {
	case config.LedgerBackendMongo:
		client, err := mongoinfra.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Warn("mongo disconnect", "err", err)
			}
		}()
		db := client.Database(cfg.MongoDatabase)
		mongoinfra.EnsureIndexes(ctx, db)
		otps = mongoinfra.NewOTPRepo(db.Collection(mongoinfra.OTPCollection))
		tokens = mongoinfra.NewTokenRepo(db.Collection(mongoinfra.TokenCollection))
	default:
		dynamo.BootstrapLedgers(ctx, dynamoClient, cfg.DynamoTables)
		otps = dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPVerifications)
		tokens = dynamo.NewTokenRepo(dynamoClient, cfg.DynamoTables.AccessTokens)
	}

	deps := &transporthttp.Deps{
		Credentials: credentials,
		OTPs:        otps,
		Tokens:      tokens,
		Notifier:    notification.NewSender(smtp.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)),
		Objects:     s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv,
			"auth_provider", cfg.AuthProvider, "ledger_backend", cfg.LedgerBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
