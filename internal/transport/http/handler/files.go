package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	fileapp "github.com/otp-file-gateway/internal/application/file"
	"github.com/otp-file-gateway/internal/transport/http/middleware"
)

const multipartMemory = 32 << 20

// FileHandler handles the per-user storage folder endpoints.
type FileHandler struct {
	svc      fileapp.Service
	maxBytes int64
}

func NewFileHandler(svc fileapp.Service, maxBytes int64) *FileHandler {
	return &FileHandler{svc: svc, maxBytes: maxBytes}
}

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	res, err := h.svc.Upload(r.Context(), owner.Email, fileapp.UploadInput{
		UserID:      r.FormValue("user_id"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      f,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UploadEnvelope{Message: "File uploaded successfully", Path: res.Path})
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	l, err := h.svc.List(r.Context(), owner.Email, r.URL.Query().Get("user_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FilesEnvelope{
		Message:   fmt.Sprintf("Found %d files", len(l.Files)),
		Files:     l.Files,
		UserEmail: l.UserEmail,
	})
}

func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	q := r.URL.Query()
	d, err := h.svc.Download(r.Context(), owner.Email, q.Get("user_id"), q.Get("filename"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer d.Body.Close()

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	if d.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(d.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, d.Body); err != nil {
		slog.Warn("download interrupted", "file", d.Filename, "err", err)
	}
}
