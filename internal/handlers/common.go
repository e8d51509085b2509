package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lehigh-university-libraries/regionocr/internal/apperr"
	"github.com/lehigh-university-libraries/regionocr/internal/models"
)

// DocumentService is the document workflow the handlers drive.
type DocumentService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*models.Document, error)
	PagePath(ctx context.Context, id string, page int) (string, error)
	Preview(ctx context.Context, id string, page, width int) ([]byte, error)
	ExtractText(ctx context.Context, req models.OCRRequest) (string, error)
	Delete(ctx context.Context, id string) error
}

// PDFFetcher downloads a PDF given by URL.
type PDFFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

type Handler struct {
	documents      DocumentService
	fetcher        PDFFetcher
	maxUploadBytes int64
}

func New(documents DocumentService, fetcher PDFFetcher, maxUploadBytes int64) *Handler {
	return &Handler{
		documents:      documents,
		fetcher:        fetcher,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes registers every endpoint on a new router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/upload_pdf", h.HandleUpload).Methods(http.MethodPost)
	r.HandleFunc("/get_page/{pdf_id}/{page_number}", h.HandleGetPage).Methods(http.MethodGet)
	r.HandleFunc("/perform_ocr", h.HandlePerformOCR).Methods(http.MethodPost)
	r.HandleFunc("/documents/{pdf_id}", h.HandleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/ping", h.HandlePing).Methods(http.MethodPost)
	r.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return r
}

func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, "Pong!")
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeErrorBody(w, models.ErrorResponse{Detail: message}, code)
}

// writeAppError maps err to its HTTP status. Server-side failures are logged
// with their cause; client errors only at debug level.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "code", code, "err", err)
	} else {
		slog.Debug("Request rejected", "code", code, "err", err)
	}
	h.writeErrorBody(w, models.ErrorResponse{Detail: apperr.MessageOf(err), Code: string(code)}, status)
}

func (h *Handler) writeErrorBody(w http.ResponseWriter, body models.ErrorResponse, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Unable to encode error response", "err", err)
	}
}
