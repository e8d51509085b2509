package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/regionocr/internal/models"
)

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	// Check if this is a JSON request with a PDF URL
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLUpload(w, r)
		return
	}

	// Handle file upload
	h.handleFileUpload(w, r)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		PDFURL string `json:"pdf_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.PDFURL == "" {
		h.writeError(w, "pdf_url is required", http.StatusBadRequest)
		return
	}

	data, filename, err := h.fetcher.Fetch(r.Context(), request.PDFURL)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	doc, err := h.documents.Upload(r.Context(), filename, bytes.NewReader(data))
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.writeJSON(w, models.PDFUploadResponse{PDFID: doc.ID, Pages: doc.Pages})
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "File too large.", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if mediaType != "application/pdf" {
		h.writeError(w, "Only PDF files are supported.", http.StatusBadRequest)
		return
	}

	doc, err := h.documents.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.writeJSON(w, models.PDFUploadResponse{PDFID: doc.ID, Pages: doc.Pages})
}
