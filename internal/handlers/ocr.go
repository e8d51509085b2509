package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lehigh-university-libraries/regionocr/internal/models"
	"github.com/lehigh-university-libraries/regionocr/internal/preprocess"
)

func (h *Handler) HandlePerformOCR(w http.ResponseWriter, r *http.Request) {
	// An omitted preprocess object means every stage is enabled.
	request := models.OCRRequest{Preprocess: preprocess.DefaultOptions()}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	text, err := h.documents.ExtractText(r.Context(), request)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.writeJSON(w, models.OCRResponse{Text: text})
}
