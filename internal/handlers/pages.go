package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (h *Handler) HandleGetPage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page_number"])
	if err != nil {
		h.writeError(w, "Invalid page number.", http.StatusBadRequest)
		return
	}

	if v := r.URL.Query().Get("width"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, "Invalid preview width.", http.StatusBadRequest)
			return
		}
		data, err := h.documents.Preview(r.Context(), vars["pdf_id"], page, width)
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if _, err := w.Write(data); err != nil {
			h.writeError(w, "Unable to write preview", http.StatusInternalServerError)
		}
		return
	}

	path, err := h.documents.PagePath(r.Context(), vars["pdf_id"], page)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}
