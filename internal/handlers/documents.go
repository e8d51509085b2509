package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.documents.Delete(r.Context(), mux.Vars(r)["pdf_id"]); err != nil {
		h.writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
