package rest

import "net/http"

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "Reconciliation is disabled")
		return
	}
	h.trigger.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
