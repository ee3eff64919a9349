package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"catalog-summary/internal/domain"
)

// StreamTableSummary handles GET /v1/summaries/tables/{fqn}/stream. Each
// controller change is written as a "summary" server-sent event; the stream
// ends after the complete view.
func (h *APIHandler) StreamTableSummary(w http.ResponseWriter, r *http.Request) {
	fqn, dctx, err := summaryParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming unsupported by response writer"))
		return
	}

	started := false
	send := func(vm domain.ViewModel) error {
		data, err := json.Marshal(vm)
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := fmt.Fprintf(w, "event: summary\ndata: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	err = h.summaries.StreamTable(r.Context(), fqn, dctx, send)
	if err == nil {
		return
	}
	h.logFailure(r, "stream table summary", fqn, err)
	if !started {
		writeError(w, err)
		return
	}
	if r.Context().Err() != nil {
		return
	}
	body, _ := json.Marshal(errorBody{Code: httpStatusFromDomainError(err), Message: err.Error()})
	_, _ = fmt.Fprintf(w, "event: error\ndata: %s\n\n", body)
	flusher.Flush()
}
