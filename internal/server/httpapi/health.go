package httpapi

import (
	"context"
	"net/http"
	"time"
)

const readyTimeout = 2 * time.Second

type checkResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]checkResult `json:"checks,omitempty"`
}

func (h *Handler) live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: time.Now().UTC().Format(time.RFC3339)})
}

// ready fails when the database is unreachable. Missing storage credentials
// only degrade readiness: metadata routes still work without them.
func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]checkResult{},
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	switch {
	case h.db == nil:
		resp.Checks["database"] = checkResult{Status: "fail", Message: "not initialised"}
	default:
		if err := h.db.PingContext(ctx); err != nil {
			resp.Checks["database"] = checkResult{Status: "fail", Message: err.Error()}
		} else {
			resp.Checks["database"] = checkResult{Status: "ok"}
		}
	}

	if h.storageOK {
		resp.Checks["storage"] = checkResult{Status: "ok"}
	} else {
		resp.Checks["storage"] = checkResult{Status: "degraded", Message: "storage credentials are not configured"}
	}

	status := http.StatusOK
	switch {
	case resp.Checks["database"].Status == "fail":
		resp.Status = "fail"
		status = http.StatusServiceUnavailable
	case !h.storageOK:
		resp.Status = "degraded"
	}
	writeJSON(w, status, resp)
}
