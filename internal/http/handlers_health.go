package httpx

import (
	"io"
	"net/http"
)

// Liveness only. Backend reachability is not probed here; a dashboard with a
// down backend still serves its login screen.
const healthBody = `{"status":"ok","service":"laf-dashboard"}`

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.WriteString(w, healthBody)
}
