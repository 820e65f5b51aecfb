package handlers

import (
	"net/http"
)

// MetricsSnapshot returns the counter snapshot.
func (a *App) MetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	if a.Metrics == nil {
		a.json(w, http.StatusOK, map[string]int64{})
		return
	}
	a.json(w, http.StatusOK, a.Metrics.Snapshot())
}
