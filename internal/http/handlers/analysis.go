package handlers

import (
	"net/http"

	"stylebooth/internal/analysis"
	"stylebooth/internal/shell"
)

type analysisResponse struct {
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
	Result  *analysis.Result `json:"result,omitempty"`
}

func toAnalysisResponse(v shell.AnalysisView) analysisResponse {
	return analysisResponse{Loading: v.Loading, Error: v.Error, Result: v.Result}
}

// Analyze runs face-shape analysis on the current input.
func (a *App) Analyze(w http.ResponseWriter, r *http.Request) {
	if _, err := a.Shell.Analyze(r.Context()); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, toAnalysisResponse(a.Shell.Analysis()))
}

func (a *App) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, toAnalysisResponse(a.Shell.Analysis()))
}

// CloseAnalysis dismisses both the analysis result and any error.
func (a *App) CloseAnalysis(w http.ResponseWriter, r *http.Request) {
	a.Shell.CloseAnalysis()
	a.json(w, http.StatusOK, toAnalysisResponse(a.Shell.Analysis()))
}

// DismissAnalysisError clears the analysis error and keeps any result.
func (a *App) DismissAnalysisError(w http.ResponseWriter, r *http.Request) {
	a.Shell.DismissAnalysisError()
	a.json(w, http.StatusOK, toAnalysisResponse(a.Shell.Analysis()))
}
