package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"

	"stylebooth/internal/shell"
	"stylebooth/pkg/zip"
)

type resultPayload struct {
	ID        string    `json:"id"`
	Image     string    `json:"image"`
	MIMEType  string    `json:"mimeType"`
	Prompt    string    `json:"prompt"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`
}

type generationResponse struct {
	Loading bool           `json:"loading"`
	Error   string         `json:"error,omitempty"`
	Result  *resultPayload `json:"result,omitempty"`
}

func toResultPayload(g *shell.GeneratedImage) *resultPayload {
	if g == nil {
		return nil
	}
	return &resultPayload{
		ID:        g.ID,
		Image:     g.Image.DataURI(),
		MIMEType:  g.Image.MIMEType(),
		Prompt:    g.Prompt,
		FileName:  g.FileName(),
		CreatedAt: g.CreatedAt,
	}
}

func toGenerationResponse(v shell.GenerationView) generationResponse {
	return generationResponse{Loading: v.Loading, Error: v.Error, Result: toResultPayload(v.Result)}
}

// Generate runs the styling pipeline on the current input and style.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	if _, err := a.Shell.Generate(r.Context()); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(a.Shell.Generation()))
}

func (a *App) GetResult(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, toGenerationResponse(a.Shell.Generation()))
}

func (a *App) DeleteResult(w http.ResponseWriter, r *http.Request) {
	a.Shell.ClearResult()
	a.json(w, http.StatusOK, toGenerationResponse(a.Shell.Generation()))
}

// DownloadResult serves the latest generated image as an attachment.
func (a *App) DownloadResult(w http.ResponseWriter, r *http.Request) {
	res := a.Shell.Generation().Result
	if res == nil {
		a.error(w, http.StatusNotFound, "no_result", "Nothing has been generated yet.")
		return
	}
	writeImage(w, res.Image, res.FileName())
}

// SaveResult writes the latest generated image into the download directory.
func (a *App) SaveResult(w http.ResponseWriter, r *http.Request) {
	res := a.Shell.Generation().Result
	if res == nil {
		a.error(w, http.StatusNotFound, "no_result", "Nothing has been generated yet.")
		return
	}
	if a.Files == nil {
		a.error(w, http.StatusNotImplemented, "no_storage", "Saving is not configured.")
		return
	}
	path, err := a.Files.SaveImage(r.Context(), res.FileName(), res.Image)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.Logger.Info().Str("path", path).Str("id", res.ID).Msg("result saved")
	a.json(w, http.StatusCreated, map[string]string{"path": path, "fileName": res.FileName()})
}

// DownloadBundle serves the latest result together with its prompt and the
// style that produced it.
func (a *App) DownloadBundle(w http.ResponseWriter, r *http.Request) {
	res := a.Shell.Generation().Result
	if res == nil {
		a.error(w, http.StatusNotFound, "no_result", "Nothing has been generated yet.")
		return
	}
	styleJSON, err := json.MarshalIndent(toStyleResponse(a.Shell.Store().Snapshot()), "", "  ")
	if err != nil {
		a.fail(w, err)
		return
	}
	data, err := zip.Archive([]zip.Entry{
		{Filename: res.FileName(), Data: res.Image.Data(), Modified: res.CreatedAt},
		{Filename: "prompt.txt", Data: []byte(res.Prompt + "\n"), Modified: res.CreatedAt},
		{Filename: "style.json", Data: styleJSON, Modified: res.CreatedAt},
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	name := strings.TrimSuffix(res.FileName(), res.Image.Extension()) + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
