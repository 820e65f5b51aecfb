package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"stylebooth/internal/domain/style"
	"stylebooth/internal/media"
)

type styleResponse struct {
	Hairstyle      style.Hairstyle  `json:"hairstyle"`
	BeardStyle     style.BeardStyle `json:"beardStyle"`
	ColorPrompt    string           `json:"colorPrompt"`
	TextPrompt     string           `json:"textPrompt"`
	ReferenceImage string           `json:"referenceImage,omitempty"`
	Preset         string           `json:"preset,omitempty"`
}

func toStyleResponse(cfg style.Configuration) styleResponse {
	out := styleResponse{
		Hairstyle:   cfg.Hairstyle,
		BeardStyle:  cfg.BeardStyle,
		ColorPrompt: cfg.ColorPrompt,
		TextPrompt:  cfg.TextPrompt,
	}
	if p, ok := style.MatchPreset(cfg.Hairstyle, cfg.BeardStyle); ok {
		out.Preset = p.Name
	}
	if cfg.ReferenceImage != nil {
		out.ReferenceImage = cfg.ReferenceImage.DataURI()
	}
	return out
}

// StyleOptions lists the selectable hairstyles and beard styles.
func (a *App) StyleOptions(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"hairstyles":  style.Hairstyles(),
		"beardStyles": style.BeardStyles(),
	})
}

func (a *App) Presets(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"presets": style.Presets()})
}

func (a *App) GetStyle(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, toStyleResponse(a.Shell.Store().Snapshot()))
}

type putStyleRequest struct {
	Hairstyle   *style.Hairstyle  `json:"hairstyle"`
	BeardStyle  *style.BeardStyle `json:"beardStyle"`
	ColorPrompt *string           `json:"colorPrompt"`
	TextPrompt  *string           `json:"textPrompt"`
}

// PutStyle applies a partial update. Fields left out of the payload keep
// their current value.
func (a *App) PutStyle(w http.ResponseWriter, r *http.Request) {
	var req putStyleRequest
	if !a.decode(w, r, &req) {
		return
	}
	cfg, err := a.Shell.Store().Update(func(c *style.Configuration) {
		if req.Hairstyle != nil {
			c.Hairstyle = *req.Hairstyle
		}
		if req.BeardStyle != nil {
			c.BeardStyle = *req.BeardStyle
		}
		if req.ColorPrompt != nil {
			c.ColorPrompt = *req.ColorPrompt
		}
		if req.TextPrompt != nil {
			c.TextPrompt = *req.TextPrompt
		}
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, toStyleResponse(cfg))
}

func (a *App) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	cfg, err := a.Shell.Store().ApplyPreset(req.Name)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, toStyleResponse(cfg))
}

// ApplyRecommendation copies an analysis recommendation into the style and
// closes the analysis result.
func (a *App) ApplyRecommendation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hairstyle  style.Hairstyle  `json:"hairstyle"`
		BeardStyle style.BeardStyle `json:"beardStyle"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	cfg, err := a.Shell.ApplyRecommendation(req.Hairstyle, req.BeardStyle)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, toStyleResponse(cfg))
}

func (a *App) AppendDictation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	a.json(w, http.StatusOK, toStyleResponse(a.Shell.Store().AppendDictation(req.Text)))
}

func (a *App) PutReference(w http.ResponseWriter, r *http.Request) {
	img, err := a.readImage(w, r)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, toStyleResponse(a.Shell.Store().SetReference(img)))
}

func (a *App) DeleteReference(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, toStyleResponse(a.Shell.Store().ClearReference()))
}

// readImage accepts a multipart "file" field, a JSON {"dataUri": ...} body,
// or the raw image bytes.
func (a *App) readImage(w http.ResponseWriter, r *http.Request) (*media.Image, error) {
	body := http.MaxBytesReader(w, r.Body, a.MaxUpload)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		r.Body = body
		file, _, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, err
			}
			return nil, media.ErrEmptyImage
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		return media.FromBytes(data)
	case mediaType == "application/json":
		var req struct {
			DataURI string `json:"dataUri"`
		}
		if err := jsonDecode(body, &req); err != nil {
			return nil, err
		}
		return media.ParseDataURI(req.DataURI)
	default:
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		return media.FromBytes(data)
	}
}
