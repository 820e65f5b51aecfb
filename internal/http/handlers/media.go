package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"stylebooth/internal/camera"
	"stylebooth/internal/capture"
	"stylebooth/internal/media"
)

type mediaResponse struct {
	capture.Status
	CameraActive bool `json:"cameraActive"`
}

func (a *App) mediaStatus() mediaResponse {
	out := mediaResponse{Status: a.Capture.Status()}
	if a.Feed != nil {
		out.CameraActive = a.Feed.Active()
	}
	return out
}

func (a *App) MediaStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.mediaStatus())
}

// StartCamera answers the permission prompt and opens the camera. Called
// again after a denial it retries.
func (a *App) StartCamera(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Granted *bool `json:"granted"`
	}{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if a.Feed != nil && req.Granted != nil {
		a.Feed.SetPermission(*req.Granted)
	}
	if err := a.Capture.StartCamera(r.Context()); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.mediaStatus())
}

// PushFrame hands a browser-captured frame to the live stream.
func (a *App) PushFrame(w http.ResponseWriter, r *http.Request) {
	if a.Feed == nil {
		a.error(w, http.StatusNotFound, "no_feed", "This server reads frames from a local camera.")
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.MaxUpload))
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.Feed.PushEncoded(data); err != nil {
		if errors.Is(err, camera.ErrNotStreaming) {
			a.fail(w, err)
			return
		}
		a.fail(w, media.ErrUnsupportedFormat)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload makes a photo the active input. It accepts a multipart "file" field,
// a JSON {"dataUri": ...} body, or the raw file bytes.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, a.MaxUpload)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var err error
	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		r.Body = body
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			var maxErr *http.MaxBytesError
			if errors.As(ferr, &maxErr) {
				a.fail(w, ferr)
				return
			}
			a.error(w, http.StatusBadRequest, "bad_request", "missing file field")
			return
		}
		defer file.Close()
		_, err = a.Capture.Upload(file)
	case mediaType == "application/json":
		var req struct {
			DataURI string `json:"dataUri"`
		}
		if err = jsonDecode(body, &req); err == nil {
			_, err = a.Capture.UploadDataURI(req.DataURI)
		}
	default:
		_, err = a.Capture.Upload(body)
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.mediaStatus())
}

// DismissCameraError hides the last camera failure message.
func (a *App) DismissCameraError(w http.ResponseWriter, r *http.Request) {
	a.Capture.ClearCameraError()
	a.json(w, http.StatusOK, a.mediaStatus())
}

// StopMedia releases the camera and drops any upload.
func (a *App) StopMedia(w http.ResponseWriter, r *http.Request) {
	_ = a.Capture.Close()
	a.json(w, http.StatusOK, a.mediaStatus())
}

// CapturePreview returns the exact image a generation would send.
func (a *App) CapturePreview(w http.ResponseWriter, r *http.Request) {
	img, err := a.Shell.Capture()
	if err != nil {
		a.fail(w, err)
		return
	}
	writeImage(w, img, "")
}

func writeImage(w http.ResponseWriter, img *media.Image, attachment string) {
	w.Header().Set("Content-Type", img.MIMEType())
	if attachment != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment}))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data())
}
