package domain

import "errors"

var (
	ErrInputNotReady       = errors.New("input not ready")
	ErrDegradedStage       = errors.New("degraded stage")
	ErrFatalPipeline       = errors.New("pipeline failure")
	ErrAnalysisMalformed   = errors.New("malformed analysis response")
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	ErrCameraUnavailable   = errors.New("camera unavailable")
	ErrBusy                = errors.New("request already in flight")
	ErrUnknownPreset       = errors.New("unknown preset")
	ErrInvalidStyle        = errors.New("invalid style")
)
