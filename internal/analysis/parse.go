package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator"
	"github.com/rs/zerolog"

	"stylebooth/internal/domain"
	"stylebooth/internal/domain/style"
)

type rawRecommendation struct {
	Hairstyle  string `json:"hairstyle"`
	BeardStyle string `json:"beardStyle"`
	Reason     string `json:"reason"`
}

type rawResult struct {
	FaceShape       string              `json:"faceShape" validate:"required"`
	Description     string              `json:"description"`
	Reasoning       string              `json:"reasoning"`
	Recommendations []rawRecommendation `json:"recommendations" validate:"required"`
}

// parseResult decodes and validates the model text. Recommendations naming a
// hairstyle or beard style outside the closed sets are dropped; everything
// else that is missing or mistyped fails the whole result.
func parseResult(raw string, v *validator.Validate, logger *zerolog.Logger) (*Result, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrAnalysisMalformed)
	}
	var decoded rawResult
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisMalformed, err)
	}
	if err := v.Struct(decoded); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: field %s failed %s", domain.ErrAnalysisMalformed, verrs[0].Field(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisMalformed, err)
	}

	out := &Result{
		FaceShape:       decoded.FaceShape,
		Description:     decoded.Description,
		Reasoning:       decoded.Reasoning,
		Recommendations: make([]Recommendation, 0, len(decoded.Recommendations)),
	}
	for i, rec := range decoded.Recommendations {
		h, herr := style.ParseHairstyle(rec.Hairstyle)
		b, berr := style.ParseBeardStyle(rec.BeardStyle)
		if herr != nil || berr != nil {
			logger.Warn().
				Int("index", i).
				Str("hairstyle", rec.Hairstyle).
				Str("beardStyle", rec.BeardStyle).
				Msg("analysis: dropping recommendation with unknown style")
			continue
		}
		out.Recommendations = append(out.Recommendations, Recommendation{
			Hairstyle:  h,
			BeardStyle: b,
			Reason:     rec.Reason,
		})
	}
	return out, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
