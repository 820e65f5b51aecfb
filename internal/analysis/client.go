// Package analysis asks a vision model for the user's face shape and a few
// matching hairstyle and beard combinations.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"stylebooth/internal/domain"
	"stylebooth/internal/domain/style"
	"stylebooth/internal/infra"
	"stylebooth/internal/media"
	"stylebooth/internal/providers/gemini"
)

const (
	// FailureMessage is shown to the user for any failed analysis.
	FailureMessage = "Failed to analyze face shape. The AI model may be temporarily unavailable or the request was blocked."
	// MalformedMessage describes a response that could not be used.
	MalformedMessage = "AI response did not match the expected format."
)

// Recommendation is one suggested style pair.
type Recommendation struct {
	Hairstyle  style.Hairstyle  `json:"hairstyle"`
	BeardStyle style.BeardStyle `json:"beardStyle"`
	Reason     string           `json:"reason"`
}

// Result is a complete analysis. It is never partially populated.
type Result struct {
	FaceShape       string           `json:"faceShape"`
	Description     string           `json:"description"`
	Reasoning       string           `json:"reasoning"`
	Recommendations []Recommendation `json:"recommendations"`
}

// StructuredGenerator returns schema-constrained JSON text about an image.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, img *media.Image, instruction string, schema *genai.Schema) (string, error)
}

// Recorder counts outcomes.
type Recorder interface {
	Inc(ctx context.Context, name string, labels map[string]string, n int64)
}

type Options struct {
	Generator StructuredGenerator
	Metrics   Recorder
	Logger    *infra.Logger
}

type Client struct {
	gen      StructuredGenerator
	schema   *genai.Schema
	validate *validator.Validate
	metrics  Recorder
	logger   *infra.Logger
}

func NewClient(opts Options) (*Client, error) {
	if opts.Generator == nil {
		return nil, errors.New("analysis: generator is required")
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{
		gen:      opts.Generator,
		schema:   ResponseSchema(),
		validate: validator.New(),
		metrics:  opts.Metrics,
		logger:   logger,
	}, nil
}

// Analyze returns the analysis for img. Errors match
// domain.ErrAnalysisUnavailable for transport or model failures and
// domain.ErrAnalysisMalformed when the answer cannot be used.
func (c *Client) Analyze(ctx context.Context, img *media.Image) (*Result, error) {
	if img == nil {
		return nil, domain.ErrInputNotReady
	}
	raw, err := c.gen.GenerateStructured(ctx, img, Instruction, c.schema)
	if err != nil {
		if errors.Is(err, gemini.ErrEmptyText) {
			c.count(ctx, "malformed")
			return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisMalformed, err)
		}
		c.logger.Warn().Err(err).Msg("analysis: request failed")
		c.count(ctx, "unavailable")
		return nil, fmt.Errorf("%w: %w", domain.ErrAnalysisUnavailable, err)
	}
	res, err := parseResult(raw, c.validate, c.logger)
	if err != nil {
		c.logger.Warn().Err(err).Msg("analysis: " + MalformedMessage)
		c.count(ctx, "malformed")
		return nil, err
	}
	c.count(ctx, "ok")
	return res, nil
}

func (c *Client) count(ctx context.Context, outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.Inc(ctx, "analysis_total", map[string]string{"outcome": outcome}, 1)
}
