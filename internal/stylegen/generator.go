// Package stylegen turns a captured photo and a style configuration into one
// synthesized portrait. Identity and reference-style extraction degrade to
// fallbacks; only synthesis can fail a run.
package stylegen

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"stylebooth/internal/domain"
	"stylebooth/internal/domain/style"
	"stylebooth/internal/infra"
	"stylebooth/internal/media"
	"stylebooth/internal/providers/gemini"
)

const (
	StageIdentity  = "identity_extraction"
	StageReference = "reference_extraction"
	StageSynthesis = "synthesis"

	// FailureMessage is what the user sees for any fatal run.
	FailureMessage = "Failed to generate styled image."
)

var (
	ErrIdentityExtractionDegraded  = fmt.Errorf("identity extraction degraded: %w", domain.ErrDegradedStage)
	ErrReferenceExtractionDegraded = fmt.Errorf("reference extraction degraded: %w", domain.ErrDegradedStage)
	ErrSynthesisFailed             = fmt.Errorf("no image was generated, the response may have been blocked: %w", domain.ErrFatalPipeline)
	ErrSynthesisTransport          = fmt.Errorf("synthesis request failed: %w", domain.ErrFatalPipeline)

	errEmptyDescription = errors.New("empty description")
)

// Describer puts an image into words following instruction.
type Describer interface {
	Describe(ctx context.Context, img *media.Image, instruction string) (string, error)
}

// Synthesizer renders one square image from a prompt.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (*media.Image, error)
}

// Recorder counts stage outcomes.
type Recorder interface {
	Inc(ctx context.Context, name string, labels map[string]string, n int64)
}

// Options configures a Generator.
type Options struct {
	Describer   Describer
	Synthesizer Synthesizer
	Metrics     Recorder
	Logger      *infra.Logger
}

type Generator struct {
	describer   Describer
	synthesizer Synthesizer
	metrics     Recorder
	logger      *infra.Logger
}

// Result is one successful run.
type Result struct {
	Image  *media.Image
	Prompt string
}

func NewGenerator(opts Options) (*Generator, error) {
	if opts.Describer == nil {
		return nil, errors.New("stylegen: describer is required")
	}
	if opts.Synthesizer == nil {
		return nil, errors.New("stylegen: synthesizer is required")
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Generator{
		describer:   opts.Describer,
		synthesizer: opts.Synthesizer,
		metrics:     opts.Metrics,
		logger:      logger,
	}, nil
}

// Generate runs the pipeline. userImage must be non-nil; callers check input
// readiness before calling.
func (g *Generator) Generate(ctx context.Context, userImage *media.Image, cfg style.Configuration) (*Result, error) {
	if userImage == nil {
		return nil, domain.ErrInputNotReady
	}
	cfg = cfg.Normalize()

	identity, _ := RunStage(ctx, Stage[string]{
		Name:     StageIdentity,
		Policy:   PolicyAbsorb,
		Fallback: GenericIdentityClause,
		Kind:     ErrIdentityExtractionDegraded,
		Run: func(ctx context.Context) (string, error) {
			text, err := g.describer.Describe(ctx, userImage, IdentityInstruction)
			if err != nil {
				return "", err
			}
			if text == "" {
				return "", errEmptyDescription
			}
			return IdentityClause(text), nil
		},
	}, g)

	var styleClause string
	if cfg.HasReference() {
		styleClause, _ = RunStage(ctx, Stage[string]{
			Name:     StageReference,
			Policy:   PolicyAbsorb,
			Fallback: "",
			Kind:     ErrReferenceExtractionDegraded,
			Run: func(ctx context.Context) (string, error) {
				text, err := g.describer.Describe(ctx, cfg.ReferenceImage, ReferenceInstruction)
				if err != nil {
					return "", err
				}
				return StyleClause(text), nil
			},
		}, g)
	}

	prompt := BuildPrompt(identity, styleClause, cfg)
	g.logger.Debug().Str("prompt", prompt).Msg("stylegen: prompt assembled")

	img, err := RunStage(ctx, Stage[*media.Image]{
		Name:     StageSynthesis,
		Policy:   PolicyFatal,
		Classify: classifySynthesis,
		Run: func(ctx context.Context) (*media.Image, error) {
			img, err := g.synthesizer.Synthesize(ctx, prompt)
			if err != nil {
				return nil, err
			}
			if img == nil || img.Len() == 0 {
				return nil, gemini.ErrNoImages
			}
			return img, nil
		},
	}, g)
	if err != nil {
		return nil, err
	}
	return &Result{Image: img, Prompt: prompt}, nil
}

func classifySynthesis(err error) error {
	if errors.Is(err, gemini.ErrNoImages) {
		return ErrSynthesisFailed
	}
	return ErrSynthesisTransport
}

func (g *Generator) StageSucceeded(ctx context.Context, stage string) {
	g.count(ctx, stage, "ok")
}

func (g *Generator) StageDegraded(ctx context.Context, err *StageError) {
	g.logger.Warn().
		Err(err.Err).
		Str("stage", err.Stage).
		Msg("stylegen: stage degraded, continuing with fallback")
	g.count(ctx, err.Stage, "degraded")
}

func (g *Generator) StageFailed(ctx context.Context, err *StageError) {
	g.logger.Error().
		Err(err.Err).
		Str("stage", err.Stage).
		Str("kind", err.Kind.Error()).
		Msg("stylegen: stage failed")
	g.count(ctx, err.Stage, "failed")
}

func (g *Generator) count(ctx context.Context, stage, outcome string) {
	if g.metrics == nil {
		return
	}
	g.metrics.Inc(ctx, "stylegen_stage_total", map[string]string{"stage": stage, "outcome": outcome}, 1)
}

var _ Observer = (*Generator)(nil)
