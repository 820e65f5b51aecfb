// Package shell holds one user session: the capture adapter, the style
// record, and the visible state of the generation and analysis flows.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stylebooth/internal/analysis"
	"stylebooth/internal/capture"
	"stylebooth/internal/domain"
	"stylebooth/internal/domain/style"
	"stylebooth/internal/infra"
	"stylebooth/internal/media"
	"stylebooth/internal/stylegen"
)

const (
	NoImageMessage         = "Could not get an image. Please use your webcam or upload a photo."
	NoImageAnalysisMessage = "Could not get an image to analyze."
)

// Generator produces a styled portrait.
type Generator interface {
	Generate(ctx context.Context, userImage *media.Image, cfg style.Configuration) (*stylegen.Result, error)
}

// Analyzer produces a face-shape analysis.
type Analyzer interface {
	Analyze(ctx context.Context, img *media.Image) (*analysis.Result, error)
}

// Input is the capture side the shell drives.
type Input interface {
	capture.Source
	Status() capture.Status
	Close() error
}

// GeneratedImage is the latest successful generation.
type GeneratedImage struct {
	ID        string
	Image     *media.Image
	Prompt    string
	CreatedAt time.Time
}

// FileName is the suggested name when the image is saved.
func (g *GeneratedImage) FileName() string {
	return "stylebooth-" + g.ID + g.Image.Extension()
}

// GenerationView is what the result area shows. At most one of Error and
// Result is set, and neither is set while Loading.
type GenerationView struct {
	Loading bool
	Error   string
	Kind    error
	Result  *GeneratedImage
}

// AnalysisView is what the analysis area shows.
type AnalysisView struct {
	Loading bool
	Error   string
	Kind    error
	Result  *analysis.Result
}

type Options struct {
	Input     Input
	Store     *style.Store
	Generator Generator
	Analyzer  Analyzer
	Logger    *infra.Logger
	Now       func() time.Time
}

type Shell struct {
	input    Input
	store    *style.Store
	gen      Generator
	analyzer Analyzer
	logger   *infra.Logger
	now      func() time.Time

	mu       sync.Mutex
	inFlight bool
	genView  GenerationView
	anView   AnalysisView
}

func New(opts Options) (*Shell, error) {
	if opts.Input == nil {
		return nil, errors.New("shell: input is required")
	}
	if opts.Generator == nil || opts.Analyzer == nil {
		return nil, errors.New("shell: generator and analyzer are required")
	}
	store := opts.Store
	if store == nil {
		store = style.NewStore()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Shell{
		input:    opts.Input,
		store:    store,
		gen:      opts.Generator,
		analyzer: opts.Analyzer,
		logger:   logger,
		now:      now,
	}, nil
}

func (s *Shell) Store() *style.Store { return s.store }

// InputStatus reports the capture mode and whether generation can start.
func (s *Shell) InputStatus() capture.Status { return s.input.Status() }

// Capture returns what would be sent to the models right now.
func (s *Shell) Capture() (*media.Image, error) { return s.input.Capture() }

// Generate captures a still and runs the generation pipeline. The previous
// result and error are cleared when the run starts; the outcome replaces
// them when it ends. The run is not tied to ctx cancellation.
func (s *Shell) Generate(ctx context.Context) (*GeneratedImage, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, domain.ErrBusy
	}
	img, err := s.input.Capture()
	if err != nil {
		s.genView = GenerationView{Error: NoImageMessage, Kind: domain.ErrInputNotReady}
		s.mu.Unlock()
		return nil, fmt.Errorf("shell: generate: %w", domain.ErrInputNotReady)
	}
	cfg := s.store.Snapshot()
	s.inFlight = true
	s.genView = GenerationView{Loading: true}
	s.mu.Unlock()

	var out *GeneratedImage
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.inFlight = false
		s.genView.Loading = false
		if err != nil {
			s.genView.Error = stylegen.FailureMessage
			s.genView.Kind = err
			s.genView.Result = nil
			return
		}
		s.genView.Error = ""
		s.genView.Kind = nil
		s.genView.Result = out
	}()

	res, err := s.gen.Generate(context.WithoutCancel(ctx), img, cfg)
	if err != nil {
		ev := s.logger.Error().Err(err)
		if se, ok := stylegen.AsStageError(err); ok {
			ev = ev.Str("stage", se.Stage)
		}
		ev.Msg("shell: generation failed")
		return nil, err
	}
	out = &GeneratedImage{
		ID:        uuid.NewString(),
		Image:     res.Image,
		Prompt:    res.Prompt,
		CreatedAt: s.now(),
	}
	return out, nil
}

// Analyze captures a still and asks for a face-shape analysis.
func (s *Shell) Analyze(ctx context.Context) (*analysis.Result, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, domain.ErrBusy
	}
	img, err := s.input.Capture()
	if err != nil {
		s.anView = AnalysisView{Error: NoImageAnalysisMessage, Kind: domain.ErrInputNotReady}
		s.mu.Unlock()
		return nil, fmt.Errorf("shell: analyze: %w", domain.ErrInputNotReady)
	}
	s.inFlight = true
	s.anView = AnalysisView{Loading: true}
	s.mu.Unlock()

	var res *analysis.Result
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.inFlight = false
		s.anView.Loading = false
		if err != nil {
			s.anView.Error = analysis.FailureMessage
			s.anView.Kind = err
			s.anView.Result = nil
			return
		}
		s.anView.Error = ""
		s.anView.Kind = nil
		s.anView.Result = res
	}()

	res, err = s.analyzer.Analyze(context.WithoutCancel(ctx), img)
	if err != nil {
		s.logger.Error().Err(err).Msg("shell: analysis failed")
		return nil, err
	}
	return res, nil
}

func (s *Shell) Generation() GenerationView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genView
}

func (s *Shell) Analysis() AnalysisView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anView
}

// Busy reports whether a generation or analysis is in flight.
func (s *Shell) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// ClearResult drops the generated image and any generation error.
func (s *Shell) ClearResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genView.Result = nil
	s.genView.Error = ""
	s.genView.Kind = nil
}

// CloseAnalysis dismisses the analysis result and error.
func (s *Shell) CloseAnalysis() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anView.Result = nil
	s.anView.Error = ""
	s.anView.Kind = nil
}

// DismissAnalysisError clears only the analysis error.
func (s *Shell) DismissAnalysisError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anView.Error = ""
	s.anView.Kind = nil
}

// ApplyRecommendation rewrites the style record from a recommendation and
// closes the analysis result.
func (s *Shell) ApplyRecommendation(h style.Hairstyle, b style.BeardStyle) (style.Configuration, error) {
	cfg, err := s.store.ApplyRecommendation(h, b)
	if err != nil {
		return cfg, err
	}
	s.mu.Lock()
	s.anView.Result = nil
	s.mu.Unlock()
	return cfg, nil
}

// Close releases the capture input. Safe to call more than once.
func (s *Shell) Close() error {
	return s.input.Close()
}
