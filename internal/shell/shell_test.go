package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"stylebooth/internal/analysis"
	"stylebooth/internal/capture"
	"stylebooth/internal/domain"
	"stylebooth/internal/domain/style"
	"stylebooth/internal/media"
	"stylebooth/internal/stylegen"
)

type fakeInput struct {
	img    *media.Image
	closed int
}

func (f *fakeInput) Capture() (*media.Image, error) {
	if f.img == nil {
		return nil, domain.ErrInputNotReady
	}
	return f.img, nil
}

func (f *fakeInput) Status() capture.Status {
	return capture.Status{Mode: capture.ModeUploaded, Ready: f.img != nil}
}

func (f *fakeInput) Close() error {
	f.closed++
	return nil
}

type fakeGenerator struct {
	calls  int
	gotCfg style.Configuration
	res    *stylegen.Result
	err    error
	block  chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, _ *media.Image, cfg style.Configuration) (*stylegen.Result, error) {
	f.calls++
	f.gotCfg = cfg
	if f.block != nil {
		<-f.block
	}
	return f.res, f.err
}

type fakeAnalyzer struct {
	calls int
	res   *analysis.Result
	err   error
}

func (f *fakeAnalyzer) Analyze(context.Context, *media.Image) (*analysis.Result, error) {
	f.calls++
	return f.res, f.err
}

func photo(t *testing.T) *media.Image {
	t.Helper()
	img, err := media.New([]byte{0xff, 0xd8, 0x01}, media.MIMEJPEG)
	if err != nil {
		t.Fatalf("media.New: %v", err)
	}
	return img
}

func newShell(t *testing.T, in *fakeInput, gen *fakeGenerator, an *fakeAnalyzer) *Shell {
	t.Helper()
	s, err := New(Options{
		Input:     in,
		Generator: gen,
		Analyzer:  an,
		Now:       func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestGenerateWithoutInput(t *testing.T) {
	gen := &fakeGenerator{}
	s := newShell(t, &fakeInput{}, gen, &fakeAnalyzer{})
	_, err := s.Generate(context.Background())
	if !errors.Is(err, domain.ErrInputNotReady) {
		t.Fatalf("err = %v, want ErrInputNotReady", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator called without input")
	}
	if v := s.Generation(); v.Error != NoImageMessage || v.Loading || v.Result != nil {
		t.Fatalf("Generation() = %+v", v)
	}
}

func TestGenerateSuccess(t *testing.T) {
	out := photo(t)
	gen := &fakeGenerator{res: &stylegen.Result{Image: out, Prompt: "p"}}
	s := newShell(t, &fakeInput{img: photo(t)}, gen, &fakeAnalyzer{})
	if _, err := s.Store().ApplyPreset("Platinum Buzz"); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}

	got, err := s.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Image != out || got.ID == "" {
		t.Fatalf("Generate() = %+v", got)
	}
	if gen.gotCfg.ColorPrompt != "platinum blonde" {
		t.Fatalf("generator got config %+v", gen.gotCfg)
	}
	v := s.Generation()
	if v.Loading || v.Error != "" || v.Result != got {
		t.Fatalf("Generation() = %+v", v)
	}
	if v.Result.FileName() != "stylebooth-"+got.ID+".jpg" {
		t.Fatalf("FileName() = %q", v.Result.FileName())
	}
}

func TestGenerateFailureKeepsNoResult(t *testing.T) {
	gen := &fakeGenerator{res: &stylegen.Result{Image: photo(t), Prompt: "p"}}
	s := newShell(t, &fakeInput{img: photo(t)}, gen, &fakeAnalyzer{})
	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("first Generate: %v", err)
	}

	gen.res, gen.err = nil, stylegen.ErrSynthesisFailed
	_, err := s.Generate(context.Background())
	if !errors.Is(err, domain.ErrFatalPipeline) {
		t.Fatalf("err = %v, want ErrFatalPipeline", err)
	}
	v := s.Generation()
	if v.Result != nil {
		t.Fatalf("failed generation left a result")
	}
	if v.Error != stylegen.FailureMessage || v.Loading {
		t.Fatalf("Generation() = %+v", v)
	}
	if !errors.Is(v.Kind, stylegen.ErrSynthesisFailed) {
		t.Fatalf("Kind = %v", v.Kind)
	}

	// retry works after a failure
	gen.res, gen.err = &stylegen.Result{Image: photo(t)}, nil
	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("retry Generate: %v", err)
	}
	if v := s.Generation(); v.Error != "" || v.Result == nil {
		t.Fatalf("Generation() after retry = %+v", v)
	}
}

func TestBusyGate(t *testing.T) {
	gen := &fakeGenerator{res: &stylegen.Result{Image: photo(t)}, block: make(chan struct{})}
	an := &fakeAnalyzer{}
	s := newShell(t, &fakeInput{img: photo(t)}, gen, an)

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background())
		done <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for !s.Busy() {
		if time.Now().After(deadline) {
			t.Fatalf("generation never started")
		}
		time.Sleep(time.Millisecond)
	}
	if v := s.Generation(); !v.Loading || v.Error != "" || v.Result != nil {
		t.Fatalf("Generation() while loading = %+v", v)
	}
	if _, err := s.Generate(context.Background()); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("second Generate err = %v, want ErrBusy", err)
	}
	if _, err := s.Analyze(context.Background()); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("Analyze err = %v, want ErrBusy", err)
	}
	close(gen.block)
	if err := <-done; err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if s.Busy() || an.calls != 0 {
		t.Fatalf("busy=%v analyzer calls=%d", s.Busy(), an.calls)
	}
}

func TestAnalyzeFlow(t *testing.T) {
	an := &fakeAnalyzer{res: &analysis.Result{
		FaceShape: "Oval",
		Recommendations: []analysis.Recommendation{
			{Hairstyle: style.HairstyleSlickBack, BeardStyle: style.BeardGoatee, Reason: "r"},
		},
	}}
	s := newShell(t, &fakeInput{img: photo(t)}, &fakeGenerator{}, an)

	res, err := s.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if v := s.Analysis(); v.Result != res || v.Error != "" {
		t.Fatalf("Analysis() = %+v", v)
	}

	rec := res.Recommendations[0]
	cfg, err := s.ApplyRecommendation(rec.Hairstyle, rec.BeardStyle)
	if err != nil {
		t.Fatalf("ApplyRecommendation: %v", err)
	}
	if cfg.TextPrompt != "A Slick Back hairstyle with a Goatee." {
		t.Fatalf("TextPrompt = %q", cfg.TextPrompt)
	}
	if s.Analysis().Result != nil {
		t.Fatalf("applying a recommendation should close the analysis")
	}
}

func TestAnalyzeFailureClearsPriorResult(t *testing.T) {
	an := &fakeAnalyzer{res: &analysis.Result{FaceShape: "Oval", Recommendations: []analysis.Recommendation{}}}
	s := newShell(t, &fakeInput{img: photo(t)}, &fakeGenerator{}, an)
	if _, err := s.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	an.res, an.err = nil, domain.ErrAnalysisMalformed
	if _, err := s.Analyze(context.Background()); !errors.Is(err, domain.ErrAnalysisMalformed) {
		t.Fatalf("err = %v", err)
	}
	v := s.Analysis()
	if v.Result != nil {
		t.Fatalf("prior analysis result survived a malformed response")
	}
	if v.Error != analysis.FailureMessage {
		t.Fatalf("Error = %q", v.Error)
	}

	s.DismissAnalysisError()
	if v := s.Analysis(); v.Error != "" || v.Kind != nil {
		t.Fatalf("Analysis() after dismiss = %+v", v)
	}
}

func TestAnalyzeWithoutInput(t *testing.T) {
	an := &fakeAnalyzer{}
	s := newShell(t, &fakeInput{}, &fakeGenerator{}, an)
	if _, err := s.Analyze(context.Background()); !errors.Is(err, domain.ErrInputNotReady) {
		t.Fatalf("err = %v", err)
	}
	if an.calls != 0 {
		t.Fatalf("analyzer called without input")
	}
	if v := s.Analysis(); v.Error != NoImageAnalysisMessage {
		t.Fatalf("Analysis() = %+v", v)
	}
}

func TestClearResultAndClose(t *testing.T) {
	in := &fakeInput{img: photo(t)}
	gen := &fakeGenerator{res: &stylegen.Result{Image: photo(t)}}
	s := newShell(t, in, gen, &fakeAnalyzer{})
	_, _ = s.Generate(context.Background())
	s.ClearResult()
	if v := s.Generation(); v.Result != nil || v.Error != "" {
		t.Fatalf("Generation() after clear = %+v", v)
	}
	_ = s.Close()
	_ = s.Close()
	if in.closed != 2 {
		t.Fatalf("Close forwarded %d times", in.closed)
	}
}
