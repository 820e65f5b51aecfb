// Package gemini is the single remote model client used by the pipeline and
// the face analysis. It wraps google.golang.org/genai and exposes only the
// three calls the product needs: free-text description of an image,
// schema-constrained JSON about an image, and square image synthesis.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"stylebooth/internal/infra"
	"stylebooth/internal/media"
)

const (
	DefaultDescribeModel  = "gemini-2.5-flash"
	DefaultAnalysisModel  = "gemini-2.5-flash"
	DefaultSynthesisModel = "imagen-3.0-generate-002"

	SquareAspectRatio = "1:1"
)

var (
	ErrMissingAPIKey = errors.New("gemini: api key is required")
	ErrEmptyText     = errors.New("gemini: empty response text")

	// ErrNoImages means the synthesis call succeeded but produced nothing,
	// usually because the prompt was blocked.
	ErrNoImages = errors.New("gemini: no image was generated")
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey         string
	BaseURL        string
	DescribeModel  string
	AnalysisModel  string
	SynthesisModel string
	HTTPClient     *http.Client
	Logger         *infra.Logger
}

// modelsAPI is the subset of *genai.Models in use.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Client is constructed once per process and shared by reference.
type Client struct {
	models         modelsAPI
	describeModel  string
	analysisModel  string
	synthesisModel string
	logger         *infra.Logger
}

// NewClient validates the credential and builds the SDK client. Callers may
// provide a nil HTTP client; one with a generous timeout is created.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base + "/"}
	}
	sdk, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newClient(sdk.Models, opts), nil
}

func newClient(models modelsAPI, opts Options) *Client {
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		models:         models,
		describeModel:  firstNonEmpty(opts.DescribeModel, DefaultDescribeModel),
		analysisModel:  firstNonEmpty(opts.AnalysisModel, DefaultAnalysisModel),
		synthesisModel: firstNonEmpty(opts.SynthesisModel, DefaultSynthesisModel),
		logger:         logger,
	}
}

func (c *Client) DescribeModel() string  { return c.describeModel }
func (c *Client) AnalysisModel() string  { return c.analysisModel }
func (c *Client) SynthesisModel() string { return c.synthesisModel }

// Describe sends an image and an instruction and returns the model's text.
func (c *Client) Describe(ctx context.Context, img *media.Image, instruction string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.describeModel, imageContents(img, instruction), nil)
	if err != nil {
		c.logAPIError(err, c.describeModel, "describe")
		return "", fmt.Errorf("gemini: describe: %w", err)
	}
	return responseText(resp), nil
}

// GenerateStructured asks for JSON conforming to schema about img and returns
// the raw text. Conformance is not trusted; callers must validate.
func (c *Client) GenerateStructured(ctx context.Context, img *media.Image, instruction string, schema *genai.Schema) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	resp, err := c.models.GenerateContent(ctx, c.analysisModel, imageContents(img, instruction), cfg)
	if err != nil {
		c.logAPIError(err, c.analysisModel, "structured")
		return "", fmt.Errorf("gemini: structured generation: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

// Synthesize renders exactly one square JPEG for prompt.
func (c *Client) Synthesize(ctx context.Context, prompt string) (*media.Image, error) {
	cfg := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: media.MIMEJPEG,
		AspectRatio:    SquareAspectRatio,
	}
	resp, err := c.models.GenerateImages(ctx, c.synthesisModel, prompt, cfg)
	if err != nil {
		c.logAPIError(err, c.synthesisModel, "synthesize")
		return nil, fmt.Errorf("gemini: synthesize: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, ErrNoImages
	}
	first := resp.GeneratedImages[0]
	if first == nil || first.Image == nil || len(first.Image.ImageBytes) == 0 {
		reason := ""
		if first != nil {
			reason = first.RAIFilteredReason
		}
		c.logger.Warn().
			Str("model", c.synthesisModel).
			Str("reason", reason).
			Msg("gemini: synthesis returned an empty image")
		return nil, ErrNoImages
	}
	mimeType := firstNonEmpty(first.Image.MIMEType, media.MIMEJPEG)
	img, err := media.New(first.Image.ImageBytes, mimeType)
	if err != nil {
		return nil, fmt.Errorf("gemini: synthesized image: %w", err)
	}
	c.logger.Debug().
		Str("model", c.synthesisModel).
		Int("bytes", img.Len()).
		Msg("gemini: image synthesized")
	return img, nil
}

func (c *Client) logAPIError(err error, model, call string) {
	ev := c.logger.Warn().Err(err).Str("model", model).Str("call", call)
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		ev = ev.Int("code", apiErr.Code).Str("status", apiErr.Status)
	}
	ev.Msg("gemini: request failed")
}

// IsRateLimited reports whether err is a quota or rate limit rejection.
func IsRateLimited(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
}

func imageContents(img *media.Image, instruction string) []*genai.Content {
	parts := make([]*genai.Part, 0, 2)
	if img != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     img.Data(),
				MIMEType: img.MIMEType(),
			},
		})
	}
	parts = append(parts, &genai.Part{Text: instruction})
	return []*genai.Content{{Role: "user", Parts: parts}}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return strings.TrimSpace(resp.Text())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
