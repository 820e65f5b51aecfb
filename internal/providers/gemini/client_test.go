package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"stylebooth/internal/media"
)

type fakeModels struct {
	generateContent func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	generateImages  func(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return f.generateContent(ctx, model, contents, config)
}

func (f *fakeModels) GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	return f.generateImages(ctx, model, prompt, config)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func testImage(t *testing.T) *media.Image {
	t.Helper()
	img, err := media.New([]byte{1, 2, 3}, media.MIMEPNG)
	require.NoError(t, err)
	return img
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), Options{APIKey: "   "})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestDescribeSendsImageThenInstruction(t *testing.T) {
	var gotModel string
	var gotContents []*genai.Content
	c := newClient(&fakeModels{
		generateContent: func(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel, gotContents = model, contents
			assert.Nil(t, config)
			return textResponse("  A man in his 30s  "), nil
		},
	}, Options{})

	text, err := c.Describe(context.Background(), testImage(t), "describe it")
	require.NoError(t, err)
	assert.Equal(t, "A man in his 30s", text)
	assert.Equal(t, DefaultDescribeModel, gotModel)
	require.Len(t, gotContents, 1)
	parts := gotContents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, media.MIMEPNG, parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte{1, 2, 3}, parts[0].InlineData.Data)
	assert.Equal(t, "describe it", parts[1].Text)
}

func TestGenerateStructuredRequestsJSON(t *testing.T) {
	schema := &genai.Schema{Type: genai.TypeObject}
	c := newClient(&fakeModels{
		generateContent: func(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			assert.Equal(t, "custom-analysis", model)
			require.NotNil(t, config)
			assert.Equal(t, "application/json", config.ResponseMIMEType)
			assert.Same(t, schema, config.ResponseSchema)
			return textResponse(`{"faceShape":"Oval"}`), nil
		},
	}, Options{AnalysisModel: "custom-analysis"})

	raw, err := c.GenerateStructured(context.Background(), testImage(t), "analyze", schema)
	require.NoError(t, err)
	assert.Equal(t, `{"faceShape":"Oval"}`, raw)
}

func TestGenerateStructuredEmptyText(t *testing.T) {
	c := newClient(&fakeModels{
		generateContent: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		},
	}, Options{})
	_, err := c.GenerateStructured(context.Background(), testImage(t), "analyze", nil)
	require.ErrorIs(t, err, ErrEmptyText)
}

func TestSynthesizeRequestsOneSquareJPEG(t *testing.T) {
	c := newClient(&fakeModels{
		generateImages: func(_ context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
			assert.Equal(t, DefaultSynthesisModel, model)
			assert.Equal(t, "a prompt", prompt)
			assert.EqualValues(t, 1, config.NumberOfImages)
			assert.Equal(t, "1:1", config.AspectRatio)
			assert.Equal(t, "image/jpeg", config.OutputMIMEType)
			return &genai.GenerateImagesResponse{
				GeneratedImages: []*genai.GeneratedImage{{
					Image: &genai.Image{ImageBytes: []byte{0xff, 0xd8}},
				}},
			}, nil
		},
	}, Options{})

	img, err := c.Synthesize(context.Background(), "a prompt")
	require.NoError(t, err)
	assert.Equal(t, media.MIMEJPEG, img.MIMEType())
	assert.Equal(t, []byte{0xff, 0xd8}, img.Data())
}

func TestSynthesizeNoImages(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateImagesResponse
	}{
		{"nil response", nil},
		{"zero images", &genai.GenerateImagesResponse{}},
		{"filtered", &genai.GenerateImagesResponse{GeneratedImages: []*genai.GeneratedImage{{RAIFilteredReason: "blocked"}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newClient(&fakeModels{
				generateImages: func(context.Context, string, string, *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
					return tc.resp, nil
				},
			}, Options{})
			_, err := c.Synthesize(context.Background(), "p")
			require.ErrorIs(t, err, ErrNoImages)
		})
	}
}

func TestSynthesizeTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	c := newClient(&fakeModels{
		generateImages: func(context.Context, string, string, *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
			return nil, boom
		},
	}, Options{})
	_, err := c.Synthesize(context.Background(), "p")
	require.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrNoImages))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(genai.APIError{Code: 429}))
	assert.True(t, IsRateLimited(genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}))
	assert.False(t, IsRateLimited(genai.APIError{Code: 500}))
	assert.False(t, IsRateLimited(errors.New("x")))
}

func TestDescribeOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"A man with a square jaw"}]}}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Options{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	text, err := c.Describe(context.Background(), testImage(t), "describe")
	require.NoError(t, err)
	assert.Equal(t, "A man with a square jaw", text)
}
