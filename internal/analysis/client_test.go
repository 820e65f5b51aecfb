package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"stylebooth/internal/domain"
	"stylebooth/internal/domain/style"
	"stylebooth/internal/media"
	"stylebooth/internal/providers/gemini"
)

type fakeGenerator struct {
	text   string
	err    error
	schema *genai.Schema
	instr  string
}

func (f *fakeGenerator) GenerateStructured(_ context.Context, _ *media.Image, instruction string, schema *genai.Schema) (string, error) {
	f.instr, f.schema = instruction, schema
	return f.text, f.err
}

func analyze(t *testing.T, gen *fakeGenerator) (*Result, error) {
	t.Helper()
	c, err := NewClient(Options{Generator: gen})
	require.NoError(t, err)
	img, err := media.New([]byte{1}, media.MIMEJPEG)
	require.NoError(t, err)
	return c.Analyze(context.Background(), img)
}

const validJSON = `{
  "faceShape": "Square",
  "description": "A man in his 20s with a defined jawline.",
  "reasoning": "Jaw and forehead are similar widths.",
  "recommendations": [
    {"hairstyle": "Quiff", "beardStyle": "Full Beard", "reason": "Adds height."},
    {"hairstyle": "Crew Cut", "beardStyle": "None", "reason": "Keeps it clean."}
  ]
}`

func TestAnalyzeValid(t *testing.T) {
	gen := &fakeGenerator{text: validJSON}
	res, err := analyze(t, gen)
	require.NoError(t, err)

	assert.Equal(t, Instruction, gen.instr)
	require.NotNil(t, gen.schema)
	assert.Equal(t, []string{"faceShape", "description", "reasoning", "recommendations"}, gen.schema.Required)

	assert.Equal(t, "Square", res.FaceShape)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, Recommendation{Hairstyle: style.HairstyleQuiff, BeardStyle: style.BeardFullBeard, Reason: "Adds height."}, res.Recommendations[0])
	assert.Equal(t, style.BeardNone, res.Recommendations[1].BeardStyle)
}

func TestAnalyzeToleratesCodeFence(t *testing.T) {
	res, err := analyze(t, &fakeGenerator{text: "```json\n" + validJSON + "\n```"})
	require.NoError(t, err)
	assert.Equal(t, "Square", res.FaceShape)
}

func TestAnalyzeDropsUnknownStyles(t *testing.T) {
	res, err := analyze(t, &fakeGenerator{text: `{"faceShape":"Oval","recommendations":[
		{"hairstyle":"Mohawk","beardStyle":"None","reason":"x"},
		{"hairstyle":"Fade","beardStyle":"Chinstrap","reason":"y"},
		{"hairstyle":"Fade","beardStyle":"Goatee","reason":"z"}
	]}`})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, style.BeardGoatee, res.Recommendations[0].BeardStyle)
}

func TestAnalyzeEmptyRecommendationsIsValid(t *testing.T) {
	res, err := analyze(t, &fakeGenerator{text: `{"faceShape":"Round","recommendations":[]}`})
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
}

func TestAnalyzeMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing recommendations", `{"faceShape":"Oval","description":"d","reasoning":"r"}`},
		{"null recommendations", `{"faceShape":"Oval","recommendations":null}`},
		{"missing face shape", `{"recommendations":[]}`},
		{"empty face shape", `{"faceShape":"","recommendations":[]}`},
		{"wrong type", `{"faceShape":"Oval","recommendations":"Fade"}`},
		{"not json", `I cannot help with that.`},
		{"truncated", `{"faceShape":"Oval","recommendations":[`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := analyze(t, &fakeGenerator{text: tc.text})
			assert.Nil(t, res)
			require.ErrorIs(t, err, domain.ErrAnalysisMalformed)
			assert.False(t, errors.Is(err, domain.ErrAnalysisUnavailable))
		})
	}
}

func TestAnalyzeEmptyTextIsMalformed(t *testing.T) {
	_, err := analyze(t, &fakeGenerator{err: gemini.ErrEmptyText})
	require.ErrorIs(t, err, domain.ErrAnalysisMalformed)
}

func TestAnalyzeUnavailable(t *testing.T) {
	res, err := analyze(t, &fakeGenerator{err: genai.APIError{Code: 503, Message: "overloaded"}})
	assert.Nil(t, res)
	require.ErrorIs(t, err, domain.ErrAnalysisUnavailable)
}

func TestResponseSchemaEnums(t *testing.T) {
	s := ResponseSchema()
	item := s.Properties["recommendations"].Items
	require.NotNil(t, item)
	assert.Len(t, item.Properties["hairstyle"].Enum, len(style.Hairstyles()))
	assert.Len(t, item.Properties["beardStyle"].Enum, len(style.BeardStyles()))
	assert.Contains(t, item.Properties["beardStyle"].Enum, "Clean Shaven")
}
