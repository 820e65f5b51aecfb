package analysis

import (
	"google.golang.org/genai"

	"stylebooth/internal/domain/style"
)

// Instruction is sent alongside the photo.
const Instruction = "Analyze the user's face in the provided image. Determine their face shape (e.g., Oval, Square, Round, Heart, Diamond). Provide a neutral, objective description of their key features. Then, recommend 3-4 hairstyle and beard combinations that would complement their face shape. For each recommendation, provide a brief reason. Return the entire analysis in a JSON object that conforms to the provided schema. Do not include any markdown or commentary outside of the JSON object."

// ResponseSchema is the structured output contract requested from the model.
func ResponseSchema() *genai.Schema {
	hairstyles := make([]string, 0, len(style.Hairstyles()))
	for _, h := range style.Hairstyles() {
		hairstyles = append(hairstyles, h.String())
	}
	beards := make([]string, 0, len(style.BeardStyles()))
	for _, b := range style.BeardStyles() {
		beards = append(beards, b.String())
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"faceShape": {
				Type:        genai.TypeString,
				Description: "The detected face shape (e.g., Oval, Square, Round).",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "A brief, neutral description of the person's key facial features (e.g., 'A man in his 20s with sharp cheekbones, a defined jawline, and light brown hair.').",
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "Brief reasoning for the face shape classification.",
			},
			"recommendations": {
				Type:        genai.TypeArray,
				Description: "A list of suitable style recommendations.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"hairstyle": {
							Type:        genai.TypeString,
							Enum:        hairstyles,
							Description: "The recommended hairstyle.",
						},
						"beardStyle": {
							Type:        genai.TypeString,
							Enum:        beards,
							Description: "The recommended beard style.",
						},
						"reason": {
							Type:        genai.TypeString,
							Description: "Why this style combination is recommended for the detected face shape.",
						},
					},
					Required:         []string{"hairstyle", "beardStyle", "reason"},
					PropertyOrdering: []string{"hairstyle", "beardStyle", "reason"},
				},
			},
		},
		Required:         []string{"faceShape", "description", "reasoning", "recommendations"},
		PropertyOrdering: []string{"faceShape", "description", "reasoning", "recommendations"},
	}
}
