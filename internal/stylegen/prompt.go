package stylegen

import (
	"fmt"
	"strings"

	"stylebooth/internal/domain/style"
)

const (
	// IdentityInstruction asks the description model for the user's
	// identifying features.
	IdentityInstruction = "Analyze the person in this image. Describe their key facial features like face shape, skin tone, eye color, age range, and ethnicity. This description will be used to generate a new image of the same person. Be concise and descriptive. For example: 'A man in his late 20s with a square jaw, olive skin tone, and dark brown eyes'."

	// ReferenceInstruction asks the description model to put a reference
	// photo's look into words.
	ReferenceInstruction = "Describe the hairstyle and beard style in this image in a concise and detailed manner, suitable as a prompt for an image generation AI. For example: 'A man with a high fade pompadour and a short boxed beard'."

	// GenericIdentityClause opens the prompt when identity extraction fails.
	GenericIdentityClause = "A photorealistic, front-facing studio portrait of a man. "

	CleanShavenClause = "He is clean-shaven. "

	ClosingClause = "The lighting should be professional and even. The background must be a neutral gray. The final image should be hyper-realistic and high-resolution, ensuring the person's identity from the original photo is preserved."
)

// IdentityClause opens the prompt with the extracted description.
func IdentityClause(description string) string {
	return fmt.Sprintf("Create a photorealistic, front-facing studio portrait of a person who matches this description: \"%s\". ", description)
}

// StyleClause points the model at the reference photo's description. An
// empty description yields no clause.
func StyleClause(description string) string {
	if description == "" {
		return ""
	}
	return fmt.Sprintf("His style should be based on this description: \"%s\". ", description)
}

// BuildPrompt assembles the synthesis prompt. Order is fixed: identity,
// reference style, hairstyle, beard, colour, free text, closing. User and
// model text is inserted verbatim; only enum labels and the colour are
// lowercased.
func BuildPrompt(identityClause, styleClause string, cfg style.Configuration) string {
	cfg = cfg.Normalize()
	var sb strings.Builder
	sb.WriteString(identityClause)
	sb.WriteString(styleClause)

	if cfg.Hairstyle.IsSet() {
		fmt.Fprintf(&sb, "The hairstyle is specifically a %s. ", cfg.Hairstyle.Lower())
	}
	if cfg.BeardStyle.IsSet() {
		fmt.Fprintf(&sb, "The beard style is specifically a %s. ", cfg.BeardStyle.Lower())
	} else if cfg.Hairstyle.IsSet() {
		sb.WriteString(CleanShavenClause)
	}

	if cfg.ColorPrompt != "" {
		fmt.Fprintf(&sb, "The hair color must be %s. ", style.LowerText(cfg.ColorPrompt))
	}
	if cfg.TextPrompt != "" {
		fmt.Fprintf(&sb, "Follow these additional instructions: \"%s\". ", cfg.TextPrompt)
	}

	sb.WriteString(ClosingClause)
	return sb.String()
}
