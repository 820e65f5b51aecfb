package style

import (
	"bytes"

	"stylebooth/internal/media"
)

// Configuration is the complete description of the look the user asked for.
// Every field has a defined default so a Configuration is never partially
// invalid.
type Configuration struct {
	Hairstyle      Hairstyle    `json:"hairstyle"`
	BeardStyle     BeardStyle   `json:"beardStyle"`
	ColorPrompt    string       `json:"colorPrompt"`
	TextPrompt     string       `json:"textPrompt"`
	ReferenceImage *media.Image `json:"-"`
}

// DefaultConfiguration returns the "nothing chosen" record.
func DefaultConfiguration() Configuration {
	return Configuration{
		Hairstyle:  HairstyleNone,
		BeardStyle: BeardNone,
	}
}

// Normalize fills empty enum fields with their None value.
func (c Configuration) Normalize() Configuration {
	if c.Hairstyle == "" {
		c.Hairstyle = HairstyleNone
	}
	if c.BeardStyle == "" {
		c.BeardStyle = BeardNone
	}
	return c
}

// HasReference reports whether a reference image is attached.
func (c Configuration) HasReference() bool {
	return c.ReferenceImage != nil && c.ReferenceImage.Len() > 0
}

// Equal compares two configurations field by field, reference images by
// content.
func (c Configuration) Equal(other Configuration) bool {
	a, b := c.Normalize(), other.Normalize()
	if a.Hairstyle != b.Hairstyle || a.BeardStyle != b.BeardStyle ||
		a.ColorPrompt != b.ColorPrompt || a.TextPrompt != b.TextPrompt {
		return false
	}
	if a.HasReference() != b.HasReference() {
		return false
	}
	if !a.HasReference() {
		return true
	}
	return a.ReferenceImage.MIMEType() == b.ReferenceImage.MIMEType() &&
		bytes.Equal(a.ReferenceImage.Data(), b.ReferenceImage.Data())
}
