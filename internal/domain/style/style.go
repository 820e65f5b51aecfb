package style

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stylebooth/internal/domain"
)

// Hairstyle is one of the fixed hairstyle options offered to the user.
type Hairstyle string

const (
	HairstyleNone      Hairstyle = "None"
	HairstyleBuzzCut   Hairstyle = "Buzz Cut"
	HairstyleCrewCut   Hairstyle = "Crew Cut"
	HairstyleFade      Hairstyle = "Fade"
	HairstylePompadour Hairstyle = "Pompadour"
	HairstyleQuiff     Hairstyle = "Quiff"
	HairstyleSlickBack Hairstyle = "Slick Back"
	HairstyleManBun    Hairstyle = "Man Bun"
)

// BeardStyle is one of the fixed beard options offered to the user.
type BeardStyle string

const (
	BeardNone        BeardStyle = "None"
	BeardCleanShaven BeardStyle = "Clean Shaven"
	BeardGoatee      BeardStyle = "Goatee"
	BeardVanDyke     BeardStyle = "Van Dyke"
	BeardFullBeard   BeardStyle = "Full Beard"
	BeardStubble     BeardStyle = "Stubble"
	BeardMuttonChops BeardStyle = "Mutton Chops"
)

var lowerCaser = cases.Lower(language.English)

// Hairstyles lists every hairstyle in display order.
func Hairstyles() []Hairstyle {
	return []Hairstyle{
		HairstyleNone,
		HairstyleBuzzCut,
		HairstyleCrewCut,
		HairstyleFade,
		HairstylePompadour,
		HairstyleQuiff,
		HairstyleSlickBack,
		HairstyleManBun,
	}
}

// BeardStyles lists every beard style in display order.
func BeardStyles() []BeardStyle {
	return []BeardStyle{
		BeardNone,
		BeardCleanShaven,
		BeardGoatee,
		BeardVanDyke,
		BeardFullBeard,
		BeardStubble,
		BeardMuttonChops,
	}
}

// ParseHairstyle resolves a display label. Matching is exact after trimming.
func ParseHairstyle(label string) (Hairstyle, error) {
	h := Hairstyle(strings.TrimSpace(label))
	if !h.Valid() {
		return "", fmt.Errorf("%w: unknown hairstyle %q", domain.ErrInvalidStyle, label)
	}
	return h, nil
}

// ParseBeardStyle resolves a display label. Matching is exact after trimming.
func ParseBeardStyle(label string) (BeardStyle, error) {
	b := BeardStyle(strings.TrimSpace(label))
	if !b.Valid() {
		return "", fmt.Errorf("%w: unknown beard style %q", domain.ErrInvalidStyle, label)
	}
	return b, nil
}

func (h Hairstyle) Valid() bool {
	switch h {
	case HairstyleNone, HairstyleBuzzCut, HairstyleCrewCut, HairstyleFade,
		HairstylePompadour, HairstyleQuiff, HairstyleSlickBack, HairstyleManBun:
		return true
	}
	return false
}

// IsSet reports whether a concrete hairstyle was chosen.
func (h Hairstyle) IsSet() bool {
	return h != HairstyleNone && h != ""
}

// Lower returns the lowercase prompt wording of the hairstyle.
func (h Hairstyle) Lower() string {
	return lowerCaser.String(string(h))
}

func (h Hairstyle) String() string {
	return string(h)
}

func (h *Hairstyle) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = HairstyleNone
		return nil
	}
	parsed, err := ParseHairstyle(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (b BeardStyle) Valid() bool {
	switch b {
	case BeardNone, BeardCleanShaven, BeardGoatee, BeardVanDyke,
		BeardFullBeard, BeardStubble, BeardMuttonChops:
		return true
	}
	return false
}

// IsSet reports whether a concrete beard style was chosen.
func (b BeardStyle) IsSet() bool {
	return b != BeardNone && b != ""
}

// Lower returns the lowercase prompt wording of the beard style.
func (b BeardStyle) Lower() string {
	return lowerCaser.String(string(b))
}

func (b BeardStyle) String() string {
	return string(b)
}

func (b *BeardStyle) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*b = BeardNone
		return nil
	}
	parsed, err := ParseBeardStyle(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// LowerText lowercases free text the same way enum labels are lowercased.
func LowerText(s string) string {
	return lowerCaser.String(s)
}
