package style

// Preset is a named configuration from the fixed catalog.
type Preset struct {
	Name          string        `json:"name"`
	Configuration Configuration `json:"options"`
}

// ResetPresetName is the catalog entry that restores the defaults.
const ResetPresetName = "Select a Preset..."

var catalog = []Preset{
	{
		Name:          ResetPresetName,
		Configuration: DefaultConfiguration(),
	},
	{
		Name: "The Classic Fade",
		Configuration: Configuration{
			Hairstyle:  HairstyleFade,
			BeardStyle: BeardCleanShaven,
			TextPrompt: "A sharp, classic fade haircut. Clean shaven look.",
		},
	},
	{
		Name: "Rugged Gentleman",
		Configuration: Configuration{
			Hairstyle:  HairstyleQuiff,
			BeardStyle: BeardFullBeard,
			TextPrompt: "A stylish quiff with a well-groomed full beard.",
		},
	},
	{
		Name: "Platinum Buzz",
		Configuration: Configuration{
			Hairstyle:   HairstyleBuzzCut,
			BeardStyle:  BeardStubble,
			ColorPrompt: "platinum blonde",
			TextPrompt:  "A bold platinum blonde buzz cut with light stubble.",
		},
	},
	{
		Name: "Modern Pompadour",
		Configuration: Configuration{
			Hairstyle:   HairstylePompadour,
			BeardStyle:  BeardStubble,
			ColorPrompt: "dark brown",
			TextPrompt:  "A modern pompadour with a tight fade on the sides and designer stubble.",
		},
	},
}

// Presets returns the catalog in display order.
func Presets() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

// FindPreset looks a preset up by its exact name.
func FindPreset(name string) (Preset, bool) {
	for _, p := range catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// MatchPreset returns the first catalog entry whose hairstyle and beard style
// both equal the given pair.
func MatchPreset(h Hairstyle, b BeardStyle) (Preset, bool) {
	for _, p := range catalog {
		if p.Configuration.Hairstyle == h && p.Configuration.BeardStyle == b {
			return p, true
		}
	}
	return Preset{}, false
}
