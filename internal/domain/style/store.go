package style

import (
	"fmt"
	"strings"
	"sync"

	"stylebooth/internal/domain"
	"stylebooth/internal/media"
)

// Store holds the single live Configuration of a session. All mutations
// replace the record under the lock so readers never see a half-applied
// change.
type Store struct {
	mu  sync.RWMutex
	cfg Configuration
}

func NewStore() *Store {
	return &Store{cfg: DefaultConfiguration()}
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace swaps the whole record.
func (s *Store) Replace(cfg Configuration) error {
	cfg = cfg.Normalize()
	if !cfg.Hairstyle.Valid() {
		return fmt.Errorf("%w: unknown hairstyle %q", domain.ErrInvalidStyle, cfg.Hairstyle)
	}
	if !cfg.BeardStyle.Valid() {
		return fmt.Errorf("%w: unknown beard style %q", domain.ErrInvalidStyle, cfg.BeardStyle)
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Update applies fn to a copy of the record and stores the result if it is
// still valid.
func (s *Store) Update(fn func(*Configuration)) (Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cfg
	fn(&next)
	next = next.Normalize()
	if !next.Hairstyle.Valid() || !next.BeardStyle.Valid() {
		return s.cfg, fmt.Errorf("%w: %q / %q", domain.ErrInvalidStyle, next.Hairstyle, next.BeardStyle)
	}
	s.cfg = next
	return next, nil
}

// ApplyPreset replaces the record with the named preset. No fields of the
// previous record survive.
func (s *Store) ApplyPreset(name string) (Configuration, error) {
	p, ok := FindPreset(name)
	if !ok {
		return s.Snapshot(), fmt.Errorf("%w: %q", domain.ErrUnknownPreset, name)
	}
	s.mu.Lock()
	s.cfg = p.Configuration
	s.mu.Unlock()
	return p.Configuration, nil
}

// ApplyRecommendation takes a recommended hairstyle and beard pair. When a
// preset has exactly that pair it wins wholesale; otherwise only the two enum
// fields are merged, the free text is rewritten to describe the pair, and the
// colour and reference image are cleared.
func (s *Store) ApplyRecommendation(h Hairstyle, b BeardStyle) (Configuration, error) {
	if !h.Valid() || !b.Valid() {
		return s.Snapshot(), fmt.Errorf("%w: %q / %q", domain.ErrInvalidStyle, h, b)
	}
	if p, ok := MatchPreset(h, b); ok {
		s.mu.Lock()
		s.cfg = p.Configuration
		s.mu.Unlock()
		return p.Configuration, nil
	}
	return s.Update(func(c *Configuration) {
		c.Hairstyle = h
		c.BeardStyle = b
		c.TextPrompt = RecommendationText(h, b)
		c.ColorPrompt = ""
		c.ReferenceImage = nil
	})
}

// RecommendationText is the free-text sentence written when a recommendation
// does not correspond to a preset. Labels are used as displayed.
func RecommendationText(h Hairstyle, b BeardStyle) string {
	beard := string(b)
	if b == BeardNone {
		beard = "clean shaven face"
	}
	return fmt.Sprintf("A %s hairstyle with a %s.", h, beard)
}

// AppendDictation adds a finalized dictation fragment to the free text,
// separated by a single space.
func (s *Store) AppendDictation(text string) Configuration {
	text = strings.TrimSpace(text)
	s.mu.Lock()
	defer s.mu.Unlock()
	if text == "" {
		return s.cfg
	}
	if s.cfg.TextPrompt == "" {
		s.cfg.TextPrompt = text
	} else {
		s.cfg.TextPrompt = s.cfg.TextPrompt + " " + text
	}
	return s.cfg
}

func (s *Store) SetReference(img *media.Image) Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ReferenceImage = img
	return s.cfg
}

func (s *Store) ClearReference() Configuration {
	return s.SetReference(nil)
}
