package area

import (
	"time"

	"github.com/vttforge/areatrigger/internal/geometry"
)

// Kind distinguishes the two area anchorings
type Kind string

const (
	// KindFixed is anchored to static world geometry
	KindFixed Kind = "fixed"
	// KindMobile is anchored to a bearer token and follows it
	KindMobile Kind = "mobile"
)

// Source is a configured region that can affect tokens. Both kinds share
// one configuration and one detection/resolution pipeline.
type Source struct {
	ID      string `json:"id"`
	SceneID string `json:"scene_id"`
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`

	// Fixed areas
	Shape  *geometry.Polygon `json:"shape,omitempty"`  // local coordinates
	Origin geometry.Point    `json:"origin,omitempty"` // world anchor for Shape

	// Mobile areas
	BearerID    string  `json:"bearer_id,omitempty"`
	Radius      float64 `json:"radius,omitempty"`       // game-distance units
	LightRadius float64 `json:"light_radius,omitempty"` // bearer light, for the illumination fallback

	Config EffectConfig `json:"config"`

	// ContainedTokens is the persisted set of token ids currently inside.
	// It survives reloads and drives leave cleanup even if the area is
	// later deleted.
	ContainedTokens []string `json:"contained_tokens"`

	// SourceStats is the bearer's stat snapshot captured at creation time.
	// DC formulas evaluate against this, never live stats, so a cast's
	// save DC stays stable for its duration.
	SourceStats map[string]int `json:"source_stats,omitempty"`

	CreatedRound   int       `json:"created_round"`
	DurationRounds int       `json:"duration_rounds"` // 0 means no round-based expiry
	CreatedAt      time.Time `json:"created_at"`
}

// ContainsToken reports whether id is in the persisted containment set
func (s *Source) ContainsToken(id string) bool {
	for _, t := range s.ContainedTokens {
		if t == id {
			return true
		}
	}
	return false
}

// AddToken adds id to the containment set, reporting whether it was absent
func (s *Source) AddToken(id string) bool {
	if s.ContainsToken(id) {
		return false
	}
	s.ContainedTokens = append(s.ContainedTokens, id)
	return true
}

// RemoveToken removes id from the containment set, reporting whether it was present
func (s *Source) RemoveToken(id string) bool {
	for i, t := range s.ContainedTokens {
		if t == id {
			s.ContainedTokens = append(s.ContainedTokens[:i], s.ContainedTokens[i+1:]...)
			return true
		}
	}
	return false
}

// ExpiredAt reports whether the area's round-based duration has run out
func (s *Source) ExpiredAt(round int) bool {
	if s.DurationRounds <= 0 {
		return false
	}
	return round >= s.CreatedRound+s.DurationRounds
}
