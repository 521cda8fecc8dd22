package scene

import (
	"math"
	"time"

	"github.com/vttforge/areatrigger/internal/geometry"
)

// Token is a positioned representation of an actor within a scene
type Token struct {
	ID          string         `json:"id"`
	SceneID     string         `json:"scene_id"`
	ActorID     string         `json:"actor_id"`
	Name        string         `json:"name"`
	Position    geometry.Point `json:"position"`
	LightRadius float64        `json:"light_radius,omitempty"` // game-distance units
}

// Actor holds the mutable game state behind one or more tokens
type Actor struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CurrentHP int            `json:"current_hp"`
	MaxHP     int            `json:"max_hp"`
	Abilities map[string]int `json:"abilities,omitempty"` // raw scores keyed "str", "dex", ...
}

// AbilityModifier returns the modifier for an ability score, rounding down
// so a score of 7 yields -2.
func (a *Actor) AbilityModifier(ability string) int {
	score, ok := a.Abilities[ability]
	if !ok {
		return 0
	}
	return int(math.Floor(float64(score-10) / 2.0))
}

// ApplyDamage subtracts damage from current HP, floor-clamped at zero.
// Returns the amount actually applied.
func (a *Actor) ApplyDamage(amount int) int {
	if amount < 0 {
		amount = 0
	}
	if amount > a.CurrentHP {
		amount = a.CurrentHP
	}
	a.CurrentHP -= amount
	return amount
}

// Heal restores HP, never exceeding max. Returns the amount restored.
func (a *Actor) Heal(amount int) int {
	if amount < 0 {
		amount = 0
	}
	if a.CurrentHP+amount > a.MaxHP {
		amount = a.MaxHP - a.CurrentHP
	}
	a.CurrentHP += amount
	return amount
}

// Stats flattens the actor into variable bindings for formula and
// requirement evaluation: hp, max_hp, each ability score, and each
// ability's modifier as "<ability>_mod".
func (a *Actor) Stats() map[string]int {
	stats := map[string]int{
		"hp":     a.CurrentHP,
		"max_hp": a.MaxHP,
	}
	for ability, score := range a.Abilities {
		stats[ability] = score
		stats[ability+"_mod"] = a.AbilityModifier(ability)
	}
	return stats
}

// Grant is a condition instance applied to an actor, tagged with the area
// that created it so re-entry does not stack duplicates and revocation can
// find it later.
type Grant struct {
	ID           string    `json:"id"`
	ActorID      string    `json:"actor_id"`
	Reference    string    `json:"reference"`
	OriginAreaID string    `json:"origin_area_id"`
	GrantedAt    time.Time `json:"granted_at"`
}
