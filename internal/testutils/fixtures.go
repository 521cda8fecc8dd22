package testutils

import (
	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/domain/scene"
	"github.com/vttforge/areatrigger/internal/geometry"
)

// CreateTestToken creates a token at the given position
func CreateTestToken(id, sceneID string, pos geometry.Point) *scene.Token {
	return &scene.Token{
		ID:       id,
		SceneID:  sceneID,
		ActorID:  "actor-" + id,
		Name:     id,
		Position: pos,
	}
}

// CreateTestActor creates an actor with full health and average abilities
func CreateTestActor(id string, hp int) *scene.Actor {
	return &scene.Actor{
		ID:        id,
		Name:      id,
		CurrentHP: hp,
		MaxHP:     hp,
		Abilities: map[string]int{
			"str": 10, "dex": 10, "con": 10,
			"int": 10, "wis": 10, "cha": 10,
		},
	}
}

// CreateTestFixedArea creates a fixed square area centered on origin. The
// half extent is in world units.
func CreateTestFixedArea(id, sceneID string, origin geometry.Point, half float64) *area.Source {
	return &area.Source{
		ID:      id,
		SceneID: sceneID,
		Name:    id,
		Kind:    area.KindFixed,
		Shape: &geometry.Polygon{Points: []geometry.Point{
			{X: -half, Y: -half}, {X: half, Y: -half},
			{X: half, Y: half}, {X: -half, Y: half},
		}},
		Origin: origin,
		Config: area.EffectConfig{
			Enabled:  true,
			Triggers: area.TriggerSet{OnEnter: true, OnLeave: true},
		},
	}
}

// CreateTestMobileArea creates a bearer-anchored area with the given radius
// in game-distance units
func CreateTestMobileArea(id, sceneID, bearerID string, radius float64) *area.Source {
	return &area.Source{
		ID:       id,
		SceneID:  sceneID,
		Name:     id,
		Kind:     area.KindMobile,
		BearerID: bearerID,
		Radius:   radius,
		Config: area.EffectConfig{
			Enabled:  true,
			Triggers: area.TriggerSet{OnEnter: true, OnLeave: true},
		},
	}
}
