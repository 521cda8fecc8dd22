package scene_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vttforge/areatrigger/internal/domain/scene"
)

func TestActor_AbilityModifier(t *testing.T) {
	actor := &scene.Actor{
		Abilities: map[string]int{"str": 16, "dex": 10, "con": 7, "wis": 9},
	}

	assert.Equal(t, 3, actor.AbilityModifier("str"))
	assert.Equal(t, 0, actor.AbilityModifier("dex"))
	assert.Equal(t, -2, actor.AbilityModifier("con"), "negative modifiers round down")
	assert.Equal(t, -1, actor.AbilityModifier("wis"))
	assert.Equal(t, 0, actor.AbilityModifier("cha"), "missing ability defaults to 0")
}

func TestActor_ApplyDamage(t *testing.T) {
	actor := &scene.Actor{CurrentHP: 10, MaxHP: 20}

	assert.Equal(t, 4, actor.ApplyDamage(4))
	assert.Equal(t, 6, actor.CurrentHP)

	// Clamp at zero
	assert.Equal(t, 6, actor.ApplyDamage(100))
	assert.Equal(t, 0, actor.CurrentHP)

	assert.Equal(t, 0, actor.ApplyDamage(-5), "negative damage is ignored")
}

func TestActor_Heal(t *testing.T) {
	actor := &scene.Actor{CurrentHP: 15, MaxHP: 20}

	assert.Equal(t, 5, actor.Heal(10), "healing never exceeds max")
	assert.Equal(t, 20, actor.CurrentHP)
}

func TestActor_Stats(t *testing.T) {
	actor := &scene.Actor{
		CurrentHP: 12,
		MaxHP:     20,
		Abilities: map[string]int{"dex": 14},
	}

	stats := actor.Stats()
	assert.Equal(t, 12, stats["hp"])
	assert.Equal(t, 20, stats["max_hp"])
	assert.Equal(t, 14, stats["dex"])
	assert.Equal(t, 2, stats["dex_mod"])
}
