package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vttforge/areatrigger/internal/domain/area"
)

const sampleScenario = `
scene: scene-1
grid:
  cell_size: 100
  units_per_cell: 5
walls:
  - a: {x: 300, y: -500}
    b: {x: 300, y: 500}
tokens:
  - id: tok-1
    name: Hero
    position: {x: 50, y: 60}
    hp: 30
    abilities: {dex: 14}
areas:
  - id: area-1
    name: Wall of Fire
    kind: fixed
    origin: {x: 1000, y: 0}
    shape:
      - {x: -200, y: -200}
      - {x: 200, y: -200}
      - {x: 200, y: 200}
      - {x: -200, y: 200}
    duration_rounds: 3
    effect:
      enabled: true
      triggers: [enter, target_turn_end]
      damage_triggers: [enter]
      damage: {formula: "5d8", type: fire}
      save: {dc: 15, ability: dex, half_on_success: true}
      effects:
        - reference: burning
          chance: 50
          requirements: ["target.hp < target.max_hp"]
      macro: {item: item-7}
steps:
  - turn: {round: 1, turn: 0, order: [tok-1]}
  - move: {token: tok-1, to: {x: 900, y: 0}}
  - destroy: area-1
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadScenario(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	assert.Equal(t, "scene-1", scenario.Scene)
	assert.Equal(t, float64(100), scenario.GeometryGrid().CellSize)
	require.Len(t, scenario.GeometryWalls(), 1)

	require.Len(t, scenario.Tokens, 1)
	token := scenario.Tokens[0].Token("scene-1")
	assert.Equal(t, "actor-tok-1", token.ActorID)
	assert.Equal(t, float64(50), token.Position.X)
	actor := scenario.Tokens[0].Actor()
	assert.Equal(t, 30, actor.MaxHP)
	assert.Equal(t, 14, actor.Abilities["dex"])

	require.Len(t, scenario.Steps, 3)
	assert.NotNil(t, scenario.Steps[0].Turn)
	assert.NotNil(t, scenario.Steps[1].Move)
	assert.Equal(t, "area-1", scenario.Steps[2].Destroy)
}

func TestScenarioAreaConversion(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, sampleScenario))
	require.NoError(t, err)
	require.Len(t, scenario.Areas, 1)

	src, err := scenario.Areas[0].Source("scene-1")
	require.NoError(t, err)

	assert.Equal(t, area.KindFixed, src.Kind)
	require.NotNil(t, src.Shape)
	assert.Len(t, src.Shape.Points, 4)
	assert.Equal(t, 3, src.DurationRounds)

	cfg := src.Config
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.Triggers.OnEnter)
	assert.True(t, cfg.Triggers.OnTargetTurnEnd)
	assert.False(t, cfg.Triggers.OnLeave)

	// Damage override replaces the standard set for that category only
	require.NotNil(t, cfg.DamageTriggers)
	fire := cfg.Classify(area.TriggerTargetTurnEnd)
	assert.False(t, fire.Damage)
	assert.True(t, fire.Effects)

	assert.True(t, cfg.Save.Enabled)
	assert.Equal(t, 15, cfg.Save.DC)
	require.Len(t, cfg.Effects, 1)
	assert.Equal(t, 50, cfg.Effects[0].Chance)
	assert.True(t, cfg.Macro.Enabled)
	assert.Equal(t, "item-7", cfg.Macro.SourceItemID)
}

func TestLoadScenario_Invalid(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "scene: ''"))
	require.Error(t, err)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
