package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/domain/scene"
	"github.com/vttforge/areatrigger/internal/errors"
	"github.com/vttforge/areatrigger/internal/geometry"
)

// Scenario is a scripted table session for the simulator: a scene setup
// plus an ordered list of moves and turn advances.
type Scenario struct {
	Scene  string          `yaml:"scene"`
	Grid   ScenarioGrid    `yaml:"grid"`
	Walls  []ScenarioWall  `yaml:"walls"`
	Tokens []ScenarioToken `yaml:"tokens"`
	Areas  []ScenarioArea  `yaml:"areas"`
	Steps  []ScenarioStep  `yaml:"steps"`
}

// ScenarioGrid mirrors geometry.Grid
type ScenarioGrid struct {
	CellSize     float64 `yaml:"cell_size"`
	UnitsPerCell float64 `yaml:"units_per_cell"`
}

// ScenarioPoint is a world coordinate
type ScenarioPoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ScenarioWall is a blocking segment
type ScenarioWall struct {
	A ScenarioPoint `yaml:"a"`
	B ScenarioPoint `yaml:"b"`
}

// ScenarioToken is a token plus its actor sheet
type ScenarioToken struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Position  ScenarioPoint  `yaml:"position"`
	HP        int            `yaml:"hp"`
	Abilities map[string]int `yaml:"abilities"`
}

// ScenarioArea describes one area source
type ScenarioArea struct {
	ID             string          `yaml:"id"`
	Name           string          `yaml:"name"`
	Kind           string          `yaml:"kind"` // "fixed" or "mobile"
	Origin         ScenarioPoint   `yaml:"origin"`
	Shape          []ScenarioPoint `yaml:"shape"`
	Bearer         string          `yaml:"bearer"`
	Radius         float64         `yaml:"radius"`
	LightRadius    float64         `yaml:"light_radius"`
	CreatedRound   int             `yaml:"created_round"`
	DurationRounds int             `yaml:"duration_rounds"`
	SourceStats    map[string]int  `yaml:"source_stats"`
	Effect         ScenarioEffect  `yaml:"effect"`
}

// ScenarioEffect mirrors area.EffectConfig with trigger kinds as lists
type ScenarioEffect struct {
	Enabled            bool                `yaml:"enabled"`
	Triggers           []string            `yaml:"triggers"`
	DamageTriggers     []string            `yaml:"damage_triggers"`
	EffectsTriggers    []string            `yaml:"effects_triggers"`
	MacroTriggers      []string            `yaml:"macro_triggers"`
	Damage             ScenarioDamage      `yaml:"damage"`
	Save               ScenarioSave        `yaml:"save"`
	Effects            []ScenarioEffectRef `yaml:"effects"`
	Macro              ScenarioMacro       `yaml:"macro"`
	ExcludeSource      bool                `yaml:"exclude_source"`
	IncludeSelf        bool                `yaml:"include_self"`
	RequiresVisibility bool                `yaml:"requires_visibility"`
}

// ScenarioDamage mirrors area.DamageConfig
type ScenarioDamage struct {
	Formula string `yaml:"formula"`
	Type    string `yaml:"type"`
}

// ScenarioSave mirrors area.SaveConfig
type ScenarioSave struct {
	DC            int    `yaml:"dc"`
	DCFormula     string `yaml:"dc_formula"`
	Ability       string `yaml:"ability"`
	HalfOnSuccess bool   `yaml:"half_on_success"`
}

// ScenarioEffectRef mirrors area.EffectRef
type ScenarioEffectRef struct {
	Reference    string   `yaml:"reference"`
	Chance       int      `yaml:"chance"`
	Requirements []string `yaml:"requirements"`
}

// ScenarioMacro mirrors area.MacroConfig
type ScenarioMacro struct {
	Item string `yaml:"item"`
}

// ScenarioStep is one scripted action; exactly one field is set
type ScenarioStep struct {
	Move    *ScenarioMove `yaml:"move"`
	Turn    *ScenarioTurn `yaml:"turn"`
	Destroy string        `yaml:"destroy"`
}

// ScenarioMove relocates a token
type ScenarioMove struct {
	Token string        `yaml:"token"`
	To    ScenarioPoint `yaml:"to"`
}

// ScenarioTurn is an observed combat counter snapshot
type ScenarioTurn struct {
	Round int      `yaml:"round"`
	Turn  int      `yaml:"turn"`
	Order []string `yaml:"order"`
}

// LoadScenario reads and parses a scenario file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scenario %s", path)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, errors.Wrapf(err, "failed to parse scenario %s", path)
	}
	if scenario.Scene == "" {
		return nil, errors.InvalidArgument("scenario needs a scene id")
	}
	return &scenario, nil
}

// GeometryGrid converts the grid section
func (s *Scenario) GeometryGrid() geometry.Grid {
	return geometry.Grid{CellSize: s.Grid.CellSize, UnitsPerCell: s.Grid.UnitsPerCell}
}

// GeometryWalls converts the walls section
func (s *Scenario) GeometryWalls() geometry.Walls {
	walls := make(geometry.Walls, 0, len(s.Walls))
	for _, w := range s.Walls {
		walls = append(walls, geometry.Segment{A: w.A.Point(), B: w.B.Point()})
	}
	return walls
}

// Point converts to a geometry point
func (p ScenarioPoint) Point() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y}
}

// Token converts to a scene token
func (t ScenarioToken) Token(sceneID string) *scene.Token {
	return &scene.Token{
		ID:       t.ID,
		SceneID:  sceneID,
		ActorID:  "actor-" + t.ID,
		Name:     t.Name,
		Position: t.Position.Point(),
	}
}

// Actor converts to the token's actor sheet
func (t ScenarioToken) Actor() *scene.Actor {
	hp := t.HP
	if hp <= 0 {
		hp = 10
	}
	return &scene.Actor{
		ID:        "actor-" + t.ID,
		Name:      t.Name,
		CurrentHP: hp,
		MaxHP:     hp,
		Abilities: t.Abilities,
	}
}

// Source converts to an area source
func (a ScenarioArea) Source(sceneID string) (*area.Source, error) {
	src := &area.Source{
		ID:             a.ID,
		SceneID:        sceneID,
		Name:           a.Name,
		Origin:         a.Origin.Point(),
		BearerID:       a.Bearer,
		Radius:         a.Radius,
		LightRadius:    a.LightRadius,
		CreatedRound:   a.CreatedRound,
		DurationRounds: a.DurationRounds,
		SourceStats:    a.SourceStats,
		Config:         a.Effect.Config(),
	}

	switch a.Kind {
	case "fixed", "":
		src.Kind = area.KindFixed
		shape := &geometry.Polygon{}
		for _, p := range a.Shape {
			shape.Points = append(shape.Points, p.Point())
		}
		src.Shape = shape
	case "mobile":
		src.Kind = area.KindMobile
	default:
		return nil, errors.InvalidArgumentf("unknown area kind %q", a.Kind)
	}
	return src, nil
}

// Config converts to the domain effect configuration
func (e ScenarioEffect) Config() area.EffectConfig {
	cfg := area.EffectConfig{
		Enabled:  e.Enabled,
		Triggers: triggerSet(e.Triggers),
		Damage:   area.DamageConfig{Formula: e.Damage.Formula, Type: e.Damage.Type},
		Save: area.SaveConfig{
			Enabled:       e.Save.DC > 0 || e.Save.DCFormula != "",
			DC:            e.Save.DC,
			DCFormula:     e.Save.DCFormula,
			Ability:       e.Save.Ability,
			HalfOnSuccess: e.Save.HalfOnSuccess,
		},
		ExcludeSource:      e.ExcludeSource,
		IncludeSelf:        e.IncludeSelf,
		RequiresVisibility: e.RequiresVisibility,
		Macro: area.MacroConfig{
			Enabled:      e.Macro.Item != "",
			SourceItemID: e.Macro.Item,
		},
	}

	for _, ref := range e.Effects {
		cfg.Effects = append(cfg.Effects, area.EffectRef{
			Reference:       ref.Reference,
			Chance:          ref.Chance,
			SubRequirements: ref.Requirements,
		})
	}

	if len(e.DamageTriggers) > 0 {
		set := triggerSet(e.DamageTriggers)
		cfg.DamageTriggers = &set
	}
	if len(e.EffectsTriggers) > 0 {
		set := triggerSet(e.EffectsTriggers)
		cfg.EffectsTriggers = &set
	}
	if len(e.MacroTriggers) > 0 {
		set := triggerSet(e.MacroTriggers)
		cfg.MacroTriggers = &set
	}
	return cfg
}

func triggerSet(kinds []string) area.TriggerSet {
	var set area.TriggerSet
	for _, kind := range kinds {
		switch area.TriggerKind(kind) {
		case area.TriggerEnter:
			set.OnEnter = true
		case area.TriggerLeave:
			set.OnLeave = true
		case area.TriggerSourceTurnStart:
			set.OnSourceTurnStart = true
		case area.TriggerSourceTurnEnd:
			set.OnSourceTurnEnd = true
		case area.TriggerTargetTurnStart:
			set.OnTargetTurnStart = true
		case area.TriggerTargetTurnEnd:
			set.OnTargetTurnEnd = true
		}
	}
	return set
}
