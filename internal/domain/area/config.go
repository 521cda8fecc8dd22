package area

// TriggerKind identifies a raw engine event
type TriggerKind string

const (
	TriggerEnter           TriggerKind = "enter"
	TriggerLeave           TriggerKind = "leave"
	TriggerSourceTurnStart TriggerKind = "source_turn_start"
	TriggerSourceTurnEnd   TriggerKind = "source_turn_end"
	TriggerTargetTurnStart TriggerKind = "target_turn_start"
	TriggerTargetTurnEnd   TriggerKind = "target_turn_end"
)

// TriggerSet is a per-kind subscription
type TriggerSet struct {
	OnEnter           bool `json:"on_enter"`
	OnLeave           bool `json:"on_leave"`
	OnSourceTurnStart bool `json:"on_source_turn_start"`
	OnSourceTurnEnd   bool `json:"on_source_turn_end"`
	OnTargetTurnStart bool `json:"on_target_turn_start"`
	OnTargetTurnEnd   bool `json:"on_target_turn_end"`
}

// Fires reports whether the set subscribes to the given trigger kind
func (t TriggerSet) Fires(kind TriggerKind) bool {
	switch kind {
	case TriggerEnter:
		return t.OnEnter
	case TriggerLeave:
		return t.OnLeave
	case TriggerSourceTurnStart:
		return t.OnSourceTurnStart
	case TriggerSourceTurnEnd:
		return t.OnSourceTurnEnd
	case TriggerTargetTurnStart:
		return t.OnTargetTurnStart
	case TriggerTargetTurnEnd:
		return t.OnTargetTurnEnd
	}
	return false
}

// IsZero reports whether no trigger is subscribed
func (t TriggerSet) IsZero() bool {
	return t == TriggerSet{}
}

// DamageConfig specifies the damage roll
type DamageConfig struct {
	Formula string `json:"formula"`
	Type    string `json:"type"`
}

// SaveConfig gates damage and effects behind a saving throw
type SaveConfig struct {
	Enabled bool `json:"enabled"`
	// DC is a literal difficulty class; DCFormula, when set, takes
	// precedence and is evaluated against the area's SourceStats snapshot.
	DC            int    `json:"dc,omitempty"`
	DCFormula     string `json:"dc_formula,omitempty"`
	Ability       string `json:"ability"`
	HalfOnSuccess bool   `json:"half_on_success"`
}

// EffectRef is a single condition grant, independently gated
type EffectRef struct {
	Reference       string   `json:"reference"`
	Chance          int      `json:"chance"` // 0-100; 0 is treated as always
	SubRequirements []string `json:"sub_requirements,omitempty"`
}

// MacroConfig references a scripted callback
type MacroConfig struct {
	Enabled      bool   `json:"enabled"`
	SourceItemID string `json:"source_item_id,omitempty"`
}

// EffectConfig is the full per-area consequence configuration
type EffectConfig struct {
	Enabled  bool       `json:"enabled"`
	Triggers TriggerSet `json:"triggers"`

	// Per-category overrides. A non-empty override fully replaces the
	// standard trigger set for that category.
	DamageTriggers  *TriggerSet `json:"damage_triggers,omitempty"`
	EffectsTriggers *TriggerSet `json:"effects_triggers,omitempty"`
	MacroTriggers   *TriggerSet `json:"macro_triggers,omitempty"`

	Damage  DamageConfig `json:"damage"`
	Save    SaveConfig   `json:"save"`
	Effects []EffectRef  `json:"effects,omitempty"`

	ExcludeSource      bool `json:"exclude_source"`
	IncludeSelf        bool `json:"include_self"`
	RequiresVisibility bool `json:"requires_visibility"`

	Macro MacroConfig `json:"macro"`
}

// CategoryFire is the classifier's verdict: which consequence categories
// fire for one raw event.
type CategoryFire struct {
	Damage  bool
	Effects bool
	Macro   bool
}

// Any reports whether at least one category fires
func (c CategoryFire) Any() bool {
	return c.Damage || c.Effects || c.Macro
}

// Classify maps a raw trigger kind to the categories that fire under this
// configuration. Returns all-false when the config is disabled.
func (c *EffectConfig) Classify(kind TriggerKind) CategoryFire {
	if !c.Enabled {
		return CategoryFire{}
	}

	return CategoryFire{
		Damage:  c.categoryFires(c.DamageTriggers, kind),
		Effects: c.categoryFires(c.EffectsTriggers, kind),
		Macro:   c.Macro.Enabled && c.categoryFires(c.MacroTriggers, kind),
	}
}

func (c *EffectConfig) categoryFires(override *TriggerSet, kind TriggerKind) bool {
	if override != nil && !override.IsZero() {
		return override.Fires(kind)
	}
	return c.Triggers.Fires(kind)
}
