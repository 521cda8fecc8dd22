package resolution

//go:generate mockgen -destination=mock/mock_service.go -package=mockresolution -source=service.go

import (
	"context"
	"fmt"
	"log"

	"github.com/vttforge/areatrigger/internal/dice"
	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/domain/scene"
	engerr "github.com/vttforge/areatrigger/internal/errors"
	"github.com/vttforge/areatrigger/internal/repositories/actors"
	"github.com/vttforge/areatrigger/internal/repositories/tokens"
	"github.com/vttforge/areatrigger/internal/rules/expr"
	"github.com/vttforge/areatrigger/internal/uuid"
)

// Request asks the pipeline to resolve one classified firing against one target
type Request struct {
	Area          *area.Source
	TargetTokenID string
	Kind          area.TriggerKind
	Fire          area.CategoryFire
}

// SaveDetail records the saving throw outcome
type SaveDetail struct {
	Rolled  int    `json:"rolled"`
	Total   int    `json:"total"`
	DC      int    `json:"dc"`
	Ability string `json:"ability"`
	Success bool   `json:"success"`
}

// Result is the record emitted for the delivery layer
type Result struct {
	AreaID         string           `json:"area_id"`
	AreaName       string           `json:"area_name"`
	TargetTokenID  string           `json:"target_token_id"`
	TargetName     string           `json:"target_name"`
	Kind           area.TriggerKind `json:"kind"`
	Skipped        bool             `json:"skipped"`
	Saved          bool             `json:"saved"`
	SaveDetail     *SaveDetail      `json:"save_detail,omitempty"`
	DamageApplied  int              `json:"damage_applied"`
	DamageType     string           `json:"damage_type,omitempty"`
	GrantedEffects []string         `json:"granted_effects,omitempty"`
	MacroInvoked   bool             `json:"macro_invoked"`
	Log            []string         `json:"log,omitempty"`
}

// Service runs the effect resolution pipeline. It must only execute on the
// authoritative session; routing is the Authority Gateway's job.
type Service interface {
	// Resolve runs exclusion, save, damage, effects, and macro phases for
	// one firing and returns the result record
	Resolve(ctx context.Context, req *Request) (*Result, error)
}

type service struct {
	tokenRepo     tokens.Repository
	actorRepo     actors.Repository
	evaluator     *dice.Evaluator
	roller        dice.Roller
	macros        MacroRunner
	uuidGenerator uuid.Generator
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	TokenRepository tokens.Repository
	ActorRepository actors.Repository
	Roller          dice.Roller
	MacroRunner     MacroRunner
	UUIDGenerator   uuid.Generator
}

// NewService creates a new resolution service
func NewService(cfg *ServiceConfig) Service {
	if cfg.TokenRepository == nil {
		panic("token repository is required")
	}
	if cfg.ActorRepository == nil {
		panic("actor repository is required")
	}

	roller := cfg.Roller
	if roller == nil {
		roller = dice.NewRandomRoller()
	}

	macros := cfg.MacroRunner
	if macros == nil {
		macros = NewRegistry()
	}

	svc := &service{
		tokenRepo: cfg.TokenRepository,
		actorRepo: cfg.ActorRepository,
		evaluator: dice.NewEvaluator(roller),
		roller:    roller,
		macros:    macros,
	}

	if cfg.UUIDGenerator != nil {
		svc.uuidGenerator = cfg.UUIDGenerator
	} else {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}

	return svc
}

func (s *service) Resolve(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || req.Area == nil {
		return nil, engerr.InvalidArgument("request and area are required")
	}

	src := req.Area
	cfg := &src.Config

	result := &Result{
		AreaID:        src.ID,
		AreaName:      src.Name,
		TargetTokenID: req.TargetTokenID,
		Kind:          req.Kind,
	}

	target, err := s.tokenRepo.Get(ctx, req.TargetTokenID)
	if err != nil {
		return nil, engerr.Wrapf(err, "failed to resolve target token %s", req.TargetTokenID)
	}
	result.TargetName = target.Name

	// Exclusion checks
	if skip, reason := s.excluded(src, req); skip {
		result.Skipped = true
		result.Log = append(result.Log, reason)
		return result, nil
	}

	actor, err := s.actorRepo.GetActor(ctx, target.ActorID)
	if err != nil {
		return nil, engerr.Wrapf(err, "failed to resolve actor for token %s", target.ID)
	}

	// Save phase. A success cancels the effects phase outright; damage is
	// cancelled too unless half-on-success is configured.
	damageCancelled := false
	effectsCancelled := false
	halveDamage := false

	if cfg.Save.Enabled {
		detail, resolvable := s.rollSave(src, actor, result)
		if resolvable && detail.Success {
			result.Saved = true
			effectsCancelled = true
			if cfg.Save.HalfOnSuccess {
				halveDamage = true
			} else {
				damageCancelled = true
			}
		}
	}

	// Damage phase
	if req.Fire.Damage && !damageCancelled {
		s.applyDamage(ctx, src, actor, halveDamage, result)
	}

	// Effects phase
	if req.Fire.Effects && !effectsCancelled {
		s.applyEffects(ctx, src, target, actor, result)
	}

	// Macro phase runs regardless of save outcome
	if req.Fire.Macro {
		s.invokeMacro(ctx, src, target, req.Kind, result)
	}

	return result, nil
}

// excluded applies the bearer exemptions. ExcludeSource exempts the bearer
// from everything; a mobile area without IncludeSelf exempts the bearer from
// every category except its own source-turn firings.
func (s *service) excluded(src *area.Source, req *Request) (bool, string) {
	if src.BearerID == "" || req.TargetTokenID != src.BearerID {
		return false, ""
	}
	if src.Config.ExcludeSource {
		return true, "bearer is excluded from own area"
	}
	sourceTurn := req.Kind == area.TriggerSourceTurnStart || req.Kind == area.TriggerSourceTurnEnd
	if src.Kind == area.KindMobile && !src.Config.IncludeSelf && !sourceTurn {
		return true, "bearer is not a valid target of own aura"
	}
	return false, ""
}

// rollSave resolves the DC and rolls 1d20 plus the target's ability modifier.
// Returns resolvable=false when no DC can be determined, in which case the
// save phase is skipped entirely.
func (s *service) rollSave(src *area.Source, actor *scene.Actor, result *Result) (*SaveDetail, bool) {
	cfg := src.Config.Save

	dc := cfg.DC
	if cfg.DCFormula != "" {
		// DC formulas evaluate against the stat snapshot captured at area
		// creation, never the bearer's live stats.
		evaluated, err := s.evaluator.Evaluate(cfg.DCFormula, src.SourceStats)
		if err != nil {
			log.Printf("Resolution: bad DC formula %q for area %s: %v", cfg.DCFormula, src.ID, err)
			result.Log = append(result.Log, fmt.Sprintf("save skipped: bad DC formula %q", cfg.DCFormula))
			return nil, false
		}
		dc = evaluated.Total
	}
	if dc <= 0 {
		return nil, false
	}

	modifier := actor.AbilityModifier(cfg.Ability)
	roll, err := s.roller.Roll(1, 20, modifier)
	if err != nil {
		log.Printf("Resolution: save roll failed for area %s: %v", src.ID, err)
		return nil, false
	}

	detail := &SaveDetail{
		Rolled:  roll.Rolls[0],
		Total:   roll.Total,
		DC:      dc,
		Ability: cfg.Ability,
		Success: roll.Total >= dc,
	}
	result.SaveDetail = detail
	result.Log = append(result.Log, fmt.Sprintf("%s save: d20(%d)%+d = %d vs DC %d",
		cfg.Ability, detail.Rolled, modifier, detail.Total, dc))
	return detail, true
}

// applyDamage rolls the damage formula and subtracts from the target's HP,
// floor-clamped at zero. Configuration failures skip the phase, never abort.
func (s *service) applyDamage(ctx context.Context, src *area.Source, actor *scene.Actor, halve bool, result *Result) {
	formula := src.Config.Damage.Formula
	if formula == "" {
		return
	}

	rolled, err := s.evaluator.Evaluate(formula, src.SourceStats)
	if err != nil {
		log.Printf("Resolution: bad damage formula %q for area %s: %v", formula, src.ID, err)
		result.Log = append(result.Log, fmt.Sprintf("damage skipped: bad formula %q", formula))
		return
	}

	damage := rolled.Total
	if damage < 0 {
		damage = 0
	}
	if halve {
		damage /= 2
	}

	applied := actor.ApplyDamage(damage)
	if err := s.actorRepo.PutActor(ctx, actor); err != nil {
		log.Printf("Resolution: failed to persist damage to actor %s: %v", actor.ID, err)
		return
	}

	result.DamageApplied = applied
	result.DamageType = src.Config.Damage.Type
	if halve {
		result.Log = append(result.Log, fmt.Sprintf("damage: %s = %d, halved to %d", formula, rolled.Total, damage))
	} else {
		result.Log = append(result.Log, fmt.Sprintf("damage: %s = %d", formula, rolled.Total))
	}
}

// applyEffects walks the configured effect entries. Each entry is gated by
// its requirement expressions and chance roll; a grant already tagged with
// this area on the target makes the entry a no-op.
func (s *service) applyEffects(ctx context.Context, src *area.Source, target *scene.Token, actor *scene.Actor, result *Result) {
	if len(src.Config.Effects) == 0 {
		return
	}

	bindings := s.requirementBindings(ctx, src, actor)

	for _, entry := range src.Config.Effects {
		if entry.Reference == "" {
			result.Log = append(result.Log, "effect skipped: empty reference")
			continue
		}

		ok, err := expr.EvalAll(entry.SubRequirements, bindings)
		if err != nil {
			log.Printf("Resolution: bad requirement on effect %q for area %s: %v", entry.Reference, src.ID, err)
			result.Log = append(result.Log, fmt.Sprintf("effect %s skipped: bad requirement", entry.Reference))
			continue
		}
		if !ok {
			continue
		}

		if entry.Chance > 0 && entry.Chance < 100 {
			roll, err := s.roller.Roll(1, 100, 0)
			if err != nil || roll.Total > entry.Chance {
				continue
			}
		}

		// Idempotency: one grant per (area, target)
		if _, err := s.actorRepo.GetGrantByOrigin(ctx, actor.ID, src.ID); err == nil {
			result.Log = append(result.Log, fmt.Sprintf("effect %s already granted", entry.Reference))
			continue
		} else if !engerr.IsNotFound(err) {
			log.Printf("Resolution: grant index lookup failed for actor %s: %v", actor.ID, err)
			continue
		}

		grant := &scene.Grant{
			ID:           s.uuidGenerator.New(),
			ActorID:      actor.ID,
			Reference:    entry.Reference,
			OriginAreaID: src.ID,
		}
		if err := s.actorRepo.AddGrant(ctx, grant); err != nil {
			log.Printf("Resolution: failed to store grant %s: %v", grant.ID, err)
			continue
		}

		result.GrantedEffects = append(result.GrantedEffects, entry.Reference)
		result.Log = append(result.Log, fmt.Sprintf("granted %s", entry.Reference))
	}
}

// requirementBindings flattens target and bearer stats into the closed
// expression evaluator's variable space as "target.*" and "source.*".
func (s *service) requirementBindings(ctx context.Context, src *area.Source, target *scene.Actor) map[string]int {
	bindings := make(map[string]int)
	for k, v := range target.Stats() {
		bindings["target."+k] = v
	}
	for k, v := range src.SourceStats {
		bindings["source."+k] = v
	}
	return bindings
}

// invokeMacro runs the scripted callback. Failures are logged and never
// fatal to the pipeline.
func (s *service) invokeMacro(ctx context.Context, src *area.Source, target *scene.Token, kind area.TriggerKind, result *Result) {
	if !src.Config.Macro.Enabled || src.Config.Macro.SourceItemID == "" {
		return
	}

	invocation := &MacroInvocation{
		SourceItemID: src.Config.Macro.SourceItemID,
		AreaID:       src.ID,
		BearerID:     src.BearerID,
		TargetID:     target.ID,
		Kind:         kind,
		Config:       &src.Config,
	}

	if err := s.macros.Run(ctx, invocation); err != nil {
		log.Printf("Resolution: macro %s failed for area %s: %v", src.Config.Macro.SourceItemID, src.ID, err)
		result.Log = append(result.Log, fmt.Sprintf("macro %s failed", src.Config.Macro.SourceItemID))
		return
	}

	result.MacroInvoked = true
}
