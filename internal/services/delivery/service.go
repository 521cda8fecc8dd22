package delivery

//go:generate mockgen -destination=mock/mock_service.go -package=mockdelivery -source=service.go

import (
	"context"
	"log"
	"sync"

	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/errors"
	"github.com/vttforge/areatrigger/internal/services/authority"
	"github.com/vttforge/areatrigger/internal/services/resolution"
)

// Mode selects how resolved consequences reach the table
type Mode string

const (
	// ModeAuto applies consequences immediately and posts a summary
	ModeAuto Mode = "auto"
	// ModeInteractive posts a prompt and waits for a participant to apply
	ModeInteractive Mode = "interactive"
)

// ParseMode maps a config string to a Mode, defaulting to auto
func ParseMode(s string) Mode {
	if Mode(s) == ModeInteractive {
		return ModeInteractive
	}
	return ModeAuto
}

// Prompt is the durable interactive card. It carries everything a
// participant needs to judge the pending application.
type Prompt struct {
	AreaID        string           `json:"area_id"`
	AreaName      string           `json:"area_name"`
	TargetTokenID string           `json:"target_token_id"`
	Kind          area.TriggerKind `json:"kind"`
	DamageFormula string           `json:"damage_formula,omitempty"`
	DamageType    string           `json:"damage_type,omitempty"`
	SaveDC        int              `json:"save_dc,omitempty"`
	SaveAbility   string           `json:"save_ability,omitempty"`
	EffectRefs    []string         `json:"effect_refs,omitempty"`
}

// Notifier posts to the shared table channel. PostPrompt returns the durable
// control id later passed to Activate.
type Notifier interface {
	PostSummary(ctx context.Context, result *resolution.Result) error
	PostPrompt(ctx context.Context, prompt *Prompt) (string, error)
	DisablePrompt(ctx context.Context, promptID string, note string) error
}

// Service routes a classified firing to the table according to the
// configured mode
type Service interface {
	// Deliver handles one firing. Auto mode executes through the gateway
	// and posts a summary, returning the result. Interactive mode posts a
	// prompt and returns nil; execution waits for Activate.
	Deliver(ctx context.Context, req *resolution.Request) (*resolution.Result, error)

	// Activate executes the pending operation behind a prompt control.
	// The control disables after its first successful application; a
	// failed application leaves it usable.
	Activate(ctx context.Context, promptID string) (*resolution.Result, error)

	// Mode reports the active delivery mode
	Mode() Mode
}

type pendingOp struct {
	req      *resolution.Request
	consumed bool
	inFlight bool
}

type service struct {
	mode     Mode
	gateway  authority.Gateway
	notifier Notifier

	mu      sync.Mutex
	pending map[string]*pendingOp
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Mode     Mode
	Gateway  authority.Gateway
	Notifier Notifier
}

// NewService creates a new delivery service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Gateway == nil {
		panic("authority gateway is required")
	}
	if cfg.Notifier == nil {
		panic("notifier is required")
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeAuto
	}

	return &service{
		mode:     mode,
		gateway:  cfg.Gateway,
		notifier: cfg.Notifier,
		pending:  make(map[string]*pendingOp),
	}
}

func (s *service) Mode() Mode {
	return s.mode
}

func (s *service) Deliver(ctx context.Context, req *resolution.Request) (*resolution.Result, error) {
	if req == nil || req.Area == nil {
		return nil, errors.InvalidArgument("request and area are required")
	}

	if s.mode == ModeInteractive {
		return nil, s.deliverPrompt(ctx, req)
	}

	result, err := s.gateway.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.Skipped {
		return result, nil
	}
	if err := s.notifier.PostSummary(ctx, result); err != nil {
		// The state change already landed; a lost summary is log-only
		log.Printf("Delivery: failed to post summary for area %s: %v", result.AreaID, err)
	}
	return result, nil
}

func (s *service) deliverPrompt(ctx context.Context, req *resolution.Request) error {
	prompt := buildPrompt(req)
	promptID, err := s.notifier.PostPrompt(ctx, prompt)
	if err != nil {
		return errors.Wrapf(err, "failed to post prompt for area %s", req.Area.ID)
	}

	s.mu.Lock()
	s.pending[promptID] = &pendingOp{req: req}
	s.mu.Unlock()
	return nil
}

func (s *service) Activate(ctx context.Context, promptID string) (*resolution.Result, error) {
	s.mu.Lock()
	op, ok := s.pending[promptID]
	if !ok {
		s.mu.Unlock()
		return nil, errors.NotFoundf("no pending operation for prompt %s", promptID)
	}
	if op.consumed {
		s.mu.Unlock()
		return nil, errors.InvalidArgumentf("prompt %s was already applied", promptID)
	}
	if op.inFlight {
		s.mu.Unlock()
		return nil, errors.InvalidArgumentf("prompt %s is already being applied", promptID)
	}
	// Claim the op before the gateway call; a prompt admits one
	// activation at a time
	op.inFlight = true
	s.mu.Unlock()

	result, err := s.gateway.Execute(ctx, op.req)

	s.mu.Lock()
	op.inFlight = false
	if err != nil {
		s.mu.Unlock()
		// First-success semantics: the control stays live so the
		// participant can try again once the session recovers
		return nil, err
	}
	op.consumed = true
	s.mu.Unlock()

	if err := s.notifier.DisablePrompt(ctx, promptID, "applied"); err != nil {
		log.Printf("Delivery: failed to disable prompt %s: %v", promptID, err)
	}
	if err := s.notifier.PostSummary(ctx, result); err != nil {
		log.Printf("Delivery: failed to post summary for prompt %s: %v", promptID, err)
	}
	return result, nil
}

func buildPrompt(req *resolution.Request) *Prompt {
	cfg := req.Area.Config
	prompt := &Prompt{
		AreaID:        req.Area.ID,
		AreaName:      req.Area.Name,
		TargetTokenID: req.TargetTokenID,
		Kind:          req.Kind,
	}
	if req.Fire.Damage {
		prompt.DamageFormula = cfg.Damage.Formula
		prompt.DamageType = cfg.Damage.Type
	}
	if cfg.Save.Enabled {
		prompt.SaveDC = cfg.Save.DC
		prompt.SaveAbility = cfg.Save.Ability
	}
	if req.Fire.Effects {
		for _, ref := range cfg.Effects {
			prompt.EffectRefs = append(prompt.EffectRefs, ref.Reference)
		}
	}
	return prompt
}
