package sequencer

//go:generate mockgen -destination=mock/mock_service.go -package=mocksequencer -source=service.go

import (
	"context"
	"log"
	"sync"

	"github.com/vttforge/areatrigger/internal/dedup"
	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/errors"
	"github.com/vttforge/areatrigger/internal/events"
	"github.com/vttforge/areatrigger/internal/repositories/areas"
	"github.com/vttforge/areatrigger/internal/services/containment"
)

// TurnPointer is a read-only snapshot of the host's combat counter. The
// engine never mutates turn order; it only observes advances.
type TurnPointer struct {
	SceneID string   `json:"scene_id"`
	Round   int      `json:"round"`
	Turn    int      `json:"turn"`  // index into Order
	Order   []string `json:"order"` // combatant token ids
}

// Combatant returns the token id the pointer rests on, or "" when the
// pointer is outside the order
func (p *TurnPointer) Combatant() string {
	if p.Turn < 0 || p.Turn >= len(p.Order) {
		return ""
	}
	return p.Order[p.Turn]
}

// TriggerDispatcher receives turn boundary notifications
type TriggerDispatcher interface {
	DispatchTrigger(ctx context.Context, src *area.Source, targetTokenID string, kind area.TriggerKind) error
}

// Service turns combat counter advances into turn-family trigger firings
type Service interface {
	// Advance observes a new turn pointer. It fires turn-end triggers for
	// the previous combatant, then turn-start triggers for the new one, and
	// resets the per-turn dedup memo in between. A round advance also
	// sweeps expired areas.
	Advance(ctx context.Context, ptr *TurnPointer) error

	// SetDispatcher installs the trigger dispatcher
	SetDispatcher(d TriggerDispatcher)
}

type service struct {
	areaRepo    areas.Repository
	containment containment.Service
	memo        *dedup.Memo
	dispatcher  TriggerDispatcher
	bus         *events.Bus

	mu      sync.Mutex
	current map[string]*TurnPointer // sceneID -> last observed pointer
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	AreaRepository     areas.Repository
	ContainmentService containment.Service
	Memo               *dedup.Memo
	Dispatcher         TriggerDispatcher
	EventBus           *events.Bus
}

// NewService creates a new sequencer service
func NewService(cfg *ServiceConfig) Service {
	if cfg.AreaRepository == nil {
		panic("area repository is required")
	}
	if cfg.ContainmentService == nil {
		panic("containment service is required")
	}
	if cfg.Memo == nil {
		panic("dedup memo is required")
	}

	return &service{
		areaRepo:    cfg.AreaRepository,
		containment: cfg.ContainmentService,
		memo:        cfg.Memo,
		dispatcher:  cfg.Dispatcher,
		bus:         cfg.EventBus,
		current:     make(map[string]*TurnPointer),
	}
}

func (s *service) SetDispatcher(d TriggerDispatcher) {
	s.dispatcher = d
}

func (s *service) Advance(ctx context.Context, ptr *TurnPointer) error {
	if ptr == nil || ptr.SceneID == "" {
		return errors.InvalidArgument("turn pointer with a scene ID is required")
	}

	s.mu.Lock()
	prev := s.current[ptr.SceneID]
	s.current[ptr.SceneID] = ptr
	s.mu.Unlock()

	// Every advance opens a fresh dedup window
	s.memo.Clear()

	// Turn-end fires for the outgoing combatant first, even when the
	// incoming combatant cannot be resolved
	if prev != nil {
		if combatant := prev.Combatant(); combatant != "" {
			s.notifyTurn(ctx, ptr.SceneID, combatant, area.TriggerSourceTurnEnd, area.TriggerTargetTurnEnd)
		}
		s.emit(&events.Event{
			Type:    events.EventTypeTurnEnded,
			SceneID: ptr.SceneID,
			Round:   prev.Round,
			Turn:    prev.Turn,
		})

		if ptr.Round > prev.Round {
			if _, err := s.containment.SweepExpired(ctx, ptr.SceneID, ptr.Round); err != nil {
				log.Printf("Sequencer: expiry sweep failed for scene %s: %v", ptr.SceneID, err)
			}
			s.emit(&events.Event{
				Type:    events.EventTypeRoundAdvanced,
				SceneID: ptr.SceneID,
				Round:   ptr.Round,
			})
		}
	}

	if combatant := ptr.Combatant(); combatant != "" {
		s.notifyTurn(ctx, ptr.SceneID, combatant, area.TriggerSourceTurnStart, area.TriggerTargetTurnStart)
	} else {
		log.Printf("Sequencer: turn %d in scene %s has no resolvable combatant", ptr.Turn, ptr.SceneID)
	}

	s.emit(&events.Event{
		Type:    events.EventTypeTurnStarted,
		SceneID: ptr.SceneID,
		Round:   ptr.Round,
		Turn:    ptr.Turn,
	})
	return nil
}

// notifyTurn asks both turn questions for one combatant. The bearer question
// fires the source-turn kind against every contained token of areas the
// combatant bears; the containment question fires the target-turn kind
// against the combatant for every area containing it. Both can fire for the
// same area.
func (s *service) notifyTurn(ctx context.Context, sceneID, combatantID string, sourceKind, targetKind area.TriggerKind) {
	sceneAreas, err := s.areaRepo.ListByScene(ctx, sceneID)
	if err != nil {
		log.Printf("Sequencer: failed to list areas for scene %s: %v", sceneID, err)
		return
	}

	for _, src := range sceneAreas {
		if src.BearerID == combatantID {
			for _, tokenID := range src.ContainedTokens {
				s.dispatch(ctx, src, tokenID, sourceKind)
			}
		}
		if src.ContainsToken(combatantID) {
			s.dispatch(ctx, src, combatantID, targetKind)
		}
	}
}

func (s *service) dispatch(ctx context.Context, src *area.Source, tokenID string, kind area.TriggerKind) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.DispatchTrigger(ctx, src, tokenID, kind); err != nil {
		log.Printf("Sequencer: dispatch %s for token %s in area %s failed: %v", kind, tokenID, src.ID, err)
	}
}

func (s *service) emit(event *events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(event)
}
