package engine

//go:generate mockgen -destination=mock/mock_engine.go -package=mockengine -source=engine.go

import (
	"context"
	"log"

	"github.com/vttforge/areatrigger/internal/dedup"
	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/errors"
	"github.com/vttforge/areatrigger/internal/events"
	"github.com/vttforge/areatrigger/internal/services/delivery"
	"github.com/vttforge/areatrigger/internal/services/resolution"
)

// Service is the trigger coordinator. Detection hands it raw transitions;
// it classifies them, applies the per-turn dedup guard, and routes the
// surviving firings to delivery.
type Service interface {
	// DispatchTrigger handles one raw trigger event for one target
	DispatchTrigger(ctx context.Context, src *area.Source, targetTokenID string, kind area.TriggerKind) error
}

type service struct {
	memo     *dedup.Memo
	delivery delivery.Service
	bus      *events.Bus
}

// ServiceConfig holds configuration for the engine
type ServiceConfig struct {
	Memo            *dedup.Memo
	DeliveryService delivery.Service
	EventBus        *events.Bus
}

// NewService creates a new engine coordinator
func NewService(cfg *ServiceConfig) Service {
	if cfg.Memo == nil {
		panic("dedup memo is required")
	}
	if cfg.DeliveryService == nil {
		panic("delivery service is required")
	}
	return &service{
		memo:     cfg.Memo,
		delivery: cfg.DeliveryService,
		bus:      cfg.EventBus,
	}
}

func (s *service) DispatchTrigger(ctx context.Context, src *area.Source, targetTokenID string, kind area.TriggerKind) error {
	if src == nil {
		return errors.InvalidArgument("area is required")
	}

	fire := src.Config.Classify(kind)
	if !fire.Any() {
		return nil
	}

	// One logical event per (area, target, kind) per turn window, no matter
	// how many detection paths observed it
	if !s.memo.FirstFire(src.ID, targetTokenID, kind) {
		log.Printf("Engine: suppressed duplicate %s for token %s in area %s", kind, targetTokenID, src.ID)
		return nil
	}

	result, err := s.delivery.Deliver(ctx, &resolution.Request{
		Area:          src,
		TargetTokenID: targetTokenID,
		Kind:          kind,
		Fire:          fire,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to deliver %s for token %s in area %s", kind, targetTokenID, src.ID)
	}

	if result != nil && s.bus != nil {
		s.bus.Emit(&events.Event{
			Type:    events.EventTypeResolutionCompleted,
			AreaID:  src.ID,
			TokenID: targetTokenID,
			SceneID: src.SceneID,
			Payload: result,
		})
	}
	return nil
}
