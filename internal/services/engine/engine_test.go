package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vttforge/areatrigger/internal/dedup"
	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/events"
	"github.com/vttforge/areatrigger/internal/services/delivery"
	"github.com/vttforge/areatrigger/internal/services/engine"
	"github.com/vttforge/areatrigger/internal/services/resolution"
)

type fakeDelivery struct {
	requests []*resolution.Request
}

func (d *fakeDelivery) Deliver(_ context.Context, req *resolution.Request) (*resolution.Result, error) {
	d.requests = append(d.requests, req)
	return &resolution.Result{AreaID: req.Area.ID, TargetTokenID: req.TargetTokenID}, nil
}

func (d *fakeDelivery) Activate(_ context.Context, _ string) (*resolution.Result, error) {
	return nil, nil
}

func (d *fakeDelivery) Mode() delivery.Mode { return delivery.ModeAuto }

func enterArea() *area.Source {
	return &area.Source{
		ID: "area-1", SceneID: "scene-1", Name: "Entangle",
		Config: area.EffectConfig{
			Enabled:  true,
			Triggers: area.TriggerSet{OnEnter: true},
			Damage:   area.DamageConfig{Formula: "1d6"},
		},
	}
}

func TestDispatchTrigger_ClassifiesAndDelivers(t *testing.T) {
	dlv := &fakeDelivery{}
	memo := dedup.NewMemo()
	svc := engine.NewService(&engine.ServiceConfig{Memo: memo, DeliveryService: dlv})

	err := svc.DispatchTrigger(context.Background(), enterArea(), "tok-1", area.TriggerEnter)
	require.NoError(t, err)

	require.Len(t, dlv.requests, 1)
	req := dlv.requests[0]
	assert.Equal(t, "tok-1", req.TargetTokenID)
	assert.Equal(t, area.TriggerEnter, req.Kind)
	assert.True(t, req.Fire.Damage)
	assert.False(t, req.Fire.Macro)
}

func TestDispatchTrigger_UnsubscribedKindIsSilent(t *testing.T) {
	dlv := &fakeDelivery{}
	svc := engine.NewService(&engine.ServiceConfig{Memo: dedup.NewMemo(), DeliveryService: dlv})

	err := svc.DispatchTrigger(context.Background(), enterArea(), "tok-1", area.TriggerTargetTurnStart)
	require.NoError(t, err)
	assert.Empty(t, dlv.requests)
}

func TestDispatchTrigger_DedupWithinTurnWindow(t *testing.T) {
	dlv := &fakeDelivery{}
	memo := dedup.NewMemo()
	svc := engine.NewService(&engine.ServiceConfig{Memo: memo, DeliveryService: dlv})
	ctx := context.Background()
	src := enterArea()

	require.NoError(t, svc.DispatchTrigger(ctx, src, "tok-1", area.TriggerEnter))
	require.NoError(t, svc.DispatchTrigger(ctx, src, "tok-1", area.TriggerEnter))
	assert.Len(t, dlv.requests, 1, "second observation of the same event is suppressed")

	// Distinct target or kind is a distinct logical event
	require.NoError(t, svc.DispatchTrigger(ctx, src, "tok-2", area.TriggerEnter))
	assert.Len(t, dlv.requests, 2)

	// A turn advance reopens the window
	memo.Clear()
	require.NoError(t, svc.DispatchTrigger(ctx, src, "tok-1", area.TriggerEnter))
	assert.Len(t, dlv.requests, 3)
}

func TestDispatchTrigger_EmitsResolutionEvent(t *testing.T) {
	dlv := &fakeDelivery{}
	bus := events.NewBus()

	var seen []*events.Event
	bus.Subscribe(events.EventTypeResolutionCompleted, &events.ListenerFunc{
		ListenerID: "test",
		Handler: func(e *events.Event) error {
			seen = append(seen, e)
			return nil
		},
	})

	svc := engine.NewService(&engine.ServiceConfig{
		Memo:            dedup.NewMemo(),
		DeliveryService: dlv,
		EventBus:        bus,
	})

	require.NoError(t, svc.DispatchTrigger(context.Background(), enterArea(), "tok-1", area.TriggerEnter))

	require.Len(t, seen, 1)
	assert.Equal(t, "area-1", seen[0].AreaID)
	result, ok := seen[0].Payload.(*resolution.Result)
	require.True(t, ok)
	assert.Equal(t, "tok-1", result.TargetTokenID)
}
