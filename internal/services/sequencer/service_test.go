package sequencer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/vttforge/areatrigger/internal/dedup"
	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/domain/scene"
	"github.com/vttforge/areatrigger/internal/geometry"
	"github.com/vttforge/areatrigger/internal/repositories/actors"
	"github.com/vttforge/areatrigger/internal/repositories/areas"
	"github.com/vttforge/areatrigger/internal/repositories/tokens"
	"github.com/vttforge/areatrigger/internal/services/containment"
	"github.com/vttforge/areatrigger/internal/services/sequencer"
)

type dispatchCall struct {
	AreaID  string
	TokenID string
	Kind    area.TriggerKind
}

type recordingDispatcher struct {
	calls []dispatchCall
}

func (d *recordingDispatcher) DispatchTrigger(_ context.Context, src *area.Source, tokenID string, kind area.TriggerKind) error {
	d.calls = append(d.calls, dispatchCall{AreaID: src.ID, TokenID: tokenID, Kind: kind})
	return nil
}

func (d *recordingDispatcher) reset() { d.calls = nil }

type SequencerTestSuite struct {
	suite.Suite
	ctx        context.Context
	areaRepo   areas.Repository
	tokenRepo  tokens.Repository
	dispatcher *recordingDispatcher
	memo       *dedup.Memo
	containSvc containment.Service
	svc        sequencer.Service
}

func (s *SequencerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.areaRepo = areas.NewInMemoryRepository()
	s.tokenRepo = tokens.NewInMemoryRepository()
	s.dispatcher = &recordingDispatcher{}
	s.memo = dedup.NewMemo()

	oracle := geometry.NewOracle(&geometry.OracleConfig{
		Grid: geometry.Grid{CellSize: 100, UnitsPerCell: 5},
	})
	s.containSvc = containment.NewService(&containment.ServiceConfig{
		AreaRepository:  s.areaRepo,
		TokenRepository: s.tokenRepo,
		ActorRepository: actors.NewInMemoryRepository(),
		Oracle:          oracle,
	})

	s.svc = sequencer.NewService(&sequencer.ServiceConfig{
		AreaRepository:     s.areaRepo,
		ContainmentService: s.containSvc,
		Memo:               s.memo,
		Dispatcher:         s.dispatcher,
	})
}

func TestSequencerTestSuite(t *testing.T) {
	suite.Run(t, new(SequencerTestSuite))
}

func (s *SequencerTestSuite) putToken(id string, pos geometry.Point) {
	s.Require().NoError(s.tokenRepo.Put(s.ctx, &scene.Token{
		ID: id, SceneID: "scene-1", ActorID: "actor-" + id, Name: id, Position: pos,
	}))
}

func (s *SequencerTestSuite) pointer(round, turn int, order ...string) *sequencer.TurnPointer {
	return &sequencer.TurnPointer{SceneID: "scene-1", Round: round, Turn: turn, Order: order}
}

func (s *SequencerTestSuite) placeArea(src *area.Source) {
	s.Require().NoError(s.containSvc.PlaceArea(s.ctx, src))
}

func (s *SequencerTestSuite) TestTargetTurnTriggers() {
	s.putToken("tok-a", geometry.Point{X: 0, Y: 0})
	s.putToken("tok-b", geometry.Point{X: 5000, Y: 0})
	s.placeArea(&area.Source{
		ID: "area-1", SceneID: "scene-1", Kind: area.KindFixed,
		Shape: &geometry.Polygon{Points: []geometry.Point{
			{X: -300, Y: -300}, {X: 300, Y: -300}, {X: 300, Y: 300}, {X: -300, Y: 300},
		}},
		Config: area.EffectConfig{Enabled: true, Triggers: area.TriggerSet{OnTargetTurnStart: true}},
	})

	// tok-a's turn: it stands in the area, target-turn-start fires for it
	s.Require().NoError(s.svc.Advance(s.ctx, s.pointer(1, 0, "tok-a", "tok-b")))
	s.Require().Len(s.dispatcher.calls, 1)
	s.Equal(dispatchCall{AreaID: "area-1", TokenID: "tok-a", Kind: area.TriggerTargetTurnStart}, s.dispatcher.calls[0])

	// Advance to tok-b: tok-a's turn-end first, then nothing for tok-b,
	// which stands outside
	s.dispatcher.reset()
	s.Require().NoError(s.svc.Advance(s.ctx, s.pointer(1, 1, "tok-a", "tok-b")))
	s.Require().Len(s.dispatcher.calls, 1)
	s.Equal(dispatchCall{AreaID: "area-1", TokenID: "tok-a", Kind: area.TriggerTargetTurnEnd}, s.dispatcher.calls[0])
}

func (s *SequencerTestSuite) TestBearerTurnNotifiesAllContained() {
	s.putToken("tok-bearer", geometry.Point{X: 0, Y: 0})
	s.putToken("tok-a", geometry.Point{X: 200, Y: 0})
	s.putToken("tok-b", geometry.Point{X: 0, Y: 300})
	s.putToken("tok-far", geometry.Point{X: 5000, Y: 0})
	s.placeArea(&area.Source{
		ID: "aura-1", SceneID: "scene-1", Kind: area.KindMobile,
		BearerID: "tok-bearer", Radius: 30,
		Config: area.EffectConfig{Enabled: true, Triggers: area.TriggerSet{OnSourceTurnStart: true}},
	})

	s.Require().NoError(s.svc.Advance(s.ctx, s.pointer(1, 0, "tok-bearer", "tok-a")))

	// Source-turn-start fires once per contained token (bearer included;
	// the resolution pipeline handles bearer exemption), plus the bearer's
	// own target-turn question against the same area
	kinds := map[area.TriggerKind][]string{}
	for _, call := range s.dispatcher.calls {
		s.Equal("aura-1", call.AreaID)
		kinds[call.Kind] = append(kinds[call.Kind], call.TokenID)
	}
	s.ElementsMatch([]string{"tok-bearer", "tok-a", "tok-b"}, kinds[area.TriggerSourceTurnStart])
	s.ElementsMatch([]string{"tok-bearer"}, kinds[area.TriggerTargetTurnStart])
}

func (s *SequencerTestSuite) TestAdvanceClearsMemo() {
	s.memo.FirstFire("area-1", "tok-a", area.TriggerTargetTurnStart)
	s.Require().Equal(1, s.memo.Len())

	s.Require().NoError(s.svc.Advance(s.ctx, s.pointer(1, 0, "tok-a")))
	s.Zero(s.memo.Len(), "every advance opens a fresh dedup window")
}

func (s *SequencerTestSuite) TestUnresolvableCombatant() {
	s.putToken("tok-a", geometry.Point{X: 0, Y: 0})
	s.placeArea(&area.Source{
		ID: "area-1", SceneID: "scene-1", Kind: area.KindFixed,
		Shape: &geometry.Polygon{Points: []geometry.Point{
			{X: -300, Y: -300}, {X: 300, Y: -300}, {X: 300, Y: 300}, {X: -300, Y: 300},
		}},
		Config: area.EffectConfig{Enabled: true, Triggers: area.TriggerSet{OnTargetTurnStart: true, OnTargetTurnEnd: true}},
	})

	s.Require().NoError(s.svc.Advance(s.ctx, s.pointer(1, 0, "tok-a")))
	s.dispatcher.reset()

	// Pointer lands outside the order: tok-a's turn-end still fires
	s.Require().NoError(s.svc.Advance(s.ctx, s.pointer(1, 5, "tok-a")))
	s.Require().Len(s.dispatcher.calls, 1)
	s.Equal(dispatchCall{AreaID: "area-1", TokenID: "tok-a", Kind: area.TriggerTargetTurnEnd}, s.dispatcher.calls[0])
}

func (s *SequencerTestSuite) TestRoundAdvanceSweepsExpired() {
	s.putToken("tok-a", geometry.Point{X: 5000, Y: 5000})
	s.placeArea(&area.Source{
		ID: "area-short", SceneID: "scene-1", Kind: area.KindFixed,
		Shape: &geometry.Polygon{Points: []geometry.Point{
			{X: -300, Y: -300}, {X: 300, Y: -300}, {X: 300, Y: 300}, {X: -300, Y: 300},
		}},
		CreatedRound: 1, DurationRounds: 1,
	})

	s.Require().NoError(s.svc.Advance(s.ctx, s.pointer(1, 0, "tok-a")))

	// Same round: area survives
	s.Require().NoError(s.svc.Advance(s.ctx, s.pointer(1, 0, "tok-a")))
	_, err := s.areaRepo.Get(s.ctx, "area-short")
	s.Require().NoError(err)

	// Round rolls over: duration elapsed, area destroyed
	s.Require().NoError(s.svc.Advance(s.ctx, s.pointer(2, 0, "tok-a")))
	remaining, err := s.areaRepo.ListByScene(s.ctx, "scene-1")
	s.Require().NoError(err)
	s.Empty(remaining)
}
