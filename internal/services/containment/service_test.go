package containment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/domain/scene"
	"github.com/vttforge/areatrigger/internal/geometry"
	"github.com/vttforge/areatrigger/internal/repositories/actors"
	"github.com/vttforge/areatrigger/internal/repositories/areas"
	"github.com/vttforge/areatrigger/internal/repositories/tokens"
	"github.com/vttforge/areatrigger/internal/services/containment"
	"github.com/vttforge/areatrigger/internal/uuid"
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

type ContainmentTestSuite struct {
	suite.Suite
	ctx        context.Context
	areaRepo   areas.Repository
	tokenRepo  tokens.Repository
	actorRepo  actors.Repository
	dispatcher *recordingDispatcher
	walls      *geometry.Walls
	svc        containment.Service
}

func (s *ContainmentTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.areaRepo = areas.NewInMemoryRepository()
	s.tokenRepo = tokens.NewInMemoryRepository()
	s.actorRepo = actors.NewInMemoryRepository()
	s.dispatcher = &recordingDispatcher{}
	s.walls = &geometry.Walls{}

	// 100 world units per cell, 5 game units per cell: 30ft radius = 600wu
	oracle := geometry.NewOracle(&geometry.OracleConfig{
		Blocker: s.walls,
		Grid:    geometry.Grid{CellSize: 100, UnitsPerCell: 5},
	})

	s.svc = containment.NewService(&containment.ServiceConfig{
		AreaRepository:  s.areaRepo,
		TokenRepository: s.tokenRepo,
		ActorRepository: s.actorRepo,
		Oracle:          oracle,
		Dispatcher:      s.dispatcher,
		UUIDGenerator:   &uuid.SequentialGenerator{Prefix: "area"},
	})
}

func TestContainmentTestSuite(t *testing.T) {
	suite.Run(t, new(ContainmentTestSuite))
}

func (s *ContainmentTestSuite) putToken(id string, pos geometry.Point) {
	s.Require().NoError(s.tokenRepo.Put(s.ctx, &scene.Token{
		ID: id, SceneID: "scene-1", ActorID: "actor-" + id, Name: id, Position: pos,
	}))
}

// square 600x600 in local coordinates, anchored by Origin
func squareShape() *geometry.Polygon {
	return &geometry.Polygon{Points: []geometry.Point{
		{X: -300, Y: -300}, {X: 300, Y: -300}, {X: 300, Y: 300}, {X: -300, Y: 300},
	}}
}

func (s *ContainmentTestSuite) placeFixedArea() *area.Source {
	src := &area.Source{
		ID:      "area-fire",
		SceneID: "scene-1",
		Name:    "Wall of Fire",
		Kind:    area.KindFixed,
		Shape:   squareShape(),
		Origin:  geometry.Point{X: 1000, Y: 1000},
		Config:  area.EffectConfig{Enabled: true, Triggers: area.TriggerSet{OnEnter: true, OnLeave: true}},
	}
	s.Require().NoError(s.svc.PlaceArea(s.ctx, src))
	return src
}

func (s *ContainmentTestSuite) TestPlaceAreaSeedsOccupantsSilently() {
	s.putToken("tok-inside", geometry.Point{X: 1100, Y: 900})
	s.putToken("tok-outside", geometry.Point{X: 2000, Y: 2000})

	src := s.placeFixedArea()

	stored, err := s.areaRepo.Get(s.ctx, src.ID)
	s.Require().NoError(err)
	s.True(stored.ContainsToken("tok-inside"))
	s.False(stored.ContainsToken("tok-outside"))
	s.Empty(s.dispatcher.calls, "pre-existing occupants never fire enter triggers")
}

func (s *ContainmentTestSuite) TestPlaceAreaValidation() {
	err := s.svc.PlaceArea(s.ctx, &area.Source{SceneID: "scene-1", Kind: area.KindFixed})
	s.Error(err, "fixed area without a shape")

	err = s.svc.PlaceArea(s.ctx, &area.Source{SceneID: "scene-1", Kind: area.KindMobile, Radius: 15})
	s.Error(err, "mobile area without a bearer")

	err = s.svc.PlaceArea(s.ctx, &area.Source{SceneID: "scene-1", Kind: area.KindMobile, BearerID: "b"})
	s.Error(err, "mobile area without a radius")
}

func (s *ContainmentTestSuite) TestMoveTokenTransitions() {
	s.putToken("tok-1", geometry.Point{X: 2000, Y: 2000})
	src := s.placeFixedArea()

	// Outside -> inside: exactly one enter
	s.Require().NoError(s.svc.MoveToken(s.ctx, "tok-1", geometry.Point{X: 1050, Y: 1050}))
	s.Require().Len(s.dispatcher.calls, 1)
	s.Equal(dispatchCall{AreaID: src.ID, TokenID: "tok-1", Kind: area.TriggerEnter}, s.dispatcher.calls[0])

	stored, err := s.areaRepo.Get(s.ctx, src.ID)
	s.Require().NoError(err)
	s.True(stored.ContainsToken("tok-1"), "containment set is persisted")

	// Inside -> inside: no trigger
	s.dispatcher.reset()
	s.Require().NoError(s.svc.MoveToken(s.ctx, "tok-1", geometry.Point{X: 900, Y: 950}))
	s.Empty(s.dispatcher.calls)

	// Inside -> outside: exactly one leave
	s.Require().NoError(s.svc.MoveToken(s.ctx, "tok-1", geometry.Point{X: 100, Y: 100}))
	s.Require().Len(s.dispatcher.calls, 1)
	s.Equal(area.TriggerLeave, s.dispatcher.calls[0].Kind)

	stored, err = s.areaRepo.Get(s.ctx, src.ID)
	s.Require().NoError(err)
	s.False(stored.ContainsToken("tok-1"))
}

func (s *ContainmentTestSuite) TestBearerMoveDragsAura() {
	// Bearer with a 30-unit aura (600 world units); token B sits 700wu from
	// the bearer's destination start point, inside range only after the move.
	s.putToken("tok-bearer", geometry.Point{X: 0, Y: 0})
	s.putToken("tok-b", geometry.Point{X: 1000, Y: 0})

	src := &area.Source{
		ID:       "aura-1",
		SceneID:  "scene-1",
		Name:     "Spirit Guardians",
		Kind:     area.KindMobile,
		BearerID: "tok-bearer",
		Radius:   30,
		Config: area.EffectConfig{
			Enabled:  true,
			Triggers: area.TriggerSet{OnEnter: true, OnLeave: true},
		},
	}
	s.Require().NoError(s.svc.PlaceArea(s.ctx, src))
	s.Empty(s.dispatcher.calls)

	// Bearer steps toward B: B is now 400wu away, one enter for B, none for
	// the bearer itself
	s.Require().NoError(s.svc.MoveToken(s.ctx, "tok-bearer", geometry.Point{X: 600, Y: 0}))
	s.Require().Len(s.dispatcher.calls, 1)
	s.Equal(dispatchCall{AreaID: "aura-1", TokenID: "tok-b", Kind: area.TriggerEnter}, s.dispatcher.calls[0])

	// Bearer steps away again: one leave for B
	s.dispatcher.reset()
	s.Require().NoError(s.svc.MoveToken(s.ctx, "tok-bearer", geometry.Point{X: 0, Y: 0}))
	s.Require().Len(s.dispatcher.calls, 1)
	s.Equal(dispatchCall{AreaID: "aura-1", TokenID: "tok-b", Kind: area.TriggerLeave}, s.dispatcher.calls[0])
}

func (s *ContainmentTestSuite) TestMobileAreaWithMissingBearerIsDormant() {
	s.putToken("tok-1", geometry.Point{X: 10, Y: 0})

	src := &area.Source{
		ID: "aura-1", SceneID: "scene-1", Kind: area.KindMobile,
		BearerID: "tok-gone", Radius: 30,
		Config: area.EffectConfig{Enabled: true, Triggers: area.TriggerSet{OnEnter: true}},
	}
	s.Require().NoError(s.svc.PlaceArea(s.ctx, src))

	s.Require().NoError(s.svc.MoveToken(s.ctx, "tok-1", geometry.Point{X: 0, Y: 0}))
	s.Empty(s.dispatcher.calls, "area without a bearer contains nothing")
}

func (s *ContainmentTestSuite) TestVisibilityGateWithLightFallback() {
	s.putToken("tok-bearer", geometry.Point{X: 0, Y: 0})
	s.putToken("tok-1", geometry.Point{X: 2000, Y: 0})

	// Wall between bearer and the approach path
	*s.walls = geometry.Walls{
		{A: geometry.Point{X: 300, Y: -500}, B: geometry.Point{X: 300, Y: 500}},
	}

	src := &area.Source{
		ID: "aura-1", SceneID: "scene-1", Kind: area.KindMobile,
		BearerID: "tok-bearer", Radius: 30,
		Config: area.EffectConfig{
			Enabled:            true,
			Triggers:           area.TriggerSet{OnEnter: true},
			RequiresVisibility: true,
		},
	}
	s.Require().NoError(s.svc.PlaceArea(s.ctx, src))

	// In range but occluded: not contained
	s.Require().NoError(s.svc.MoveToken(s.ctx, "tok-1", geometry.Point{X: 500, Y: 0}))
	s.Empty(s.dispatcher.calls)

	// Same geometry with the bearer's light reaching past the wall: the
	// illumination fallback treats the point as visible
	s.Require().NoError(s.svc.DestroyArea(s.ctx, "aura-1"))
	src2 := &area.Source{
		ID: "aura-2", SceneID: "scene-1", Kind: area.KindMobile,
		BearerID: "tok-bearer", Radius: 30, LightRadius: 30,
		Config: area.EffectConfig{
			Enabled:            true,
			Triggers:           area.TriggerSet{OnEnter: true},
			RequiresVisibility: true,
		},
	}
	s.Require().NoError(s.svc.PlaceArea(s.ctx, src2))

	stored, err := s.areaRepo.Get(s.ctx, "aura-2")
	s.Require().NoError(err)
	s.True(stored.ContainsToken("tok-1"))
}

func (s *ContainmentTestSuite) TestDestroyAreaFiresLeavesAndRevokesGrants() {
	s.putToken("tok-a", geometry.Point{X: 1000, Y: 1000})
	s.putToken("tok-b", geometry.Point{X: 1100, Y: 1100})
	src := s.placeFixedArea()

	s.Require().NoError(s.actorRepo.AddGrant(s.ctx, &scene.Grant{
		ID: "g-1", ActorID: "actor-tok-a", Reference: "burning", OriginAreaID: src.ID,
	}))
	s.Require().NoError(s.actorRepo.AddGrant(s.ctx, &scene.Grant{
		ID: "g-2", ActorID: "actor-tok-b", Reference: "burning", OriginAreaID: src.ID,
	}))

	s.Require().NoError(s.svc.DestroyArea(s.ctx, src.ID))

	s.Require().Len(s.dispatcher.calls, 2)
	for _, call := range s.dispatcher.calls {
		s.Equal(area.TriggerLeave, call.Kind)
	}

	grants, err := s.actorRepo.ListGrants(s.ctx, "actor-tok-a")
	s.Require().NoError(err)
	s.Empty(grants, "origin-tagged grants are revoked with the area")

	// Destroying a missing area is a no-op
	s.dispatcher.reset()
	s.Require().NoError(s.svc.DestroyArea(s.ctx, src.ID))
	s.Empty(s.dispatcher.calls)
}

func (s *ContainmentTestSuite) TestRemoveTokenFiresLeave() {
	s.putToken("tok-a", geometry.Point{X: 1000, Y: 1000})
	src := s.placeFixedArea()

	s.Require().NoError(s.svc.RemoveToken(s.ctx, "tok-a"))

	s.Require().Len(s.dispatcher.calls, 1)
	s.Equal(dispatchCall{AreaID: src.ID, TokenID: "tok-a", Kind: area.TriggerLeave}, s.dispatcher.calls[0])

	stored, err := s.areaRepo.Get(s.ctx, src.ID)
	s.Require().NoError(err)
	s.False(stored.ContainsToken("tok-a"))
}

func (s *ContainmentTestSuite) TestSweepExpired() {
	s.putToken("tok-a", geometry.Point{X: 1000, Y: 1000})

	expiring := &area.Source{
		ID: "area-short", SceneID: "scene-1", Kind: area.KindFixed,
		Shape: squareShape(), Origin: geometry.Point{X: 1000, Y: 1000},
		CreatedRound: 1, DurationRounds: 2,
		Config: area.EffectConfig{Enabled: true, Triggers: area.TriggerSet{OnLeave: true}},
	}
	permanent := &area.Source{
		ID: "area-perm", SceneID: "scene-1", Kind: area.KindFixed,
		Shape: squareShape(), Origin: geometry.Point{X: 5000, Y: 5000},
	}
	s.Require().NoError(s.svc.PlaceArea(s.ctx, expiring))
	s.Require().NoError(s.svc.PlaceArea(s.ctx, permanent))

	// Round 2: still running
	n, err := s.svc.SweepExpired(s.ctx, "scene-1", 2)
	s.Require().NoError(err)
	s.Zero(n)

	// Round 3: duration elapsed, leave fires for the occupant
	n, err = s.svc.SweepExpired(s.ctx, "scene-1", 3)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Require().Len(s.dispatcher.calls, 1)
	s.Equal(dispatchCall{AreaID: "area-short", TokenID: "tok-a", Kind: area.TriggerLeave}, s.dispatcher.calls[0])

	remaining, err := s.areaRepo.ListByScene(s.ctx, "scene-1")
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal("area-perm", remaining[0].ID)
}
