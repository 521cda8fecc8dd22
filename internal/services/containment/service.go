package containment

//go:generate mockgen -destination=mock/mock_service.go -package=mockcontainment -source=service.go

import (
	"context"
	"log"
	"time"

	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/domain/scene"
	"github.com/vttforge/areatrigger/internal/errors"
	"github.com/vttforge/areatrigger/internal/events"
	"github.com/vttforge/areatrigger/internal/geometry"
	"github.com/vttforge/areatrigger/internal/repositories/actors"
	"github.com/vttforge/areatrigger/internal/repositories/areas"
	"github.com/vttforge/areatrigger/internal/repositories/tokens"
	"github.com/vttforge/areatrigger/internal/uuid"
)

// TriggerDispatcher receives boundary crossing notifications. The engine
// implements this; containment only reports raw enter/leave transitions.
type TriggerDispatcher interface {
	DispatchTrigger(ctx context.Context, src *area.Source, targetTokenID string, kind area.TriggerKind) error
}

// Service tracks which tokens are inside which areas and detects boundary
// crossings as tokens and bearers move
type Service interface {
	// PlaceArea validates and stores a new area. Tokens already inside are
	// seeded into the containment set without firing enter triggers.
	PlaceArea(ctx context.Context, src *area.Source) error

	// DestroyArea fires a leave trigger for every contained token, revokes
	// the grants the area placed, and deletes it. Missing areas are a no-op.
	DestroyArea(ctx context.Context, areaID string) error

	// MoveToken updates a token position and fires enter/leave triggers for
	// every containment transition the move causes, including transitions
	// caused by a bearer dragging a mobile area across other tokens
	MoveToken(ctx context.Context, tokenID string, to geometry.Point) error

	// RemoveToken drops a token from the scene, firing leave triggers for
	// every area that contained it
	RemoveToken(ctx context.Context, tokenID string) error

	// SweepExpired destroys every area in the scene whose round duration has
	// run out, returning how many were destroyed
	SweepExpired(ctx context.Context, sceneID string, round int) (int, error)

	// SetDispatcher installs the trigger dispatcher. Wired after
	// construction because the engine both owns this service and receives
	// its notifications.
	SetDispatcher(d TriggerDispatcher)
}

type service struct {
	areaRepo      areas.Repository
	tokenRepo     tokens.Repository
	actorRepo     actors.Repository
	oracle        *geometry.Oracle
	dispatcher    TriggerDispatcher
	bus           *events.Bus
	uuidGenerator uuid.Generator
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	AreaRepository  areas.Repository
	TokenRepository tokens.Repository
	ActorRepository actors.Repository
	Oracle          *geometry.Oracle
	Dispatcher      TriggerDispatcher
	EventBus        *events.Bus
	UUIDGenerator   uuid.Generator
}

// NewService creates a new containment service
func NewService(cfg *ServiceConfig) Service {
	if cfg.AreaRepository == nil {
		panic("area repository is required")
	}
	if cfg.TokenRepository == nil {
		panic("token repository is required")
	}
	if cfg.ActorRepository == nil {
		panic("actor repository is required")
	}
	if cfg.Oracle == nil {
		panic("geometry oracle is required")
	}

	svc := &service{
		areaRepo:   cfg.AreaRepository,
		tokenRepo:  cfg.TokenRepository,
		actorRepo:  cfg.ActorRepository,
		oracle:     cfg.Oracle,
		dispatcher: cfg.Dispatcher,
		bus:        cfg.EventBus,
	}

	if cfg.UUIDGenerator != nil {
		svc.uuidGenerator = cfg.UUIDGenerator
	} else {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}

	return svc
}

func (s *service) SetDispatcher(d TriggerDispatcher) {
	s.dispatcher = d
}

func (s *service) PlaceArea(ctx context.Context, src *area.Source) error {
	if src == nil {
		return errors.InvalidArgument("area cannot be nil")
	}
	if src.SceneID == "" {
		return errors.InvalidArgument("area scene ID cannot be empty")
	}

	switch src.Kind {
	case area.KindFixed:
		if src.Shape == nil || len(src.Shape.Points) < 3 {
			return errors.InvalidArgument("fixed area needs a polygon with at least 3 points")
		}
	case area.KindMobile:
		if src.BearerID == "" {
			return errors.InvalidArgument("mobile area needs a bearer token ID")
		}
		if src.Radius <= 0 {
			return errors.InvalidArgument("mobile area needs a positive radius")
		}
	default:
		return errors.InvalidArgumentf("unknown area kind: %s", src.Kind)
	}

	if src.ID == "" {
		src.ID = s.uuidGenerator.New()
	}
	if src.CreatedAt.IsZero() {
		src.CreatedAt = time.Now().UTC()
	}

	// Seed occupants silently. A token that was already standing in the
	// region when it appears is contained but did not cross the boundary,
	// so no enter trigger fires.
	sceneTokens, err := s.tokenRepo.ListByScene(ctx, src.SceneID)
	if err != nil {
		return errors.Wrapf(err, "failed to list tokens for scene %s", src.SceneID)
	}

	bearerPos := s.bearerPosition(src, sceneTokens)
	src.ContainedTokens = nil
	for _, tok := range sceneTokens {
		if s.containsPoint(src, bearerPos, tok.Position) {
			src.AddToken(tok.ID)
		}
	}

	if err := s.areaRepo.Create(ctx, src); err != nil {
		return err
	}

	s.emit(&events.Event{
		Type:    events.EventTypeAreaPlaced,
		AreaID:  src.ID,
		SceneID: src.SceneID,
	})
	return nil
}

func (s *service) DestroyArea(ctx context.Context, areaID string) error {
	src, err := s.areaRepo.Get(ctx, areaID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}

	// Leave triggers fire for every contained token before the area and its
	// grants disappear, so leave-configured cleanup effects still run.
	for _, tokenID := range src.ContainedTokens {
		s.dispatch(ctx, src, tokenID, area.TriggerLeave)
	}

	removed, err := s.actorRepo.RemoveGrantsByOrigin(ctx, areaID)
	if err != nil {
		return errors.Wrapf(err, "failed to revoke grants for area %s", areaID)
	}
	if len(removed) > 0 {
		log.Printf("Containment: revoked %d grant(s) from destroyed area %s", len(removed), areaID)
	}

	if err := s.areaRepo.Delete(ctx, areaID); err != nil {
		return err
	}

	s.emit(&events.Event{
		Type:    events.EventTypeAreaDestroyed,
		AreaID:  areaID,
		SceneID: src.SceneID,
	})
	return nil
}

func (s *service) MoveToken(ctx context.Context, tokenID string, to geometry.Point) error {
	token, err := s.tokenRepo.Get(ctx, tokenID)
	if err != nil {
		return errors.Wrapf(err, "failed to get token %s", tokenID)
	}

	token.Position = to
	if err := s.tokenRepo.Put(ctx, token); err != nil {
		return errors.Wrapf(err, "failed to move token %s", tokenID)
	}

	sceneAreas, err := s.areaRepo.ListByScene(ctx, token.SceneID)
	if err != nil {
		return errors.Wrapf(err, "failed to list areas for scene %s", token.SceneID)
	}

	for _, src := range sceneAreas {
		if src.Kind == area.KindMobile && src.BearerID == tokenID {
			if err := s.diffBearerMove(ctx, src, token, to); err != nil {
				return err
			}
			continue
		}
		if err := s.diffToken(ctx, src, token, to); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) RemoveToken(ctx context.Context, tokenID string) error {
	token, err := s.tokenRepo.Get(ctx, tokenID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}

	sceneAreas, err := s.areaRepo.ListByScene(ctx, token.SceneID)
	if err != nil {
		return errors.Wrapf(err, "failed to list areas for scene %s", token.SceneID)
	}

	for _, src := range sceneAreas {
		if !src.RemoveToken(tokenID) {
			continue
		}
		if err := s.areaRepo.Update(ctx, src); err != nil {
			return err
		}
		s.dispatch(ctx, src, tokenID, area.TriggerLeave)
	}

	return s.tokenRepo.Delete(ctx, tokenID)
}

func (s *service) SweepExpired(ctx context.Context, sceneID string, round int) (int, error) {
	sceneAreas, err := s.areaRepo.ListByScene(ctx, sceneID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to list areas for scene %s", sceneID)
	}

	destroyed := 0
	for _, src := range sceneAreas {
		if !src.ExpiredAt(round) {
			continue
		}
		if err := s.DestroyArea(ctx, src.ID); err != nil {
			return destroyed, err
		}
		log.Printf("Containment: area %s (%s) expired at round %d", src.ID, src.Name, round)
		destroyed++
	}
	return destroyed, nil
}

// diffToken re-evaluates one token against one area and fires the transition
// trigger if the answer changed
func (s *service) diffToken(ctx context.Context, src *area.Source, token *scene.Token, at geometry.Point) error {
	bearerPos, err := s.lookupBearer(ctx, src)
	if err != nil {
		return err
	}

	wasIn := src.ContainsToken(token.ID)
	nowIn := s.containsPoint(src, bearerPos, at)
	if wasIn == nowIn {
		return nil
	}

	if nowIn {
		src.AddToken(token.ID)
	} else {
		src.RemoveToken(token.ID)
	}
	if err := s.areaRepo.Update(ctx, src); err != nil {
		return err
	}

	kind := area.TriggerLeave
	if nowIn {
		kind = area.TriggerEnter
	}
	s.dispatch(ctx, src, token.ID, kind)
	return nil
}

// diffBearerMove handles a bearer dragging its mobile area: every other token
// in the scene is re-evaluated against the new bearer position. The bearer
// itself is trivially contained at distance zero and never transitions.
func (s *service) diffBearerMove(ctx context.Context, src *area.Source, bearer *scene.Token, to geometry.Point) error {
	sceneTokens, err := s.tokenRepo.ListByScene(ctx, src.SceneID)
	if err != nil {
		return errors.Wrapf(err, "failed to list tokens for scene %s", src.SceneID)
	}

	type transition struct {
		tokenID string
		kind    area.TriggerKind
	}
	var transitions []transition

	for _, tok := range sceneTokens {
		if tok.ID == bearer.ID {
			continue
		}
		wasIn := src.ContainsToken(tok.ID)
		nowIn := s.containsPoint(src, &to, tok.Position)
		if wasIn == nowIn {
			continue
		}
		if nowIn {
			src.AddToken(tok.ID)
			transitions = append(transitions, transition{tok.ID, area.TriggerEnter})
		} else {
			src.RemoveToken(tok.ID)
			transitions = append(transitions, transition{tok.ID, area.TriggerLeave})
		}
	}

	if len(transitions) == 0 {
		return nil
	}
	if err := s.areaRepo.Update(ctx, src); err != nil {
		return err
	}
	for _, tr := range transitions {
		s.dispatch(ctx, src, tr.tokenID, tr.kind)
	}
	return nil
}

// containsPoint answers the containment question for one point. A mobile
// area whose bearer is missing is dormant and contains nothing.
func (s *service) containsPoint(src *area.Source, bearerPos *geometry.Point, p geometry.Point) bool {
	switch src.Kind {
	case area.KindFixed:
		if src.Shape == nil {
			return false
		}
		return s.oracle.ContainsFixed(*src.Shape, src.Origin, p)
	case area.KindMobile:
		if bearerPos == nil {
			return false
		}
		if !s.oracle.ContainsMobile(*bearerPos, src.Radius, p, false) {
			return false
		}
		if !src.Config.RequiresVisibility {
			return true
		}
		if s.oracle.HasLineOfSight(*bearerPos, p) {
			return true
		}
		// Illumination fallback: a point inside the bearer's own light is
		// treated as visible even when the sight ray is blocked
		return s.oracle.WithinLight(*bearerPos, src.LightRadius, p)
	}
	return false
}

func (s *service) lookupBearer(ctx context.Context, src *area.Source) (*geometry.Point, error) {
	if src.Kind != area.KindMobile {
		return nil, nil
	}
	bearer, err := s.tokenRepo.Get(ctx, src.BearerID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil // dormant area
		}
		return nil, errors.Wrapf(err, "failed to get bearer %s for area %s", src.BearerID, src.ID)
	}
	return &bearer.Position, nil
}

func (s *service) bearerPosition(src *area.Source, sceneTokens []*scene.Token) *geometry.Point {
	if src.Kind != area.KindMobile {
		return nil
	}
	for _, tok := range sceneTokens {
		if tok.ID == src.BearerID {
			return &tok.Position
		}
	}
	return nil
}

// dispatch forwards a transition to the engine. Dispatch failures are logged
// and never unwind containment state, which is already persisted.
func (s *service) dispatch(ctx context.Context, src *area.Source, tokenID string, kind area.TriggerKind) {
	s.emit(&events.Event{
		Type:    transitionEventType(kind),
		AreaID:  src.ID,
		TokenID: tokenID,
		SceneID: src.SceneID,
	})

	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.DispatchTrigger(ctx, src, tokenID, kind); err != nil {
		log.Printf("Containment: dispatch %s for token %s in area %s failed: %v", kind, tokenID, src.ID, err)
	}
}

func (s *service) emit(event *events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(event)
}

func transitionEventType(kind area.TriggerKind) events.EventType {
	if kind == area.TriggerEnter {
		return events.EventTypeTokenEntered
	}
	return events.EventTypeTokenLeft
}
