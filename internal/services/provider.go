package services

import (
	"github.com/redis/go-redis/v9"

	"github.com/vttforge/areatrigger/internal/adapters/discordlog"
	"github.com/vttforge/areatrigger/internal/dedup"
	"github.com/vttforge/areatrigger/internal/dice"
	"github.com/vttforge/areatrigger/internal/events"
	"github.com/vttforge/areatrigger/internal/geometry"
	"github.com/vttforge/areatrigger/internal/repositories/actors"
	"github.com/vttforge/areatrigger/internal/repositories/areas"
	"github.com/vttforge/areatrigger/internal/repositories/tokens"
	"github.com/vttforge/areatrigger/internal/services/authority"
	"github.com/vttforge/areatrigger/internal/services/containment"
	"github.com/vttforge/areatrigger/internal/services/delivery"
	"github.com/vttforge/areatrigger/internal/services/engine"
	"github.com/vttforge/areatrigger/internal/services/resolution"
	"github.com/vttforge/areatrigger/internal/services/sequencer"
)

// Provider holds all service instances wired together. Detection
// (containment and sequencer) only runs when the session is authoritative;
// non-authoritative sessions get a forwarding gateway and delivery only.
type Provider struct {
	AreaRepository     areas.Repository
	TokenRepository    tokens.Repository
	ActorRepository    actors.Repository
	EventBus           *events.Bus
	Memo               *dedup.Memo
	ResolutionService  resolution.Service
	Gateway            authority.Gateway
	DeliveryService    delivery.Service
	Engine             engine.Service
	ContainmentService containment.Service
	SequencerService   sequencer.Service
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	// RedisClient selects Redis-backed repositories; nil falls back to the
	// in-memory implementations
	RedisClient redis.UniversalClient

	// Blocker is the host's sight geometry; nil disables occlusion
	Blocker geometry.SightBlocker
	Grid    geometry.Grid

	// Authoritative selects local execution; false requires Remote
	Authoritative bool
	Remote        authority.RemoteChannel

	DeliveryMode delivery.Mode

	// Notifier for summaries and prompts; nil falls back to the log notifier
	Notifier delivery.Notifier

	// Roller and MacroRunner are optional and default inside the
	// resolution service
	Roller      dice.Roller
	MacroRunner resolution.MacroRunner
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	var (
		areaRepo  areas.Repository
		tokenRepo tokens.Repository
		actorRepo actors.Repository
	)
	if cfg.RedisClient != nil {
		areaRepo = areas.NewRedisRepository(&areas.RedisRepoConfig{Client: cfg.RedisClient})
		tokenRepo = tokens.NewRedisRepository(&tokens.RedisRepoConfig{Client: cfg.RedisClient})
		actorRepo = actors.NewRedisRepository(&actors.RedisRepoConfig{Client: cfg.RedisClient})
	} else {
		areaRepo = areas.NewInMemoryRepository()
		tokenRepo = tokens.NewInMemoryRepository()
		actorRepo = actors.NewInMemoryRepository()
	}

	bus := events.NewBus()
	memo := dedup.NewMemo()

	var resolutionService resolution.Service
	if cfg.Authoritative {
		resolutionService = resolution.NewService(&resolution.ServiceConfig{
			TokenRepository: tokenRepo,
			ActorRepository: actorRepo,
			Roller:          cfg.Roller,
			MacroRunner:     cfg.MacroRunner,
		})
	}

	gateway := authority.NewGateway(&authority.GatewayConfig{
		Authoritative:     cfg.Authoritative,
		ResolutionService: resolutionService,
		Remote:            cfg.Remote,
	})

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = discordlog.NewLogNotifier(nil)
	}

	deliveryService := delivery.NewService(&delivery.ServiceConfig{
		Mode:     cfg.DeliveryMode,
		Gateway:  gateway,
		Notifier: notifier,
	})

	provider := &Provider{
		AreaRepository:    areaRepo,
		TokenRepository:   tokenRepo,
		ActorRepository:   actorRepo,
		EventBus:          bus,
		Memo:              memo,
		ResolutionService: resolutionService,
		Gateway:           gateway,
		DeliveryService:   deliveryService,
	}

	// Detection only runs where execution is local; a non-authoritative
	// session observing moves would double-fire against the authority
	if !cfg.Authoritative {
		return provider
	}

	eng := engine.NewService(&engine.ServiceConfig{
		Memo:            memo,
		DeliveryService: deliveryService,
		EventBus:        bus,
	})
	provider.Engine = eng

	oracle := geometry.NewOracle(&geometry.OracleConfig{
		Blocker: cfg.Blocker,
		Grid:    cfg.Grid,
	})

	containmentService := containment.NewService(&containment.ServiceConfig{
		AreaRepository:  areaRepo,
		TokenRepository: tokenRepo,
		ActorRepository: actorRepo,
		Oracle:          oracle,
		Dispatcher:      eng,
		EventBus:        bus,
	})
	provider.ContainmentService = containmentService

	provider.SequencerService = sequencer.NewService(&sequencer.ServiceConfig{
		AreaRepository:     areaRepo,
		ContainmentService: containmentService,
		Memo:               memo,
		Dispatcher:         eng,
		EventBus:           bus,
	})

	return provider
}
