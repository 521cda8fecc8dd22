package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/vttforge/areatrigger/internal/adapters/discordlog"
	"github.com/vttforge/areatrigger/internal/config"
	"github.com/vttforge/areatrigger/internal/services"
	"github.com/vttforge/areatrigger/internal/services/delivery"
	"github.com/vttforge/areatrigger/internal/services/sequencer"
)

func main() {
	scenarioPath := flag.String("scenario", "scenario.yaml", "path to the scenario file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	scenario, err := config.LoadScenario(*scenarioPath)
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}
	log.Printf("Loaded scenario for scene %s: %d tokens, %d areas, %d steps",
		scenario.Scene, len(scenario.Tokens), len(scenario.Areas), len(scenario.Steps))

	providerConfig := &services.ProviderConfig{
		Blocker:       scenario.GeometryWalls(),
		Grid:          scenario.GeometryGrid(),
		Authoritative: true,
		DeliveryMode:  delivery.ParseMode(cfg.Delivery.Mode),
	}

	var redisClient *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			log.Printf("Failed to parse Redis URL: %v, using in-memory repositories", parseErr)
		} else {
			redisClient = redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			pingErr := redisClient.Ping(ctx).Err()
			cancel()
			if pingErr != nil {
				log.Printf("Failed to connect to Redis: %v, using in-memory repositories", pingErr)
				redisClient = nil
			} else {
				log.Println("Using Redis for persistence")
				providerConfig.RedisClient = redisClient
			}
		}
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	if cfg.Discord.Token != "" && cfg.Discord.ChannelID != "" {
		session, sessionErr := discordgo.New("Bot " + cfg.Discord.Token)
		if sessionErr != nil {
			log.Fatalf("Failed to create Discord session: %v", sessionErr)
		}
		if openErr := session.Open(); openErr != nil {
			log.Fatalf("Failed to open Discord connection: %v", openErr)
		}
		defer func() { _ = session.Close() }()

		providerConfig.Notifier = discordlog.NewNotifier(&discordlog.NotifierConfig{
			Session:   session,
			ChannelID: cfg.Discord.ChannelID,
		})
		log.Printf("Posting to Discord channel %s", cfg.Discord.ChannelID)
	}

	provider := services.NewProvider(providerConfig)

	ctx := context.Background()
	if err := seed(ctx, provider, scenario); err != nil {
		log.Fatalf("Failed to seed scenario: %v", err)
	}

	if err := run(ctx, provider, scenario); err != nil {
		log.Fatalf("Scenario failed: %v", err)
	}
	log.Println("Scenario complete")
}

func seed(ctx context.Context, provider *services.Provider, scenario *config.Scenario) error {
	for _, t := range scenario.Tokens {
		if err := provider.ActorRepository.PutActor(ctx, t.Actor()); err != nil {
			return err
		}
		if err := provider.TokenRepository.Put(ctx, t.Token(scenario.Scene)); err != nil {
			return err
		}
	}

	for _, a := range scenario.Areas {
		src, err := a.Source(scenario.Scene)
		if err != nil {
			return err
		}
		if err := provider.ContainmentService.PlaceArea(ctx, src); err != nil {
			return err
		}
		log.Printf("Placed area %s (%s)", src.ID, src.Name)
	}
	return nil
}

func run(ctx context.Context, provider *services.Provider, scenario *config.Scenario) error {
	for i, step := range scenario.Steps {
		switch {
		case step.Move != nil:
			log.Printf("Step %d: move %s to (%.0f, %.0f)",
				i+1, step.Move.Token, step.Move.To.X, step.Move.To.Y)
			if err := provider.ContainmentService.MoveToken(ctx, step.Move.Token, step.Move.To.Point()); err != nil {
				return err
			}
		case step.Turn != nil:
			log.Printf("Step %d: round %d turn %d", i+1, step.Turn.Round, step.Turn.Turn)
			ptr := &sequencer.TurnPointer{
				SceneID: scenario.Scene,
				Round:   step.Turn.Round,
				Turn:    step.Turn.Turn,
				Order:   step.Turn.Order,
			}
			if err := provider.SequencerService.Advance(ctx, ptr); err != nil {
				return err
			}
		case step.Destroy != "":
			log.Printf("Step %d: destroy area %s", i+1, step.Destroy)
			if err := provider.ContainmentService.DestroyArea(ctx, step.Destroy); err != nil {
				return err
			}
		default:
			log.Printf("Step %d: empty step skipped", i+1)
		}
	}
	return nil
}
