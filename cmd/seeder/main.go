package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/database"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/caarlos0/env"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// seedConfig is read from the environment. Without TURSO_PRIMARY_URL the
// seeder writes to the local sqlite file DB_NAME.
type seedConfig struct {
	DBName     string `env:"DB_NAME" envDefault:"football.db"`
	PrimaryURL string `env:"TURSO_PRIMARY_URL"`
	AuthToken  string `env:"TURSO_AUTH_TOKEN"`
	Channel    string `env:"SEED_CHANNEL,required"`
	Thread     string `env:"SEED_THREAD"`
	Players    int    `env:"SEED_PLAYERS" envDefault:"14"`
	Matches    int    `env:"SEED_MATCHES" envDefault:"10"`
	Seed       int64  `env:"SEED_RANDOM" envDefault:"1"`
}

func loadConfig() seedConfig {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	var cfg seedConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Error: %s", err)
	}
	return cfg
}

var positions = []roster.Position{roster.Goalkeeper, roster.Defender, roster.Attacker, roster.Attacker, roster.Defender, roster.Attacker, roster.Goalkeeper}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(cfg.Seed))
	key := chat.NewKey(cfg.Channel, cfg.Thread)

	db, teardown, err := database.InitDB(cfg.DBName, cfg.PrimaryURL, cfg.AuthToken)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	players := roster.New(db)
	matches := results.New(db)

	var ids []int64
	for i := 1; i <= cfg.Players; i++ {
		p, err := players.EnsurePlayer(ctx, fmt.Sprintf("seed-%d", i), fmt.Sprintf("Seeder Player %d", i))
		if err != nil {
			log.Fatalf("Failed to create player %d: %s", i, err)
		}
		profile := roster.DefaultProfile(p.ID, key)
		profile.Attack = 30 + rng.Intn(60)
		profile.Defense = 30 + rng.Intn(60)
		profile.Speed = 30 + rng.Intn(60)
		profile.Goalkeeping = 10 + rng.Intn(80)
		if err := players.UpsertProfile(ctx, profile); err != nil {
			log.Fatalf("Failed to store profile of player %d: %s", i, err)
		}
		if err := players.UpsertRegistration(ctx, p.ID, key, positions[i%len(positions)], roster.StatusActive); err != nil {
			log.Fatalf("Failed to register player %d: %s", i, err)
		}
		ids = append(ids, p.ID)
	}
	log.Info("Ensured players are registered", "chat", key, "players", len(ids))

	startTime := time.Now()
	for m := 0; m < cfg.Matches; m++ {
		playedAt := time.Now().AddDate(0, 0, -7*(cfg.Matches-m))
		g1, g2 := rng.Intn(6), rng.Intn(6)
		matchID, err := matches.CreateMatch(ctx, results.NewMatch{
			Key:      key,
			PlayedAt: playedAt,
			Score:    fmt.Sprintf("%d:%d", g1, g2),
		})
		if err != nil {
			log.Fatalf("Failed to create match: %s", err)
		}
		order := rng.Perm(len(ids))
		for i, idx := range order {
			team := "1"
			if i%2 == 1 {
				team = "2"
			}
			points := rng.Intn(4)
			if _, err := matches.UpsertHistory(ctx, matchID, ids[idx], results.Delta{Team: team, Points: &points}); err != nil {
				log.Fatalf("Failed to store match history: %s", err)
			}
		}
		log.Info("Inserted match", "match", matchID, "score", fmt.Sprintf("%d:%d", g1, g2), "completed", m+1, "total", cfg.Matches)
	}

	log.Info("Successfully seeded chat.", "chat", key, "duration", time.Since(startTime))
}
