package config

import "github.com/Valikazar/football-magager-bot/internal/balancer"

// Config holds all configuration for the application.
type Config struct {
	DBName    string
	Port      string
	Slack     SlackConfig
	Turso     TursoConfig
	Inngest   InngestConfig
	ProjectID string
	// APIToken guards the chat API used by the CLI and other operators.
	APIToken string
	Tuning   TuningConfig
}
type SlackConfig struct {
	Token         string
	SigningSecret string
}
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
type InngestConfig struct {
	AppID      string
	SigningKey string
	EventKey   string
	Dev        bool
}

// TuningConfig is the optional block read with caarlos0/env. Every field has a default.
type TuningConfig struct {
	Balance balancer.Params
	// Seed fixes the draw RNG. Zero seeds from the clock.
	Seed int64 `env:"BALANCE_SEED" envDefault:"0"`
	// AdminIDs are chat accounts that are admins of every chat.
	AdminIDs []string `env:"ADMIN_IDS" envSeparator:","`
}
