package config

import (
	"os"

	"github.com/caarlos0/env"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	tuning, err := LoadTuning()
	if err != nil {
		log.Fatalf("Error: invalid tuning configuration: %s", err)
	}

	cfg := Config{
		DBName: getEnv("DB_NAME"),
		Slack: SlackConfig{
			Token:         getEnv("SLACK_BOT_TOKEN"),
			SigningSecret: getEnv("SLACK_SIGNING_SECRET"),
		},
		Port: getEnv("PORT"),
		Turso: TursoConfig{
			PrimaryURL: getEnv("TURSO_PRIMARY_URL"),
			AuthToken:  getEnv("TURSO_AUTH_TOKEN"),
		},
		Inngest: InngestConfig{
			AppID:      getEnv("INNGEST_APP_ID"),
			SigningKey: getEnv("INNGEST_SIGNING_KEY"),
			EventKey:   getEnv("INNGEST_EVENT_KEY"),
			Dev:        os.Getenv("INNGEST_DEV") == "1",
		},
		// Without a project events stay in-process.
		ProjectID: os.Getenv("GCP_PROJECT"),
		APIToken:  getEnv("API_TOKEN"),
		Tuning:    tuning,
	}
	return cfg
}

// LoadTuning reads the balancer tuning, seed and admin list from the environment.
func LoadTuning() (TuningConfig, error) {
	var tuning TuningConfig
	if err := env.Parse(&tuning); err != nil {
		return TuningConfig{}, err
	}
	if err := env.Parse(&tuning.Balance); err != nil {
		return TuningConfig{}, err
	}
	return tuning, nil
}
