package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/jimakun/internal/config"
)

type envConfig struct {
	Env                        string   `env:"ENV" envDefault:"production"`
	SourceLanguage             string   `env:"SOURCE_LANGUAGE,required"`
	TargetLanguages            []string `env:"TARGET_LANGUAGES" envSeparator:","`
	MediaEndpoint              string   `env:"MEDIA_ENDPOINT"`
	DatabaseURL                string   `env:"DATABASE_URL,required"`
	GoogleCloudProjectID       string   `env:"GOOGLE_CLOUD_PROJECT_ID,required"`
	GoogleCloudCredentialsJSON string   `env:"GOOGLE_CLOUD_CREDENTIALS_JSON,required"`
	GoogleCloudSpeechLocation  string   `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string   `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"long"`
	DiscordToken               string   `env:"DISCORD_TOKEN,required"`
	ChatChannelID              string   `env:"CHAT_CHANNEL_ID"`
	MetadataEndpoint           string   `env:"METADATA_ENDPOINT"`
	MetricsListenAddr          string   `env:"METRICS_LISTEN_ADDR" envDefault:":9090"`
	JobPollIntervalSec         int      `env:"JOB_POLL_INTERVAL_SEC" envDefault:"5"`
	JobLeaseSec                int      `env:"JOB_LEASE_SEC" envDefault:"900"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		SourceLanguage:             raw.SourceLanguage,
		TargetLanguages:            raw.TargetLanguages,
		MediaEndpoint:              raw.MediaEndpoint,
		DatabaseURL:                raw.DatabaseURL,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		DiscordToken:               raw.DiscordToken,
		ChatChannelID:              raw.ChatChannelID,
		MetadataEndpoint:           raw.MetadataEndpoint,
		MetricsListenAddr:          raw.MetricsListenAddr,
		JobPollIntervalSec:         raw.JobPollIntervalSec,
		JobLeaseSec:                raw.JobLeaseSec,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
