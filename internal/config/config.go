package config

import (
	"fmt"
)

type Config struct {
	Env                        string
	SourceLanguage             string
	TargetLanguages            []string
	MediaEndpoint              string
	DatabaseURL                string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	DiscordToken               string
	ChatChannelID              string
	MetadataEndpoint           string
	MetricsListenAddr          string
	JobPollIntervalSec         int
	JobLeaseSec                int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.JobPollIntervalSec <= 0 {
		return fmt.Errorf("JOB_POLL_INTERVAL_SEC must be positive, got %d", c.JobPollIntervalSec)
	}
	if c.JobLeaseSec <= 0 {
		return fmt.Errorf("JOB_LEASE_SEC must be positive, got %d", c.JobLeaseSec)
	}
	return nil
}

// ValidateSingleJob checks the extra fields the env-driven deployment needs,
// where job parameters come from the process environment instead of a queued
// message.
func (c *Config) ValidateSingleJob() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.MediaEndpoint == "" {
		return fmt.Errorf("MEDIA_ENDPOINT is required")
	}
	if c.ChatChannelID == "" {
		return fmt.Errorf("CHAT_CHANNEL_ID is required")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "SOURCE_LANGUAGE", value: c.SourceLanguage},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
		{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
