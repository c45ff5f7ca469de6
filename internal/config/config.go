// Package config reads function settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings shared by the studio functions
type Config struct {
	Region            string
	TableName         string
	IndexName         string
	QueueURL          string
	StateMachineARN   string
	CreateUserEmailer string
	ContactEmailer    string
	RelayURL          string
	RelayUser         string
	RelayPass         string
	MailFrom          string
	ContactInbox      string
	SiteURL           string
	TokenTTL          time.Duration
	AdminGroup        string
	LogLevel          string
}

// Load reads configuration, loading a local .env file first when one exists
func Load() (*Config, error) {

	// .env is only present in local runs
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %v", err)
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %v", err)
	}

	return &Config{
		Region:            getEnv("AWS_REGION", "us-east-1"),
		TableName:         os.Getenv("TABLE_NAME"),
		IndexName:         getEnv("INDEX_NAME", "GSI1"),
		QueueURL:          os.Getenv("QUEUE_URL"),
		StateMachineARN:   os.Getenv("STATE_MACHINE_ARN"),
		CreateUserEmailer: os.Getenv("CREATE_USER_EMAILER"),
		ContactEmailer:    os.Getenv("CONTACT_EMAILER"),
		RelayURL:          os.Getenv("MAIL_RELAY_URL"),
		RelayUser:         os.Getenv("RELAY_USER"),
		RelayPass:         os.Getenv("RELAY_PASS"),
		MailFrom:          getEnv("MAIL_FROM", "no-reply@localhost"),
		ContactInbox:      os.Getenv("CONTACT_INBOX"),
		SiteURL:           strings.TrimRight(os.Getenv("SITE_URL"), "/"),
		TokenTTL:          ttl,
		AdminGroup:        getEnv("ADMIN_GROUP", "ADMINS"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Require checks that the named environment variables were set
func (c *Config) Require(keys ...string) error {

	values := map[string]string{
		"TABLE_NAME":          c.TableName,
		"QUEUE_URL":           c.QueueURL,
		"STATE_MACHINE_ARN":   c.StateMachineARN,
		"CREATE_USER_EMAILER": c.CreateUserEmailer,
		"CONTACT_EMAILER":     c.ContactEmailer,
		"MAIL_RELAY_URL":      c.RelayURL,
		"CONTACT_INBOX":       c.ContactInbox,
		"SITE_URL":            c.SiteURL,
	}

	var missing []string
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			return fmt.Errorf("unknown setting: %v", k)
		}
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variable: %v", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
