package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Config keeps service configuration read from a JSON file.
type Config struct {
	ListenAddr      string `json:"ListenAddr"`
	DataFile        string `json:"DataFile"`
	DBConnStr       string `json:"DBConnStr"`
	TgToken         string `json:"TgToken"`
	TgWebhookSecret string `json:"TgWebhookSecret"`
	AIGatewayURL    string `json:"AIGatewayURL"`
	AIAPIKey        string `json:"AIAPIKey"`
	AIModel         string `json:"AIModel"`
}

const (
	defaultListenAddr   = ":8080"
	defaultDataFile     = "zentask.json"
	defaultAIGatewayURL = "https://ai.gateway.lovable.dev/v1/chat/completions"
	defaultAIModel      = "google/gemini-3-flash-preview"
)

// requiredFields must be present in the config file; the rest have defaults
// or are optional. TgWebhookSecret is optional: when empty, webhook signature
// validation is disabled.
var requiredFields = []string{"TgToken", "DBConnStr", "AIAPIKey"}

// Read reads configuration from the given file.
func Read(cfgFile string) (*Config, error) {
	raw, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.New("couldn't unmarshal zentask configuration")
	}

	if err := validate(fields); err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.New("couldn't unmarshal zentask configuration")
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// validate makes sure that all required fields are present in the config
func validate(fields map[string]any) error {
	missingFields := []string{}
	for _, field := range requiredFields {
		v, ok := fields[field]
		if !ok {
			missingFields = append(missingFields, field)
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			missingFields = append(missingFields, field)
		}
	}

	if len(missingFields) > 0 {
		return errors.Errorf("configuration is missing field(s): %s", strings.Join(missingFields, ", "))
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.DataFile == "" {
		c.DataFile = defaultDataFile
	}
	if c.AIGatewayURL == "" {
		c.AIGatewayURL = defaultAIGatewayURL
	}
	if c.AIModel == "" {
		c.AIModel = defaultAIModel
	}
}
