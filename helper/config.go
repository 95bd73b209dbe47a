package helper

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/siherrmann/taskrag/model"
	"gopkg.in/yaml.v3"
)

// LoadEnv loads the given .env files (or ./.env) into the process environment.
// Missing files are ignored; variables already set are not overridden.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return NewError("load env file "+f, err)
		}
	}
	return nil
}

// LoadConfig reads a YAML configuration file on top of model.DefaultConfig.
// An empty path or a missing file returns the validated defaults.
func LoadConfig(path string) (*model.Config, error) {
	config := model.DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path is given by the operator
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, NewError("read config", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, NewError("parse config", fmt.Errorf("%w: %w", model.ErrConfiguration, err))
			}
		}
	}

	if err := config.Validate(); err != nil {
		return nil, NewError("validate config", err)
	}

	return config, nil
}

// APIKey returns the value of the environment variable named by the provider config.
func APIKey(provider model.ProviderConfig) string {
	if provider.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(provider.APIKeyEnv)
}
