package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// OAuthClientConfig represents the Google OAuth client configuration
type OAuthClientConfig struct {
	Installed OAuthInstalled `json:"installed" validate:"required"`
}

// OAuthInstalled represents the installed section of OAuth config
type OAuthInstalled struct {
	ClientID     string   `json:"client_id" validate:"required"`
	ProjectID    string   `json:"project_id" validate:"required"`
	AuthURI      string   `json:"auth_uri" validate:"required,url"`
	TokenURI     string   `json:"token_uri" validate:"required,url"`
	ClientSecret string   `json:"client_secret" validate:"required"`
	RedirectURIs []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// LoadOAuthClientWithEnv loads the OAuth client configuration for an
// environment, e.g. env="prod" reads "oauthClient.prod.json".
func LoadOAuthClientWithEnv(env string) (*OAuthClientConfig, error) {
	path, err := findOAuthFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find oauth client file: %w", err)
	}
	return LoadOAuthClientFromPath(path)
}

// LoadOAuthClientFromPath loads and validates the OAuth client configuration from a specific path
func LoadOAuthClientFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	var oauthCfg OAuthClientConfig
	if err := json.Unmarshal(data, &oauthCfg); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file: %w", err)
	}

	if err := validate.Struct(&oauthCfg); err != nil {
		return nil, fmt.Errorf("oauth client validation failed: %w", err)
	}

	return &oauthCfg, nil
}

// findOAuthFile searches for the environment's oauth client file in the
// current directory and then the home directory.
func findOAuthFile(env string) (string, error) {
	fileName := fmt.Sprintf("oauthClient.%s.json", env)

	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("oauth client file %s not found in current directory or home directory", fileName)
}
