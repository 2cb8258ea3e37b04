package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/oakfield-care/rosterkit/internal/config"
)

const (
	authPort       = 3000
	authTimeout    = 5 * time.Minute
	callbackPath   = "/oauth/callback"
	tokenDirName   = ".rosterkit/tokens"
	tokenFilePerms = 0600
	tokenDirPerms  = 0700
)

var (
	tokenCache   *oauth2.Token
	tokenCacheMu sync.Mutex
)

// OAuth scopes for Google APIs
const (
	ScopeSheets    = "https://www.googleapis.com/auth/spreadsheets"
	ScopeGmailSend = "https://www.googleapis.com/auth/gmail.send"
)

// GetOAuthConfig creates an OAuth2 config from the OAuth client
// configuration, requesting the sheets and gmail scopes upfront so the token
// can be shared across both clients.
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	oauthConfigJSON, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(oauthConfigJSON, ScopeSheets, ScopeGmailSend)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}

	// Override redirect URI to use our local callback server
	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", authPort, callbackPath)

	return googleConfig, nil
}

// GetTokenWithFlow returns a usable OAuth token, running the interactive
// authorization flow only when no cached or refreshable token exists. Tokens
// are persisted to disk per environment. Thread-safe; one flow at a time.
func GetTokenWithFlow(ctx context.Context, oauthConfig *oauth2.Config, env string) (*oauth2.Token, error) {
	tokenCacheMu.Lock()
	defer tokenCacheMu.Unlock()

	if tokenCache != nil && tokenCache.Valid() {
		return tokenCache, nil
	}

	fileToken, err := loadTokenFromFile(env)
	if err != nil {
		fmt.Printf("Warning: failed to load token from file: %v\n", err)
	}

	if fileToken != nil {
		if fileToken.Valid() {
			tokenCache = fileToken
			return fileToken, nil
		}
		if fileToken.RefreshToken != "" {
			refreshed, err := oauthConfig.TokenSource(ctx, fileToken).Token()
			if err == nil {
				if err := saveTokenToFile(env, refreshed); err != nil {
					fmt.Printf("Warning: failed to save refreshed token: %v\n", err)
				}
				tokenCache = refreshed
				return refreshed, nil
			}
			fmt.Printf("Token refresh failed, starting new OAuth flow: %v\n", err)
		}
	}

	authURL := oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("\nVisit this URL to authorize the application:\n%s\n\n", authURL)

	code, err := listenForAuthCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := saveTokenToFile(env, token); err != nil {
		fmt.Printf("Warning: failed to save token: %v\n", err)
	}

	tokenCache = token
	return token, nil
}

// listenForAuthCallback runs a temporary local HTTP server and waits for the
// OAuth redirect carrying the authorization code.
func listenForAuthCallback(ctx context.Context) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	server := &http.Server{Addr: fmt.Sprintf(":%d", authPort), Handler: mux}

	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("callback received no authorization code")
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization received. You can close this window.")
		codeChan <- code
	})

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("callback server error: %w", err)
		}
	}()
	defer server.Close()

	select {
	case code := <-codeChan:
		return code, nil
	case err := <-errChan:
		return "", err
	case <-time.After(authTimeout):
		return "", fmt.Errorf("timed out waiting for OAuth callback after %s", authTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func tokenFilePath(env string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, tokenDirName, fmt.Sprintf("token.%s.json", env)), nil
}

func loadTokenFromFile(env string) (*oauth2.Token, error) {
	path, err := tokenFilePath(env)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

func saveTokenToFile(env string, token *oauth2.Token) error {
	path, err := tokenFilePath(env)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
