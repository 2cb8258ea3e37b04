package gmailclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/oakfield-care/rosterkit/internal/config"
	"github.com/oakfield-care/rosterkit/pkg/utils"
)

// Client wraps the Gmail API client
type Client struct {
	service      *gmail.Service
	sender       string
	sendMutex    sync.Mutex
	lastSendTime time.Time
}

// NewClient creates a new Gmail client, reusing the shared OAuth token.
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, env, sender string) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig, env)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth token: %w", err)
	}

	httpClient := oauthConfig.Client(ctx, token)

	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{service: service, sender: sender}, nil
}

// NewClientWithToken builds a client from an existing token (shared with the
// sheets client) without re-running the flow.
func NewClientWithToken(ctx context.Context, oauthCfg *config.OAuthClientConfig, token *oauth2.Token, sender string) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	httpClient := oauthConfig.Client(ctx, token)

	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{service: service, sender: sender}, nil
}
