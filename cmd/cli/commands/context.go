package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/internal/config"
	"github.com/oakfield-care/rosterkit/pkg/clients/gmailclient"
	"github.com/oakfield-care/rosterkit/pkg/clients/sheetsclient"
	"github.com/oakfield-care/rosterkit/pkg/db"
	"github.com/oakfield-care/rosterkit/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	OAuthCfg *config.OAuthClientConfig
	Database db.Database
	PG       *postgres.DB
	Logger   *zap.Logger
	Ctx      context.Context
	Env      string

	sheetsClient *sheetsclient.Client
	gmailClient  *gmailclient.Client
}

// SheetsClient lazily builds the Google Sheets client. Only commands that
// publish reports pay the OAuth cost.
func (app *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if app.sheetsClient != nil {
		return app.sheetsClient, nil
	}
	if app.OAuthCfg == nil {
		return nil, fmt.Errorf("no oauth client configuration loaded for environment %s", app.Env)
	}

	client, err := sheetsclient.NewClient(app.Ctx, app.OAuthCfg, app.Env)
	if err != nil {
		return nil, err
	}
	app.sheetsClient = client
	return client, nil
}

// GmailClient lazily builds the Gmail client, sharing the sheets token when
// one is already present.
func (app *AppContext) GmailClient() (*gmailclient.Client, error) {
	if app.gmailClient != nil {
		return app.gmailClient, nil
	}
	if app.OAuthCfg == nil {
		return nil, fmt.Errorf("no oauth client configuration loaded for environment %s", app.Env)
	}

	if app.sheetsClient != nil {
		client, err := gmailclient.NewClientWithToken(app.Ctx, app.OAuthCfg, app.sheetsClient.Token(), app.Cfg.GmailSender)
		if err != nil {
			return nil, err
		}
		app.gmailClient = client
		return client, nil
	}

	client, err := gmailclient.NewClient(app.Ctx, app.OAuthCfg, app.Env, app.Cfg.GmailSender)
	if err != nil {
		return nil, err
	}
	app.gmailClient = client
	return client, nil
}
