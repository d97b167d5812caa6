// Package server wires the runtime: config, store client, adapter, auth
// orchestrator and invoicing service behind one App handed to the HTTP
// layer.
package server

import (
	"time"

	"github.com/billfold/billfold/internal/adapter"
	"github.com/billfold/billfold/internal/auth"
	"github.com/billfold/billfold/internal/common"
	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/pocketbase"
)

// App is the server runtime.
type App struct {
	Config    *common.Config
	Store     *pocketbase.Client
	DB        *adapter.Adapter
	Auth      *auth.Service
	Invoices  *invoice.Service
	StartTime time.Time
}

// NewServerApp builds a fully wired App. Missing required secrets are a
// startup error, not a first-use surprise.
func NewServerApp(config *common.Config) (*App, error) {
	if err := config.ValidateForServe(); err != nil {
		return nil, err
	}

	store := pocketbase.NewClient(config.Store.URL,
		pocketbase.WithAdminCredentials(config.Store.AdminEmail, config.Store.AdminPassword),
	)
	db := adapter.New(store)

	authSvc := auth.NewService(db, config.Auth.Secret,
		auth.WithProviders(auth.NewProviders(config.Auth.Providers)),
	)

	return &App{
		Config:    config,
		Store:     store,
		DB:        db,
		Auth:      authSvc,
		Invoices:  invoice.NewService(store),
		StartTime: time.Now(),
	}, nil
}

// GetUptime returns how long the app has been running.
func (a *App) GetUptime() string {
	return time.Since(a.StartTime).String()
}
