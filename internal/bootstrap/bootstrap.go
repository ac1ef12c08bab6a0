// Package bootstrap builds the service graph shared by the HTTP server and
// the operator CLI.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/northgate-advisors/intake-backend/internal/apps"
	"github.com/northgate-advisors/intake-backend/internal/apps/estateplanning"
	"github.com/northgate-advisors/intake-backend/internal/apps/lifeinsurance"
	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/northgate-advisors/intake-backend/internal/config"
	"github.com/northgate-advisors/intake-backend/internal/crm"
	"github.com/northgate-advisors/intake-backend/internal/database"
	"github.com/northgate-advisors/intake-backend/internal/email"
	"github.com/northgate-advisors/intake-backend/internal/ratelimit"
	"github.com/northgate-advisors/intake-backend/internal/services"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
)

type Container struct {
	Config   *config.Config
	DB       *gorm.DB
	Catalog  *catalog.Registry
	Limiter  ratelimit.Limiter
	Settings *services.SettingsService
	Advisors *services.AdvisorService
	Notifier *services.NotificationService
	Intake   *services.IntakeService
	Auth     *services.AuthService
	Plugins  []apps.Plugin

	valkey valkey.Client
	done   chan struct{}
}

// Plugins returns every application wizard, uninitialised.
func Plugins() []apps.Plugin {
	return []apps.Plugin{
		lifeinsurance.New(),
		estateplanning.New(),
	}
}

// Migrate creates the shared tables and the tables of every plugin.
func Migrate(db *gorm.DB, plugins []apps.Plugin) error {
	if err := database.MigrateShared(db); err != nil {
		return fmt.Errorf("shared migration failed: %w", err)
	}
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(db, models); err != nil {
				return fmt.Errorf("plugin %s migration failed: %w", p.ID(), err)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}
	return nil
}

// LoadCatalog reads the form catalog file when one is configured and
// watches it for changes; otherwise the built-in catalog is used.
func LoadCatalog(cfg *config.Config, done <-chan struct{}) (*catalog.Registry, error) {
	if cfg.FormsConfigPath == "" {
		return catalog.Default(), nil
	}
	reg, err := catalog.LoadFromFile(cfg.FormsConfigPath)
	if err != nil {
		return nil, err
	}
	if done != nil {
		if err := reg.Watch(cfg.FormsConfigPath, done); err != nil {
			slog.Warn("form catalog hot reload disabled", "path", cfg.FormsConfigPath, "error", err.Error())
		}
	}
	slog.Info("form catalog loaded", "path", cfg.FormsConfigPath, "forms", len(reg.All()))
	return reg, nil
}

// New wires every service on top of db. Close releases the background
// workers and connections it started.
func New(cfg *config.Config, db *gorm.DB) (*Container, error) {
	c := &Container{Config: cfg, DB: db, done: make(chan struct{})}

	reg, err := LoadCatalog(cfg, c.done)
	if err != nil {
		return nil, err
	}
	c.Catalog = reg

	if cfg.ValkeyAddr != "" {
		client, err := ratelimit.Dial(cfg.ValkeyAddr)
		if err != nil {
			return nil, err
		}
		c.valkey = client
		c.Limiter = ratelimit.NewValkeyLimiter(client, cfg.RateLimitMax, cfg.RateLimitWindow)
		slog.Info("rate limiter backend", "backend", "valkey", "addr", cfg.ValkeyAddr)
	} else {
		mem := ratelimit.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		mem.StartSweeper(5*time.Minute, c.done)
		c.Limiter = mem
		slog.Info("rate limiter backend", "backend", "memory")
	}

	var sender email.Sender
	if cfg.EmailEnabled() {
		sender = email.NewResendClient(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, cfg.EmailTimeout)
	} else {
		slog.Warn("RESEND_API_KEY not set, notification emails will be skipped")
	}

	var syncer *crm.Syncer
	if cfg.CRMEnabled() {
		client := crm.NewClient(cfg.PipedriveBaseURL, cfg.PipedriveAPIToken, cfg.CRMTimeout)
		syncer = crm.NewSyncer(client, reg, cfg.PipedriveOwnerID)
	} else {
		slog.Warn("PIPEDRIVE_API_TOKEN not set, CRM sync will be skipped")
	}

	c.Settings = services.NewSettingsService(db)
	c.Advisors = services.NewAdvisorService(db, c.Settings, services.NewContentScreen())
	c.Notifier = services.NewNotificationService(db, sender, syncer, c.Advisors, services.NotifierConfig{
		From:               cfg.EmailFrom,
		InternalRecipients: splitCSV(cfg.InternalRecipients),
		SiteURL:            cfg.SiteURL,
	})
	c.Intake = services.NewIntakeService(db, reg, c.Limiter, c.Notifier, c.Advisors)
	c.Auth = services.NewAuthService(db, cfg)

	c.Plugins = Plugins()
	for _, p := range c.Plugins {
		p.Init(apps.Deps{DB: db, Config: cfg, Catalog: reg, Notifier: c.Notifier})
	}
	return c, nil
}

func (c *Container) Close() {
	close(c.done)
	if c.valkey != nil {
		c.valkey.Close()
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
