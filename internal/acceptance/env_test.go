package acceptance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/bootstrap"
	"github.com/northgate-advisors/intake-backend/internal/config"
	"github.com/northgate-advisors/intake-backend/internal/crm/crmtest"
	"github.com/northgate-advisors/intake-backend/internal/database"
	"github.com/northgate-advisors/intake-backend/internal/email"
	"github.com/northgate-advisors/intake-backend/internal/handlers"
	"github.com/northgate-advisors/intake-backend/internal/routes"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	adminToken = "acceptance-admin-token"
	staffInbox = "leads@northgate.test"
)

// mailbox stands in for the email provider and keeps every message.
type mailbox struct {
	*httptest.Server

	mu       sync.Mutex
	messages []email.Message
}

func newMailbox() *mailbox {
	m := &mailbox{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg email.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		m.mu.Lock()
		m.messages = append(m.messages, msg)
		n := len(m.messages)
		m.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("msg-%d", n)})
	}))
	return m
}

func (m *mailbox) Messages() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Message(nil), m.messages...)
}

func (m *mailbox) Reset() {
	m.mu.Lock()
	m.messages = nil
	m.mu.Unlock()
}

// TestContext holds the container, stubs and the in-process server.
type TestContext struct {
	DB        *gorm.DB
	Container testcontainers.Container
	App       *fiber.App
	Services  *bootstrap.Container
	Mail      *mailbox
	CRM       *crmtest.Server
}

func startPostgres(ctx context.Context) (*tcpostgres.PostgresContainer, *gorm.DB, error) {
	pg, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("intake_test"),
		tcpostgres.WithUsername("intake"),
		tcpostgres.WithPassword("intake"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, nil, fmt.Errorf("failed to get connection string: %w", err)
	}
	db, err := database.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}))
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, nil, err
	}
	return pg, db, nil
}

func NewTestContext(ctx context.Context) (*TestContext, error) {
	pg, db, err := startPostgres(ctx)
	if err != nil {
		return nil, err
	}
	if err := bootstrap.Migrate(db, bootstrap.Plugins()); err != nil {
		_ = pg.Terminate(ctx)
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	mail := newMailbox()
	crmSrv := crmtest.NewServer("pd-token")

	cfg := &config.Config{
		JWTSecret:          "acceptance-secret-with-enough-length",
		JWTAccessExpiry:    15 * time.Minute,
		JWTRefreshExpiry:   time.Hour,
		AdminToken:         adminToken,
		EmailAPIKey:        "re_test",
		EmailAPIURL:        mail.URL,
		EmailFrom:          "Northgate Advisors <noreply@northgate.test>",
		InternalRecipients: staffInbox,
		EmailTimeout:       5 * time.Second,
		PipedriveAPIToken:  "pd-token",
		PipedriveBaseURL:   crmSrv.URL,
		CRMTimeout:         5 * time.Second,
		RateLimitMax:       5,
		RateLimitWindow:    time.Minute,
		SiteURL:            "https://northgate.test",
		CORSOrigins:        "*",
		// app.Test connections arrive from 0.0.0.0, standing in for the proxy.
		ProxyHeader:        "X-Real-IP",
		TrustedProxies:     []string{"0.0.0.0"},
	}

	svc, err := bootstrap.New(cfg, db)
	if err != nil {
		mail.Close()
		crmSrv.Close()
		_ = pg.Terminate(ctx)
		return nil, err
	}

	app := fiber.New(routes.AppConfig(cfg))
	routes.Setup(app, cfg, routes.Handlers{
		Auth:        handlers.NewAuthHandler(svc.Auth),
		Health:      handlers.NewHealthHandler(db, svc.Catalog),
		Functions:   handlers.NewFunctionHandler(svc.Intake),
		Submissions: handlers.NewSubmissionHandler(svc.Intake, svc.Notifier),
		Advisors:    handlers.NewAdvisorHandler(svc.Advisors),
		Settings:    handlers.NewSettingsHandler(svc.Settings),
	}, svc.Auth, svc.Limiter, svc.Plugins)

	return &TestContext{
		DB:        db,
		Container: pg,
		App:       app,
		Services:  svc,
		Mail:      mail,
		CRM:       crmSrv,
	}, nil
}

// Reset empties every table and stub between scenarios.
func (tc *TestContext) Reset() error {
	for _, table := range []string{
		"notification_tasks", "form_submissions", "advisors", "site_settings",
		"life_insurance_applications", "estate_planning_applications",
	} {
		if err := tc.DB.Exec("TRUNCATE TABLE " + table + " CASCADE").Error; err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	tc.Mail.Reset()
	return nil
}

func (tc *TestContext) Close(ctx context.Context) {
	tc.Services.Close()
	tc.Mail.Close()
	tc.CRM.Close()
	_ = database.Close(tc.DB)
	_ = tc.Container.Terminate(ctx)
}

// migrateTwice runs the migrations twice; the second run must be a no-op.
func migrateTwice(db *gorm.DB) error {
	for i := 0; i < 2; i++ {
		if err := bootstrap.Migrate(db, bootstrap.Plugins()); err != nil {
			return fmt.Errorf("migration run %d: %w", i+1, err)
		}
	}
	return nil
}
