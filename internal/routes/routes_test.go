package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/bootstrap"
	"github.com/northgate-advisors/intake-backend/internal/config"
	"github.com/northgate-advisors/intake-backend/internal/dto"
	"github.com/northgate-advisors/intake-backend/internal/handlers"
	"github.com/northgate-advisors/intake-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret-at-least-32-characters-long",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		AdminEmails:      "Owner@Northgate.test",
		AdminToken:       "break-glass",
		RateLimitMax:     5,
		RateLimitWindow:  time.Minute,
		CORSOrigins:      "*",
	}
}

func newApp(t *testing.T) (*fiber.App, *bootstrap.Container) {
	t.Helper()
	var extra []interface{}
	for _, p := range bootstrap.Plugins() {
		extra = append(extra, p.Models()...)
	}
	db := testutil.NewDB(t, extra...)

	c, err := bootstrap.New(testConfig(), db)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	h := Handlers{
		Auth:        handlers.NewAuthHandler(c.Auth),
		Health:      handlers.NewHealthHandler(db, c.Catalog),
		Functions:   handlers.NewFunctionHandler(c.Intake),
		Submissions: handlers.NewSubmissionHandler(c.Intake, c.Notifier),
		Advisors:    handlers.NewAdvisorHandler(c.Advisors),
		Settings:    handlers.NewSettingsHandler(c.Settings),
	}
	app := fiber.New(AppConfig(c.Config))
	Setup(app, c.Config, h, c.Auth, c.Limiter, c.Plugins)
	return app, c
}

func request(t *testing.T, app *fiber.App, method, path, body string, headers ...string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString(`{"email":"`+email+`","password":"`+password+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.AccessToken
}

func TestAdminRoutes_RequireCredentials(t *testing.T) {
	app, _ := newApp(t)

	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "GET", "/api/admin/submissions", ""))
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "GET", "/api/admin/submissions", "", "X-Admin-Token", "guess"))
	assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/api/admin/submissions", "", "X-Admin-Token", "break-glass"))
}

func TestAdminRoutes_AcceptAdminLogin(t *testing.T) {
	app, c := newApp(t)
	_, err := c.Auth.CreateAdmin("ops@northgate.test", "Ops", "correct-horse-battery", "admin")
	require.NoError(t, err)

	token := login(t, app, "ops@northgate.test", "correct-horse-battery")
	assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/api/admin/advisors", "", "Authorization", "Bearer "+token))
	assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/api/admin/applications/life-insurance", "", "Authorization", "Bearer "+token))
	assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/api/admin/applications/estate-planning", "", "Authorization", "Bearer "+token))
}

func TestAdminRoutes_AllowListedEmail(t *testing.T) {
	app, c := newApp(t)
	_, err := c.Auth.CreateAdmin("owner@northgate.test", "Owner", "correct-horse-battery", "viewer")
	require.NoError(t, err)
	_, err = c.Auth.CreateAdmin("intern@northgate.test", "Intern", "correct-horse-battery", "viewer")
	require.NoError(t, err)

	owner := login(t, app, "owner@northgate.test", "correct-horse-battery")
	assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/api/admin/submissions/stats", "", "Authorization", "Bearer "+owner))

	intern := login(t, app, "intern@northgate.test", "correct-horse-battery")
	assert.Equal(t, fiber.StatusForbidden, request(t, app, "GET", "/api/admin/submissions/stats", "", "Authorization", "Bearer "+intern))
}

func TestPublicRoutes_Mounted(t *testing.T) {
	app, _ := newApp(t)

	assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/api/health", ""))
	assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/api/advisors", ""))
	assert.Equal(t, fiber.StatusOK, request(t, app, "GET", "/api/applications/estate-planning/defaults/powers", ""))
	assert.Equal(t, fiber.StatusNotFound, request(t, app, "POST", "/api/functions/newsletter", "{}"))
}

func TestAdvisorRegistration_RateLimited(t *testing.T) {
	app, _ := newApp(t)
	body := `{"first_name":"Pat","last_name":"Kim","email":"pat@x.com"}`

	for i := 0; i < 5; i++ {
		require.Equal(t, fiber.StatusAccepted, request(t, app, "POST", "/api/advisors/register", body), "request %d", i+1)
	}
	assert.Equal(t, fiber.StatusTooManyRequests, request(t, app, "POST", "/api/advisors/register", body))
}

func TestFunctions_ClientHeadersDoNotResetQuota(t *testing.T) {
	app, _ := newApp(t)
	body := `{"firstName":"Jane","lastName":"Doe","email":"jane@x.com","phone":"5551234567","service":"retirement","message":"Hi"}`

	accepted := 0
	for i := 0; i < 10; i++ {
		ip := fmt.Sprintf("192.0.2.%d", i+1)
		if request(t, app, "POST", "/api/functions/contact", body, "X-Forwarded-For", ip, "X-Real-IP", ip) == fiber.StatusOK {
			accepted++
		}
	}
	assert.Equal(t, 5, accepted)
}

func TestAppConfig_TrustedProxy(t *testing.T) {
	cfg := testConfig()
	assert.Empty(t, AppConfig(cfg).ProxyHeader, "no trusted proxies means the peer address is used")

	cfg.ProxyHeader = "X-Real-IP"
	cfg.TrustedProxies = []string{"10.0.0.1"}
	fc := AppConfig(cfg)
	assert.Equal(t, "X-Real-IP", fc.ProxyHeader)
	assert.True(t, fc.EnableTrustedProxyCheck)
	assert.Equal(t, []string{"10.0.0.1"}, fc.TrustedProxies)
}

func TestErrorHandler_BodyShapes(t *testing.T) {
	app := fiber.New(AppConfig(testConfig()))
	boom := func(c *fiber.Ctx) error { return errors.New("boom") }
	app.Post("/api/functions/:family", boom)
	app.Post("/api/submissions", boom)
	app.Get("/api/admin/things", boom)

	tests := []struct {
		method, path string
		want         map[string]interface{}
	}{
		{"POST", "/api/functions/contact", map[string]interface{}{"error": "Internal server error"}},
		{"POST", "/api/submissions", map[string]interface{}{"ok": false, "error": "Internal server error"}},
		{"GET", "/api/admin/things", map[string]interface{}{"error": true, "message": "Internal server error"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

			var got map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.want, got)
		})
	}
}
