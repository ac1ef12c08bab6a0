// Package intakeclient submits normalized lead payloads to the intake
// backend. Every form goes through Submit, so failures surface the same
// way everywhere.
package intakeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/northgate-advisors/intake-backend/internal/honeypot"
)

const submitPath = "/api/submissions"

// Payload is the normalized submission. FormName, FirstName, LastName and
// Email are required.
type Payload struct {
	FormName     string            `json:"form_name" validate:"required"`
	FirstName    string            `json:"first_name" validate:"required"`
	LastName     string            `json:"last_name" validate:"required"`
	Email        string            `json:"email" validate:"required,email"`
	Phone        string            `json:"phone,omitempty"`
	Company      string            `json:"company,omitempty"`
	State        string            `json:"state,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	SourceURL    string            `json:"source_url,omitempty"`
	AdvisorID    string            `json:"advisor_id,omitempty"`
	AdvisorSlug  string            `json:"advisor_slug,omitempty"`
	AdvisorEmail string            `json:"advisor_email,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
	Honeypot     string            `json:"honeypot,omitempty"`
}

// Result is the outcome of one submission.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	validate   *validator.Validate
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Submit posts p once. Transport and server errors are reported in the
// Result; there is no retry. A filled honeypot reports success without
// touching the network.
func (c *Client) Submit(ctx context.Context, p Payload) Result {
	if honeypot.IsBot(p.Honeypot) {
		return Result{OK: true}
	}
	if err := c.check(p); err != nil {
		return Result{Error: err.Error()}
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return Result{Error: fmt.Sprintf("encode payload: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(raw))
	if err != nil {
		return Result{Error: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Error: fmt.Sprintf("submit: %v", err)}
	}
	defer resp.Body.Close()

	var res Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&res); err != nil {
		return Result{Error: fmt.Sprintf("submit: status %d with unreadable body", resp.StatusCode)}
	}
	if resp.StatusCode >= 300 || !res.OK {
		if res.Error == "" {
			res.Error = http.StatusText(resp.StatusCode)
		}
		res.OK = false
	}
	return res
}

func (c *Client) check(p Payload) error {
	p.FormName = strings.TrimSpace(p.FormName)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)

	err := c.validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	return fmt.Errorf("missing or invalid fields: %s", strings.Join(names, ", "))
}
