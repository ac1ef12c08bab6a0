// Package crm talks to the Pipedrive v1 REST API and runs the lead sync
// for new submissions.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotConfigured = errors.New("crm not configured")
	ErrAPI           = errors.New("pipedrive api error")
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	ErrorInfo string          `json:"error_info"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if c.token == "" {
		return ErrNotConfigured
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.token)
	endpoint := c.baseURL + path + "?" + query.Encode()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		return fmt.Errorf("%w: %s %s returned status %d with unreadable body", ErrAPI, method, path, resp.StatusCode)
	}
	if resp.StatusCode >= 300 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s %s (%d): %s", ErrAPI, method, path, resp.StatusCode, msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

type searchResult struct {
	Items []struct {
		ResultScore float64 `json:"result_score"`
		Item        struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"item"`
	} `json:"items"`
}

func (c *Client) search(ctx context.Context, resource, field, term string) (int, bool, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("fields", field)
	q.Set("exact_match", "true")
	q.Set("limit", "1")

	var res searchResult
	if err := c.do(ctx, http.MethodGet, "/"+resource+"/search", q, nil, &res); err != nil {
		return 0, false, err
	}
	if len(res.Items) == 0 {
		return 0, false, nil
	}
	return res.Items[0].Item.ID, true, nil
}

// SearchPerson finds a person by exact email, then by exact phone. An
// email match always wins.
func (c *Client) SearchPerson(ctx context.Context, email, phone string) (int, bool, error) {
	if email = strings.TrimSpace(email); email != "" {
		id, ok, err := c.search(ctx, "persons", "email", email)
		if err != nil || ok {
			return id, ok, err
		}
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		return c.search(ctx, "persons", "phone", phone)
	}
	return 0, false, nil
}

type contactValue struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
	Label   string `json:"label,omitempty"`
}

type personBody struct {
	Name    string         `json:"name"`
	Email   []contactValue `json:"email,omitempty"`
	Phone   []contactValue `json:"phone,omitempty"`
	OwnerID int            `json:"owner_id,omitempty"`
	OrgID   int            `json:"org_id,omitempty"`
}

type PersonInput struct {
	Name    string
	Email   string
	Phone   string
	OwnerID int
}

type UpsertResult struct {
	ID      int
	Created bool
}

// UpsertPerson updates the matching person or creates a new one. An update
// overwrites name, email and phone with the incoming values; nothing is
// merged.
func (c *Client) UpsertPerson(ctx context.Context, in PersonInput) (UpsertResult, error) {
	id, found, err := c.SearchPerson(ctx, in.Email, in.Phone)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("search person: %w", err)
	}

	body := personBody{Name: in.Name, OwnerID: in.OwnerID}
	if in.Email != "" {
		body.Email = []contactValue{{Value: in.Email, Primary: true, Label: "work"}}
	}
	if in.Phone != "" {
		body.Phone = []contactValue{{Value: in.Phone, Primary: true, Label: "mobile"}}
	}

	var out struct {
		ID int `json:"id"`
	}
	if found {
		if err := c.do(ctx, http.MethodPut, "/persons/"+strconv.Itoa(id), nil, body, &out); err != nil {
			return UpsertResult{}, fmt.Errorf("update person: %w", err)
		}
		return UpsertResult{ID: id, Created: false}, nil
	}
	if err := c.do(ctx, http.MethodPost, "/persons", nil, body, &out); err != nil {
		return UpsertResult{}, fmt.Errorf("create person: %w", err)
	}
	return UpsertResult{ID: out.ID, Created: true}, nil
}

func (c *Client) SearchOrganization(ctx context.Context, name string) (int, bool, error) {
	return c.search(ctx, "organizations", "name", strings.TrimSpace(name))
}

// UpsertOrganization returns the organization named exactly name, creating
// it when absent.
func (c *Client) UpsertOrganization(ctx context.Context, name string, ownerID int) (UpsertResult, error) {
	id, found, err := c.SearchOrganization(ctx, name)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("search organization: %w", err)
	}
	if found {
		return UpsertResult{ID: id}, nil
	}

	body := struct {
		Name    string `json:"name"`
		OwnerID int    `json:"owner_id,omitempty"`
	}{Name: strings.TrimSpace(name), OwnerID: ownerID}
	var out struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/organizations", nil, body, &out); err != nil {
		return UpsertResult{}, fmt.Errorf("create organization: %w", err)
	}
	return UpsertResult{ID: out.ID, Created: true}, nil
}

type LeadLabel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (c *Client) FetchLeadLabels(ctx context.Context) ([]LeadLabel, error) {
	var labels []LeadLabel
	if err := c.do(ctx, http.MethodGet, "/leadLabels", nil, nil, &labels); err != nil {
		return nil, fmt.Errorf("fetch lead labels: %w", err)
	}
	return labels, nil
}

type LeadInput struct {
	Title          string   `json:"title"`
	PersonID       int      `json:"person_id,omitempty"`
	OrganizationID int      `json:"organization_id,omitempty"`
	OwnerID        int      `json:"owner_id,omitempty"`
	LabelIDs       []string `json:"label_ids,omitempty"`
}

// CreateLead creates a lead in the triage inbox and returns its id.
func (c *Client) CreateLead(ctx context.Context, in LeadInput) (string, error) {
	if in.PersonID == 0 && in.OrganizationID == 0 {
		return "", errors.New("create lead: a person or organization is required")
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/leads", nil, in, &out); err != nil {
		return "", fmt.Errorf("create lead: %w", err)
	}
	return out.ID, nil
}

type NoteInput struct {
	Content  string `json:"content"`
	LeadID   string `json:"lead_id,omitempty"`
	PersonID int    `json:"person_id,omitempty"`
}

func (c *Client) AddNote(ctx context.Context, in NoteInput) (int, error) {
	var out struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/notes", nil, in, &out); err != nil {
		return 0, fmt.Errorf("add note: %w", err)
	}
	return out.ID, nil
}
