// Package crmtest provides an in-memory Pipedrive stand-in for tests.
package crmtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

type Person struct {
	ID    int
	Name  string
	Email string
	Phone string
}

type Lead struct {
	ID             string
	Title          string
	PersonID       int
	OrganizationID int
	OwnerID        int
	LabelIDs       []string
}

type Note struct {
	ID       int
	Content  string
	LeadID   string
	PersonID int
}

// Server records every write it receives. Fail maps "METHOD /path" to a
// status code to return instead of handling the request.
type Server struct {
	*httptest.Server

	Token string

	mu            sync.Mutex
	nextID        int
	Persons       map[int]*Person
	Organizations map[int]string
	Labels        map[string]string
	Leads         []Lead
	Notes         []Note
	Requests      []string
	Fail          map[string]int
}

func NewServer(token string) *Server {
	s := &Server{
		Token:         token,
		nextID:        100,
		Persons:       make(map[int]*Person),
		Organizations: make(map[int]string),
		Labels: map[string]string{
			"label-retirement": "Retirement Planning",
			"label-tax":        "Tax Strategy",
			"label-medicare":   "Medicare",
			"label-web":        "Website Inquiry",
		},
		Fail: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// AddPerson seeds an existing person and returns its id.
func (s *Server) AddPerson(name, email, phone string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.Persons[s.nextID] = &Person{ID: s.nextID, Name: name, Email: email, Phone: phone}
	return s.nextID
}

func (s *Server) Person(id int) (Person, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Persons[id]
	if !ok {
		return Person{}, false
	}
	return *p, true
}

// FindPerson returns the first person with the given email.
func (s *Server) FindPerson(email string) (Person, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Persons {
		if strings.EqualFold(p.Email, email) {
			return *p, true
		}
	}
	return Person{}, false
}

func (s *Server) PersonCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Persons)
}

func (s *Server) LeadList() []Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Lead(nil), s.Leads...)
}

func (s *Server) NoteList() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Note(nil), s.Notes...)
}

func (s *Server) FailOn(method, path string, status int) {
	s.mu.Lock()
	s.Fail[method+" "+path] = status
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func ok(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

type contactValue struct {
	Value string `json:"value"`
}

type personBody struct {
	Name  string         `json:"name"`
	Email []contactValue `json:"email"`
	Phone []contactValue `json:"phone"`
}

func first(vals []contactValue) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0].Value
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, r.Method+" "+r.URL.Path)

	if r.URL.Query().Get("api_token") != s.Token {
		fail(w, http.StatusUnauthorized, "unauthorized access")
		return
	}
	if status, bad := s.Fail[r.Method+" "+r.URL.Path]; bad {
		fail(w, status, "forced failure")
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/persons/search":
		s.searchPersons(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/persons":
		var body personBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.nextID++
		s.Persons[s.nextID] = &Person{ID: s.nextID, Name: body.Name, Email: first(body.Email), Phone: first(body.Phone)}
		ok(w, map[string]int{"id": s.nextID})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/persons/"):
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/persons/"))
		p, found := s.Persons[id]
		if !found {
			fail(w, http.StatusNotFound, "person not found")
			return
		}
		var body personBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.Name = body.Name
		p.Email = first(body.Email)
		p.Phone = first(body.Phone)
		ok(w, map[string]int{"id": id})
	case r.Method == http.MethodGet && r.URL.Path == "/organizations/search":
		term := r.URL.Query().Get("term")
		items := []interface{}{}
		for id, name := range s.Organizations {
			if name == term {
				items = append(items, map[string]interface{}{"result_score": 1, "item": map[string]interface{}{"id": id, "name": name}})
			}
		}
		ok(w, map[string]interface{}{"items": items})
	case r.Method == http.MethodPost && r.URL.Path == "/organizations":
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.nextID++
		s.Organizations[s.nextID] = body.Name
		ok(w, map[string]int{"id": s.nextID})
	case r.Method == http.MethodGet && r.URL.Path == "/leadLabels":
		labels := make([]map[string]string, 0, len(s.Labels))
		for id, name := range s.Labels {
			labels = append(labels, map[string]string{"id": id, "name": name, "color": "blue"})
		}
		ok(w, labels)
	case r.Method == http.MethodPost && r.URL.Path == "/leads":
		var body struct {
			Title          string   `json:"title"`
			PersonID       int      `json:"person_id"`
			OrganizationID int      `json:"organization_id"`
			OwnerID        int      `json:"owner_id"`
			LabelIDs       []string `json:"label_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := fmt.Sprintf("lead-%d", len(s.Leads)+1)
		s.Leads = append(s.Leads, Lead{ID: id, Title: body.Title, PersonID: body.PersonID, OrganizationID: body.OrganizationID, OwnerID: body.OwnerID, LabelIDs: body.LabelIDs})
		ok(w, map[string]string{"id": id})
	case r.Method == http.MethodPost && r.URL.Path == "/notes":
		var body struct {
			Content  string `json:"content"`
			LeadID   string `json:"lead_id"`
			PersonID int    `json:"person_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.nextID++
		s.Notes = append(s.Notes, Note{ID: s.nextID, Content: body.Content, LeadID: body.LeadID, PersonID: body.PersonID})
		ok(w, map[string]int{"id": s.nextID})
	default:
		fail(w, http.StatusNotFound, "unknown endpoint")
	}
}

func (s *Server) searchPersons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term, field := q.Get("term"), q.Get("fields")
	items := []interface{}{}
	for id := s.nextID; id > 0; id-- {
		p, found := s.Persons[id]
		if !found {
			continue
		}
		if (field == "email" && strings.EqualFold(p.Email, term)) || (field == "phone" && p.Phone == term) {
			items = append(items, map[string]interface{}{"result_score": 1, "item": map[string]interface{}{"id": p.ID, "name": p.Name}})
		}
	}
	ok(w, map[string]interface{}{"items": items})
}
