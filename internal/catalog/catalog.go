// Package catalog holds the per-form notification settings and the CRM
// label dictionary. Defaults are compiled in; a YAML file can override
// them and is reloaded when it changes on disk.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FormConfig describes how one form family is handled after it is saved.
type FormConfig struct {
	Slug             string   `yaml:"slug" json:"slug"`
	FormName         string   `yaml:"form_name" json:"form_name"`
	Subject          string   `yaml:"subject" json:"subject"`
	Recipients       []string `yaml:"recipients" json:"recipients"`
	CC               []string `yaml:"cc" json:"cc"`
	BCC              []string `yaml:"bcc" json:"bcc"`
	SendConfirmation bool     `yaml:"send_confirmation" json:"send_confirmation"`
	CCAdvisor        bool     `yaml:"cc_advisor" json:"cc_advisor"`
	RateLimited      bool     `yaml:"rate_limited" json:"rate_limited"`
	CRMSync          bool     `yaml:"crm_sync" json:"crm_sync"`
}

// File is the on-disk shape of the catalog.
type File struct {
	Forms      []FormConfig      `yaml:"forms"`
	FormLabels map[string]string `yaml:"form_labels"`
	Interests  map[string]string `yaml:"interests"`
}

type Registry struct {
	mu         sync.RWMutex
	forms      map[string]*FormConfig
	byName     map[string]*FormConfig
	formLabels map[string]string
	interests  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		forms:      make(map[string]*FormConfig),
		byName:     make(map[string]*FormConfig),
		formLabels: make(map[string]string),
		interests:  make(map[string]string),
	}
}

// Default returns a registry populated with the built-in catalog.
func Default() *Registry {
	r := NewRegistry()
	r.apply(defaultFile())
	return r
}

// LoadFromFile reads a YAML catalog and layers it over the defaults.
func LoadFromFile(path string) (*Registry, error) {
	r := Default()
	if err := r.Reload(path); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads path and replaces the catalog contents atomically. On
// error the current contents are kept.
func (r *Registry) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read forms config: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse forms config: %w", err)
	}
	for i, f := range file.Forms {
		if f.Slug == "" || f.FormName == "" {
			return fmt.Errorf("forms config entry %d: slug and form_name are required", i)
		}
	}

	fresh := NewRegistry()
	fresh.apply(defaultFile())
	fresh.apply(file)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms = fresh.forms
	r.byName = fresh.byName
	r.formLabels = fresh.formLabels
	r.interests = fresh.interests
	return nil
}

func (r *Registry) apply(file File) {
	for i := range file.Forms {
		r.Register(&file.Forms[i])
	}
	for name, label := range file.FormLabels {
		r.formLabels[name] = label
	}
	for token, label := range file.Interests {
		r.interests[strings.ToLower(token)] = label
	}
}

func (r *Registry) Register(cfg *FormConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.forms[cfg.Slug]; ok {
		delete(r.byName, old.FormName)
	}
	r.forms[cfg.Slug] = cfg
	r.byName[cfg.FormName] = cfg
}

func (r *Registry) Get(slug string) *FormConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.forms[slug]
}

func (r *Registry) Exists(slug string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.forms[slug]
	return ok
}

// ByFormName finds a form by its display name.
func (r *Registry) ByFormName(name string) *FormConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// All returns every form config ordered by slug.
func (r *Registry) All() []*FormConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*FormConfig, 0, len(r.forms))
	for _, cfg := range r.forms {
		result = append(result, cfg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result
}

// Resolve returns the config for formName, or a generic config for names
// the catalog does not know. Unknown forms still notify and sync, but get
// no CRM label.
func (r *Registry) Resolve(formName string) *FormConfig {
	if cfg := r.ByFormName(formName); cfg != nil {
		return cfg
	}
	return &FormConfig{
		Slug:             SlugGeneral,
		FormName:         formName,
		Subject:          "New " + formName + " Submission",
		SendConfirmation: true,
		RateLimited:      true,
		CRMSync:          true,
	}
}

// FormLabel returns the CRM lead label attached to every lead from formName.
func (r *Registry) FormLabel(formName string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	label, ok := r.formLabels[formName]
	return label, ok
}

// InterestLabel maps an interest token ("retirement") to its display label.
func (r *Registry) InterestLabel(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	label, ok := r.interests[strings.ToLower(strings.TrimSpace(token))]
	return label, ok
}
