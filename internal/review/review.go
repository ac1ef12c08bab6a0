// Package review sorts and filters admin listings in memory. Listings are
// loaded in full and shaped here, so every admin table behaves the same.
package review

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	Asc  = "asc"
	Desc = "desc"
)

// Query is the sort/filter state of one admin table.
type Query struct {
	Sort     string `query:"sort"`
	Dir      string `query:"dir"`
	Status   string `query:"status"`
	FormName string `query:"form_name"`
	Q        string `query:"q"`
}

// Key extracts a sortable value: Text keys compare with the locale
// collator, Time keys chronologically.
type Key[T any] struct {
	Text func(T) string
	Time func(T) time.Time
}

// Columns describes how to read the columns of T.
type Columns[T any] struct {
	Keys        map[string]Key[T]
	DefaultSort string
	DefaultDir  string
	Status      func(T) string
	FormName    func(T) string
	Search      func(T) []string
}

// Apply filters items by q and returns them sorted. The input slice is not
// modified.
func Apply[T any](items []T, cols Columns[T], q Query) []T {
	out := Filter(items, cols, q)
	Sort(out, cols, q.Sort, q.Dir)
	return out
}

func Filter[T any](items []T, cols Columns[T], q Query) []T {
	status := strings.TrimSpace(q.Status)
	formName := strings.TrimSpace(q.FormName)
	needle := strings.ToLower(strings.TrimSpace(q.Q))

	out := make([]T, 0, len(items))
	for _, item := range items {
		if status != "" && status != "all" && cols.Status != nil && !strings.EqualFold(cols.Status(item), status) {
			continue
		}
		if formName != "" && cols.FormName != nil && cols.FormName(item) != formName {
			continue
		}
		if needle != "" && cols.Search != nil && !matches(cols.Search(item), needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matches(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// Sort orders items in place by the named key. Unknown keys fall back to
// the cols default; ties keep their input order.
func Sort[T any](items []T, cols Columns[T], by, dir string) {
	key, ok := cols.Keys[by]
	if !ok {
		key, ok = cols.Keys[cols.DefaultSort]
		if !ok {
			return
		}
		if dir == "" {
			dir = cols.DefaultDir
		}
	}
	desc := strings.EqualFold(dir, Desc)

	var less func(a, b T) int
	switch {
	case key.Time != nil:
		less = func(a, b T) int {
			return key.Time(a).Compare(key.Time(b))
		}
	case key.Text != nil:
		col := collate.New(language.English)
		less = func(a, b T) int {
			return col.CompareString(key.Text(a), key.Text(b))
		}
	default:
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		c := less(items[i], items[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}
