package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type row struct {
	Name    string
	Status  string
	Form    string
	Created time.Time
}

var day = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func rows() []row {
	return []row{
		{Name: "émile", Status: "draft", Form: "Contact", Created: day.Add(48 * time.Hour)},
		{Name: "Zoe", Status: "submitted", Form: "Medicare", Created: day},
		{Name: "adam", Status: "Submitted", Form: "Contact", Created: day.Add(24 * time.Hour)},
		{Name: "Eve", Status: "approved", Form: "Contact", Created: day.Add(72 * time.Hour)},
	}
}

var cols = Columns[row]{
	Keys: map[string]Key[row]{
		"name":       {Text: func(r row) string { return r.Name }},
		"created_at": {Time: func(r row) time.Time { return r.Created }},
	},
	DefaultSort: "created_at",
	DefaultDir:  Desc,
	Status:      func(r row) string { return r.Status },
	FormName:    func(r row) string { return r.Form },
	Search:      func(r row) []string { return []string{r.Name, r.Form} },
}

func names(rs []row) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestSort_TextIsLocaleAware(t *testing.T) {
	got := Apply(rows(), cols, Query{Sort: "name", Dir: Asc})
	assert.Equal(t, []string{"adam", "émile", "Eve", "Zoe"}, names(got))

	got = Apply(rows(), cols, Query{Sort: "name", Dir: Desc})
	assert.Equal(t, []string{"Zoe", "Eve", "émile", "adam"}, names(got))
}

func TestSort_DatesChronological(t *testing.T) {
	got := Apply(rows(), cols, Query{Sort: "created_at", Dir: Asc})
	assert.Equal(t, []string{"Zoe", "adam", "émile", "Eve"}, names(got))
}

func TestSort_UnknownKeyUsesDefault(t *testing.T) {
	got := Apply(rows(), cols, Query{Sort: "nope"})
	assert.Equal(t, []string{"Eve", "émile", "adam", "Zoe"}, names(got))
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"status is case-insensitive", Query{Status: "submitted", Sort: "name", Dir: Asc}, []string{"adam", "Zoe"}},
		{"all disables status filter", Query{Status: "all"}, []string{"Eve", "émile", "adam", "Zoe"}},
		{"form name", Query{FormName: "Medicare"}, []string{"Zoe"}},
		{"substring search", Query{Q: "EV"}, []string{"Eve"}},
		{"search hits other columns", Query{Q: "medi"}, []string{"Zoe"}},
		{"no matches", Query{Q: "xyz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Apply(rows(), cols, tt.q)))
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := rows()
	_ = Apply(in, cols, Query{Sort: "name", Dir: Asc})
	assert.Equal(t, "émile", in[0].Name)
}
