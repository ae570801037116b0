package templates

import (
	"testing"

	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedCatalogIsValid(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 26, c.Len())

	want := map[domain.Category]int{
		domain.CategoryColdEmail:   6,
		domain.CategoryFollowUp:    5,
		domain.CategoryPartnership: 5,
		domain.CategoryApology:     5,
		domain.CategoryOffer:       5,
	}
	for _, cat := range domain.Categories {
		items := c.List(Filter{Category: cat})
		assert.Len(t, items, want[cat], "category %s", cat)
		for _, item := range items {
			assert.Equal(t, cat, item.Category)
		}
	}
}

func TestList_PopularAndSearch(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	popular := c.List(Filter{PopularOnly: true})
	require.NotEmpty(t, popular)
	for _, item := range popular {
		assert.True(t, item.Popular)
	}

	found := c.List(Filter{Search: "missed meeting"})
	require.Len(t, found, 1)
	assert.Equal(t, "apology-4", found[0].ID)

	assert.Empty(t, c.List(Filter{Search: "no such template"}))
}

func TestGet(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	tpl, ok := c.Get("follow-up-1")
	require.True(t, ok)
	assert.Equal(t, domain.CategoryFollowUp, tpl.Category)

	_, ok = c.Get("follow-up-99")
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	tpl := &Template{
		Subject:   "Apology regarding {issue}",
		Body:      "Dear {name},\n\nSorry about {issue}.\n\n{sender}",
		Variables: []string{"issue", "name", "sender"},
	}

	got := tpl.Render(map[string]string{"issue": "the late invoice", "name": "Priya", "sender": "  "})

	assert.Equal(t, "Apology regarding the late invoice", got.Subject)
	assert.Equal(t, "Dear Priya,\n\nSorry about the late invoice.\n\n{sender}", got.Body)
	assert.Equal(t, []string{"sender"}, got.Missing)
}

func TestRender_AllVariablesMissing(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	tpl, _ := c.Get("apology-1")

	got := tpl.Render(nil)
	assert.ElementsMatch(t, tpl.Variables, got.Missing)
	assert.Equal(t, tpl.Body, got.Body)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"undeclared placeholder", `
templates:
  - id: a
    category: offer
    subject: "Hi {name}"
    body: "x"
`},
		{"unknown category", `
templates:
  - id: a
    category: newsletter
    subject: "Hi"
    body: "x"
`},
		{"duplicate id", `
templates:
  - id: a
    category: offer
    subject: "Hi"
    body: "x"
  - id: a
    category: offer
    subject: "Hi"
    body: "x"
`},
		{"malformed", "templates: [[["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
