// Package templates serves the built-in library of editable email templates.
package templates

import (
	_ "embed"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/DukeRupert/smartmail/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

var placeholder = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// Template is a canned email with {variable} placeholders.
type Template struct {
	ID        string          `yaml:"id" json:"id"`
	Title     string          `yaml:"title" json:"title"`
	Category  domain.Category `yaml:"category" json:"category"`
	Popular   bool            `yaml:"popular" json:"popular"`
	Subject   string          `yaml:"subject" json:"subject"`
	Body      string          `yaml:"body" json:"body"`
	Variables []string        `yaml:"variables" json:"variables"`
}

// Rendered is a template with variables substituted. Missing lists the
// variables that had no value; their placeholders are left in place.
type Rendered struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	Missing []string `json:"missing"`
}

// Render substitutes vars into the subject and body.
func (t *Template) Render(vars map[string]string) Rendered {
	missing := []string{}
	seen := map[string]bool{}
	replace := func(s string) string {
		return placeholder.ReplaceAllStringFunc(s, func(m string) string {
			name := m[1 : len(m)-1]
			if v := strings.TrimSpace(vars[name]); v != "" {
				return v
			}
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			return m
		})
	}
	return Rendered{
		Subject: replace(t.Subject),
		Body:    replace(t.Body),
		Missing: missing,
	}
}

// Catalog is an immutable, ordered set of templates.
type Catalog struct {
	templates []Template
	byID      map[string]int
}

type catalogFile struct {
	Templates []Template `yaml:"templates"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse builds a catalog from YAML and checks that ids are unique, categories
// are known and every placeholder is declared as a variable.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]int, len(f.Templates))}
	for i, t := range f.Templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template %d: missing id", i)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("template %s: duplicate id", t.ID)
		}
		if !t.Category.Valid() {
			return nil, fmt.Errorf("template %s: unknown category %q", t.ID, t.Category)
		}
		for _, m := range placeholder.FindAllStringSubmatch(t.Subject+"\n"+t.Body, -1) {
			if !slices.Contains(t.Variables, m[1]) {
				return nil, fmt.Errorf("template %s: placeholder {%s} is not declared", t.ID, m[1])
			}
		}
		c.byID[t.ID] = len(c.templates)
		c.templates = append(c.templates, t)
	}
	return c, nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Category    domain.Category
	PopularOnly bool
	Search      string
}

// List returns templates in catalog order.
func (c *Catalog) List(f Filter) []Template {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := []Template{}
	for _, t := range c.templates {
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.PopularOnly && !t.Popular {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Subject), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (*Template, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	t := c.templates[i]
	return &t, true
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.templates)
}
