// Package generators synthesises concrete values in place of recorded example values.
//
// Generators are attached to paths per category (body, header, path, query, status,
// metadata), exactly like matching rules. Applying them never fails a contract check: a
// failing generator leaves the original value in place and is reported to the caller.
package generators

import (
	"sort"

	"github.com/form3tech-oss/pact-core/pkg/pactpath"
	"github.com/pkg/errors"
)

const (
	CategoryBody     = "body"
	CategoryHeader   = "header"
	CategoryPath     = "path"
	CategoryQuery    = "query"
	CategoryStatus   = "status"
	CategoryMetadata = "metadata"
)

var (
	ErrMissingProviderStateParam = errors.New("provider state parameter not found")
	ErrUnknownGenerator          = errors.New("unknown generator")
	ErrMissingMockServerURL      = errors.New("mock server URL is not available")
	ErrMissingRequestPath        = errors.New("request path is not available")
	ErrInvalidGenerator          = errors.New("invalid generator parameters")
)

// Generator is one of the generator variants in this package.
type Generator interface {
	// Kind is the `type` value used in contract files.
	Kind() string
	// Generate returns a new value. current is the recorded example value.
	Generate(ctx *Context, current interface{}) (interface{}, error)
	ToJSON() map[string]interface{}

	generator()
}

// Entry binds a generator to a path expression.
type Entry struct {
	Path      pactpath.Path
	Generator Generator
}

// Category holds the generators of one category in declaration order. Values are
// immutable: With returns a new Category.
type Category struct {
	Name    string
	entries []Entry
}

func NewCategory(name string) Category {
	return Category{Name: name}
}

// With returns a copy of the category with the generator set for path, replacing any
// generator already declared for an equivalent path.
func (c Category) With(path pactpath.Path, g Generator) Category {
	entries := make([]Entry, 0, len(c.entries)+1)
	replaced := false
	for _, e := range c.entries {
		if e.Path.Equal(path) {
			entries = append(entries, Entry{Path: path, Generator: g})
			replaced = true
			continue
		}
		entries = append(entries, e)
	}
	if !replaced {
		entries = append(entries, Entry{Path: path, Generator: g})
	}
	return Category{Name: c.Name, entries: entries}
}

func (c Category) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

func (c Category) IsEmpty() bool {
	return len(c.entries) == 0
}

func (c Category) Len() int {
	return len(c.entries)
}

// Lookup returns the generator declared for this expression or an equivalent one.
func (c Category) Lookup(path string) (Generator, bool) {
	parsed, err := pactpath.Parse(path)
	for _, e := range c.entries {
		if e.Path.String() == path || (err == nil && e.Path.Equal(parsed)) {
			return e.Generator, true
		}
	}
	return nil, false
}

// Resolve selects the generator for a concrete location: the expression must cover the
// whole location, the highest weight wins and ties go to the first declared.
func (c Category) Resolve(concrete pactpath.Path) (Generator, bool) {
	best, bestWeight := -1, 0
	for i, e := range c.entries {
		if e.Path.Len() != concrete.Len() {
			continue
		}
		var weight int
		if c.Name == CategoryHeader {
			weight = e.Path.WeightFold(concrete)
		} else {
			weight = e.Path.Weight(concrete)
		}
		if weight > bestWeight {
			best, bestWeight = i, weight
		}
	}
	if best < 0 {
		return nil, false
	}
	return c.entries[best].Generator, true
}

// Generators is the full generator set of an interaction part, keyed by category.
type Generators struct {
	categories map[string]Category
}

func (g Generators) Category(name string) Category {
	if c, ok := g.categories[name]; ok {
		return c
	}
	return NewCategory(name)
}

// With returns a copy of the set with the generator added.
func (g Generators) With(category string, path pactpath.Path, gen Generator) Generators {
	return g.WithCategory(g.Category(category).With(path, gen))
}

// WithCategory returns a copy of the set with the category replaced.
func (g Generators) WithCategory(c Category) Generators {
	categories := make(map[string]Category, len(g.categories)+1)
	for k, v := range g.categories {
		categories[k] = v
	}
	if c.IsEmpty() {
		delete(categories, c.Name)
	} else {
		categories[c.Name] = c
	}
	if len(categories) == 0 {
		return Generators{}
	}
	return Generators{categories: categories}
}

func (g Generators) IsEmpty() bool {
	for _, c := range g.categories {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// CategoryNames returns the non-empty categories in sorted order.
func (g Generators) CategoryNames() []string {
	names := make([]string, 0, len(g.categories))
	for name, c := range g.categories {
		if !c.IsEmpty() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Generate applies the generator resolved for path in category to *value. On failure the
// value is left unchanged and the error returned; when no generator applies nothing
// happens.
func (g Generators) Generate(category string, path pactpath.Path, ctx *Context, value *interface{}) error {
	gen, ok := g.Category(category).Resolve(path)
	if !ok {
		return nil
	}
	generated, err := gen.Generate(ctx, *value)
	if err != nil {
		return errors.Wrapf(err, "unable to generate value for %s %s", category, path)
	}
	*value = generated
	return nil
}
