// Package alias rewrites aliased style imports such as "~@styles/button.scss" into
// absolute file paths.
package alias

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInvalidAlias is returned by NewTable when an entry cannot be used for resolution.
var ErrInvalidAlias = errors.New("invalid alias")

// Entry maps an alias prefix to the directory it stands for.
type Entry struct {
	Alias  string
	Target string
}

// Table is an immutable set of aliases held in match order: longest alias first,
// equal lengths ordered lexically. The first entry whose alias prefixes a path wins,
// so overlapping aliases such as "@a" and "@ab" always resolve to the longer one.
type Table struct {
	entries []Entry
}

// NewTable validates and copies aliases into a Table. Targets must be absolute.
func NewTable(aliases map[string]string) (*Table, error) {
	entries := make([]Entry, 0, len(aliases))

	for name, target := range aliases {
		if name == "" {
			return nil, fmt.Errorf("%w: empty alias name", ErrInvalidAlias)
		}
		if !filepath.IsAbs(target) {
			return nil, fmt.Errorf("%w: target for %q must be absolute, got %q", ErrInvalidAlias, name, target)
		}
		entries = append(entries, Entry{Alias: name, Target: target})
	}

	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].Alias) != len(entries[j].Alias) {
			return len(entries[i].Alias) > len(entries[j].Alias)
		}
		return entries[i].Alias < entries[j].Alias
	})

	return &Table{entries: entries}, nil
}

// Entries returns a copy of the table in match order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Match returns the first entry whose alias is a character-level prefix of path.
func (t *Table) Match(path string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	for _, e := range t.entries {
		if strings.HasPrefix(path, e.Alias) {
			return e, true
		}
	}
	return Entry{}, false
}

// Rewrite substitutes the matching alias in path with its target directory.
func (t *Table) Rewrite(path string) (string, Entry, bool) {
	e, ok := t.Match(path)
	if !ok {
		return "", Entry{}, false
	}
	return filepath.Clean(e.Target + path[len(e.Alias):]), e, true
}
