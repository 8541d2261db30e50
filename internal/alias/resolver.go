package alias

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultMarker prefixes imports that should be resolved through aliases or the
// dependency directory rather than relative to the importing file.
const DefaultMarker = "~"

// DefaultModulesDir is the fallback root, relative to the working directory, used
// when Options leaves it empty.
const DefaultModulesDir = "node_modules"

// ErrNoAlias is returned in strict mode when a marked import matches no alias.
var ErrNoAlias = errors.New("no alias matches import")

// Kind describes how an import was resolved.
type Kind int

const (
	// Unmatched means the import is not ours to resolve and the caller should try
	// its next strategy.
	Unmatched Kind = iota
	Aliased
	Fallback
)

func (k Kind) String() string {
	switch k {
	case Aliased:
		return "aliased"
	case Fallback:
		return "fallback"
	default:
		return "unmatched"
	}
}

type Result struct {
	Path  string
	Kind  Kind
	Alias string
}

// Resolved reports whether the result carries a file path.
func (r Result) Resolved() bool {
	return r.Kind != Unmatched
}

type Options struct {
	// Marker defaults to DefaultMarker when empty.
	Marker string
	// FallbackRoot is the dependency directory used when no alias matches,
	// conventionally <root>/node_modules. Empty means DefaultModulesDir; relative
	// roots are made absolute against the working directory.
	FallbackRoot string
	// Strict turns the fallback into ErrNoAlias.
	Strict bool
}

// Resolver binds a Table to a set of Options. It holds no mutable state and is
// safe for concurrent use.
type Resolver struct {
	table *Table
	opts  Options
}

func New(table *Table, opts Options) *Resolver {
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if table == nil {
		table = &Table{}
	}
	if opts.FallbackRoot == "" {
		opts.FallbackRoot = DefaultModulesDir
	}
	if abs, err := filepath.Abs(opts.FallbackRoot); err == nil {
		opts.FallbackRoot = abs
	}
	return &Resolver{table: table, opts: opts}
}

func (r *Resolver) Table() *Table { return r.table }

func (r *Resolver) Options() Options { return r.opts }

// Resolve rewrites importPath. Paths without the marker are Unmatched. Marked paths
// are rewritten by the longest matching alias, otherwise joined onto FallbackRoot.
// The file system is never consulted.
func (r *Resolver) Resolve(importPath string) (Result, error) {
	if !strings.HasPrefix(importPath, r.opts.Marker) {
		return Result{Kind: Unmatched}, nil
	}

	bare := strings.TrimPrefix(importPath, r.opts.Marker)

	if p, e, ok := r.table.Rewrite(bare); ok {
		return Result{Path: p, Kind: Aliased, Alias: e.Alias}, nil
	}

	if r.opts.Strict {
		return Result{Kind: Unmatched}, fmt.Errorf("%w: %s", ErrNoAlias, importPath)
	}

	return Result{Path: filepath.Join(r.opts.FallbackRoot, bare), Kind: Fallback}, nil
}

// Resolve is a convenience for a one-off resolution against table.
func Resolve(importPath string, table *Table, opts Options) (Result, error) {
	return New(table, opts).Resolve(importPath)
}
