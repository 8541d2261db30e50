package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"maps"
	"os"
	"sync"

	"github.com/wolfeidau/assetkit/internal/alias"
	"github.com/wolfeidau/assetkit/internal/sass"
)

var (
	ErrNoEntryPoints = errors.New("no entry points found")
	ErrNotBuilt      = errors.New("assets not built yet, call Build() first")

	ErrEntryPointNotFound = errors.New("entrypoint not found in metadata")
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
	CSSBundle  string       `json:"cssBundle"`
	Bytes      int64        `json:"bytes"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// StyleCompiler turns a Sass stylesheet into CSS for the bundler.
type StyleCompiler interface {
	Compile(path string) (sass.Result, error)
}

// Pipeline manages the asset build process and script loading
type Pipeline struct {
	config   Config
	resolver *alias.Resolver
	styles   StyleCompiler
	funcs    template.FuncMap
	context  any
	metadata *BuildMetadata
	mu       sync.RWMutex
}

type Option func(*Pipeline)

// WithResolver rewrites aliased imports while bundling.
func WithResolver(resolver *alias.Resolver) Option {
	return func(p *Pipeline) {
		p.resolver = resolver
	}
}

// WithStyleCompiler compiles .scss and .sass files encountered while bundling.
func WithStyleCompiler(styles StyleCompiler) Option {
	return func(p *Pipeline) {
		p.styles = styles
	}
}

// WithTemplateFuncs adds functions to the html template, replacing the built in
// marshal and safe helpers when the names collide.
func WithTemplateFuncs(funcs template.FuncMap) Option {
	return func(p *Pipeline) {
		maps.Copy(p.funcs, funcs)
	}
}

// WithTemplateContext exposes value to the html template as .Context.
func WithTemplateContext(value any) Option {
	return func(p *Pipeline) {
		p.context = value
	}
}

// New creates a new asset pipeline with the given configuration
func New(config Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		config: config,
		funcs:  defaultFuncs(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadMetadata loads a metafile written by a previous Build.
func (p *Pipeline) LoadMetadata(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read metafile: %w", err)
	}

	var metadata BuildMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return fmt.Errorf("failed to parse metafile: %w", err)
	}

	p.mu.Lock()
	p.metadata = &metadata
	p.mu.Unlock()
	return nil
}
