package sass

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/godartsass/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/wolfeidau/assetkit/internal/alias"
	"github.com/wolfeidau/assetkit/internal/telemetry"
)

type Options struct {
	// Dart Sass executable, godartsass looks for "sass" on PATH when empty
	Binary       string
	Timeout      time.Duration
	OutputStyle  string
	IncludePaths []string
	SourceMap    bool
	// Filesystem for sources and resolved imports, defaults to the OS
	FS afero.Fs
}

type Result struct {
	CSS       string
	SourceMap string
}

// Compiler owns one Dart Sass process. Compile may be called concurrently.
type Compiler struct {
	transpiler *godartsass.Transpiler
	importer   *Importer
	opts       Options
}

func NewCompiler(resolver *alias.Resolver, opts Options) (*Compiler, error) {
	if resolver == nil {
		return nil, errors.New("sass compiler requires an alias resolver")
	}
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}

	transpiler, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: opts.Binary,
		Timeout:                  opts.Timeout,
		LogEventHandler:          logEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start dart sass: %w", err)
	}

	return &Compiler{
		transpiler: transpiler,
		importer:   NewImporter(resolver, opts.FS),
		opts:       opts,
	}, nil
}

// Compile reads the stylesheet at path and compiles it to CSS.
func (c *Compiler) Compile(path string) (Result, error) {
	data, err := afero.ReadFile(c.opts.FS, path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read stylesheet: %w", err)
	}
	return c.CompileSource(path, string(data))
}

// CompileSource compiles source as if it were read from path; imports relative to
// path resolve against its directory.
func (c *Compiler) CompileSource(path, source string) (Result, error) {
	started := time.Now()
	m := telemetry.GetMetrics()
	ctx := context.Background()

	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve stylesheet path: %w", err)
	}

	includePaths := make([]string, 0, len(c.opts.IncludePaths)+1)
	includePaths = append(includePaths, filepath.Dir(abs))
	includePaths = append(includePaths, c.opts.IncludePaths...)

	res, err := c.transpiler.Execute(godartsass.Args{
		Source:                  source,
		URL:                     toFileURL(abs),
		SourceSyntax:            syntaxFor(abs),
		OutputStyle:             godartsass.ParseOutputStyle(c.opts.OutputStyle),
		ImportResolver:          c.importer,
		IncludePaths:            includePaths,
		EnableSourceMap:         c.opts.SourceMap,
		SourceMapIncludeSources: c.opts.SourceMap,
	})

	m.SassCompileTotal.Add(ctx, 1)
	m.SassCompileDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	if err != nil {
		m.SassCompileErrorsTotal.Add(ctx, 1)
		return Result{}, fmt.Errorf("failed to compile %s: %w", path, err)
	}

	log.Debug().Str("file", path).Dur("duration", time.Since(started)).Msg("Compiled stylesheet")

	return Result{CSS: res.CSS, SourceMap: res.SourceMap}, nil
}

func (c *Compiler) Close() error {
	return c.transpiler.Close()
}

func logEvent(event godartsass.LogEvent) {
	switch event.Type {
	case godartsass.LogEventTypeDebug:
		log.Debug().Msg(event.Message)
	case godartsass.LogEventTypeDeprecated:
		log.Warn().Str("type", "deprecated").Msg(event.Message)
	default:
		log.Warn().Msg(event.Message)
	}
}
