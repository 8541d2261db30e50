package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/wolfeidau/assetkit/internal/alias"
	"github.com/wolfeidau/assetkit/internal/assets"
	"github.com/wolfeidau/assetkit/internal/config"
	"github.com/wolfeidau/assetkit/internal/logger"
	"github.com/wolfeidau/assetkit/internal/sass"
	"github.com/wolfeidau/assetkit/internal/telemetry"
)

type Globals struct {
	Debug       bool
	Version     string
	ConfigFiles []string
	Strict      bool
	Telemetry   bool
}

// setup configures logging and, when enabled, telemetry. The returned func flushes
// telemetry and must be called before the command returns.
func (g *Globals) setup(ctx context.Context) func() {
	logger.Setup(g.Debug)

	if !g.Telemetry {
		return func() {}
	}

	shutdown, err := telemetry.InitTelemetry(ctx, "assetkit", g.Version)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}

// loadConfig reads the layered config files and applies command line overrides.
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(afero.NewOsFs(), g.ConfigFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if g.Strict {
		cfg.Strict = config.BoolPtr(true)
	}

	log.Debug().
		Strs("files", g.ConfigFiles).
		Str("root", cfg.Root).
		Int("aliases", len(cfg.Aliases)).
		Bool("strict", config.Bool(cfg.Strict)).
		Msg("Configuration loaded")

	return cfg, nil
}

func assetsConfig(cfg *config.Config) assets.Config {
	return assets.Config{
		EntryPointGlob: cfg.Build.EntryPoints,
		OutputDir:      cfg.Build.OutputDir,
		MetafilePath:   cfg.Path(cfg.Build.Metafile),
		WorkingDir:     cfg.Root,
		Format:         cfg.Build.Format,
		Minify:         config.Bool(cfg.Build.Minify),
		SourceMap:      config.Bool(cfg.Build.SourceMap),
		Splitting:      config.Bool(cfg.Build.Splitting),
		Compress:       config.Bool(cfg.Build.Compress),
		Clean:          config.Bool(cfg.Build.Clean),
		PublicDir:      cfg.Build.PublicDir,
		HTMLTemplate:   optionalPath(cfg, cfg.Build.HTML.Template),
		HTMLOutput:     optionalPath(cfg, cfg.Build.HTML.Output),
		Title:          cfg.Build.HTML.Title,
		PublicPath:     cfg.Build.HTML.PublicPath,
	}
}

func optionalPath(cfg *config.Config, p string) string {
	if p == "" {
		return ""
	}
	return cfg.Path(p)
}

func sassOptions(cfg *config.Config) sass.Options {
	includePaths := make([]string, 0, len(cfg.Sass.IncludePaths))
	for _, p := range cfg.Sass.IncludePaths {
		includePaths = append(includePaths, cfg.Path(p))
	}
	return sass.Options{
		Binary:       cfg.Sass.Binary,
		Timeout:      cfg.Sass.Timeout,
		OutputStyle:  cfg.Sass.OutputStyle,
		IncludePaths: includePaths,
		SourceMap:    config.Bool(cfg.Sass.SourceMap),
	}
}

// lazyCompiler defers starting Dart Sass until a stylesheet actually needs it, so
// builds without Sass sources do not require the binary.
type lazyCompiler struct {
	resolver *alias.Resolver
	opts     sass.Options

	once     sync.Once
	compiler *sass.Compiler
	err      error
}

func (l *lazyCompiler) Compile(path string) (sass.Result, error) {
	l.once.Do(func() {
		l.compiler, l.err = sass.NewCompiler(l.resolver, l.opts)
	})
	if l.err != nil {
		return sass.Result{}, l.err
	}
	return l.compiler.Compile(path)
}

func (l *lazyCompiler) Close() error {
	if l.compiler == nil {
		return nil
	}
	return l.compiler.Close()
}

func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
