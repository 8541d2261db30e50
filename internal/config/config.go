// Package config loads the layered YAML configuration shared by the bundler and
// the Sass compiler.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/assetkit/internal/alias"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Root is the project directory. Relative paths elsewhere in the config resolve
	// against it; a relative root resolves against the first config file's directory.
	Root       string            `yaml:"root"`
	Marker     string            `yaml:"marker"`
	ModulesDir string            `yaml:"modules_dir"`
	Strict     *bool             `yaml:"strict"`
	Aliases    map[string]string `yaml:"aliases"`
	Build      Build             `yaml:"build"`
	Sass       Sass              `yaml:"sass"`
}

type Build struct {
	// Glob for entry points, "**" is supported (e.g. "src/pages/**/*.ts")
	EntryPoints string `yaml:"entry_points"`
	OutputDir   string `yaml:"output_dir"`
	Metafile    string `yaml:"metafile"`
	// One of esm, iife or cjs
	Format    string `yaml:"format"`
	Minify    *bool  `yaml:"minify"`
	SourceMap *bool  `yaml:"source_map"`
	Splitting *bool  `yaml:"splitting"`
	// Write a gzip copy next to each js, css, map and svg output
	Compress *bool `yaml:"compress"`
	// Remove output_dir before each build
	Clean *bool `yaml:"clean"`
	// Copied as is into output_dir
	PublicDir string `yaml:"public_dir"`
	HTML      HTML   `yaml:"html"`
}

// HTML renders a page that loads the built entry points.
type HTML struct {
	// Go html/template file, no page is written when empty
	Template string `yaml:"template"`
	// Defaults to index.html inside output_dir
	Output     string `yaml:"output"`
	Title      string `yaml:"title"`
	PublicPath string `yaml:"public_path"`
}

type Sass struct {
	// Path to the Dart Sass executable, looked up on PATH when empty
	Binary       string        `yaml:"binary"`
	OutputStyle  string        `yaml:"output_style"`
	IncludePaths []string      `yaml:"include_paths"`
	Timeout      time.Duration `yaml:"timeout"`
	SourceMap    *bool         `yaml:"source_map"`
}

// Default returns the configuration used before any file is layered on top.
func Default() *Config {
	return &Config{
		Root:       ".",
		Marker:     alias.DefaultMarker,
		ModulesDir: "node_modules",
		Strict:     BoolPtr(false),
		Aliases:    map[string]string{},
		Build: Build{
			EntryPoints: "src/main.ts",
			OutputDir:   "build",
			Metafile:    "build/meta.json",
			Format:      "esm",
			Minify:      BoolPtr(true),
			SourceMap:   BoolPtr(true),
			Splitting:   BoolPtr(false),
			Compress:    BoolPtr(false),
			Clean:       BoolPtr(false),
			PublicDir:   "public",
			HTML: HTML{
				PublicPath: "/",
			},
		},
		Sass: Sass{
			OutputStyle: "expanded",
			Timeout:     30 * time.Second,
			SourceMap:   BoolPtr(false),
		},
	}
}

// Load merges each file in paths, in order, over Default. Later files override
// scalar values and add to or replace alias entries.
func Load(fs afero.Fs, paths ...string) (*Config, error) {
	cfg := Default()

	for _, p := range paths {
		data, err := afero.ReadFile(fs, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", p, err)
		}

		var layer Config
		if err := yaml.Unmarshal(data, &layer); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", p, err)
		}

		if err := mergo.Merge(cfg, layer, mergo.WithOverride, mergo.WithoutDereference); err != nil {
			return nil, fmt.Errorf("failed to merge config %s: %w", p, err)
		}

		log.Debug().Str("path", p).Int("aliases", len(layer.Aliases)).Msg("Loaded config layer")
	}

	if !filepath.IsAbs(cfg.Root) {
		base, err := baseDir(paths)
		if err != nil {
			return nil, err
		}
		cfg.Root = filepath.Join(base, cfg.Root)
	}
	cfg.Root = filepath.Clean(cfg.Root)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func baseDir(paths []string) (string, error) {
	if len(paths) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return wd, nil
	}
	dir, err := filepath.Abs(filepath.Dir(paths[0]))
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return dir, nil
}

func (c *Config) Validate() error {
	if c.Marker == "" {
		return fmt.Errorf("%w: marker must not be empty", ErrInvalidConfig)
	}
	if c.ModulesDir == "" {
		return fmt.Errorf("%w: modules_dir must not be empty", ErrInvalidConfig)
	}
	for name := range c.Aliases {
		if name == "" {
			return fmt.Errorf("%w: alias names must not be empty", ErrInvalidConfig)
		}
	}
	switch c.Build.Format {
	case "esm", "iife", "cjs":
	default:
		return fmt.Errorf("%w: unknown build format %q (esm, iife or cjs)", ErrInvalidConfig, c.Build.Format)
	}
	switch c.Sass.OutputStyle {
	case "expanded", "compressed":
	default:
		return fmt.Errorf("%w: unknown sass output style %q (expanded or compressed)", ErrInvalidConfig, c.Sass.OutputStyle)
	}
	if c.Build.HTML.PublicPath != "" && !strings.HasPrefix(c.Build.HTML.PublicPath, "/") && !strings.Contains(c.Build.HTML.PublicPath, "://") {
		return fmt.Errorf("%w: html public_path %q must be absolute or a url", ErrInvalidConfig, c.Build.HTML.PublicPath)
	}
	if c.Sass.Timeout < 0 {
		return fmt.Errorf("%w: sass timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Path resolves p against Root unless it is already absolute.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root, p)
}

// FallbackRoot is the dependency directory marked imports fall back to.
func (c *Config) FallbackRoot() string {
	return c.Path(c.ModulesDir)
}

// AliasTable builds the immutable alias table with absolute targets.
func (c *Config) AliasTable() (*alias.Table, error) {
	resolved := make(map[string]string, len(c.Aliases))
	for name, target := range c.Aliases {
		resolved[name] = c.Path(target)
	}
	return alias.NewTable(resolved)
}

func (c *Config) Resolver() (*alias.Resolver, error) {
	table, err := c.AliasTable()
	if err != nil {
		return nil, fmt.Errorf("failed to build alias table: %w", err)
	}
	return alias.New(table, alias.Options{
		Marker:       c.Marker,
		FallbackRoot: c.FallbackRoot(),
		Strict:       Bool(c.Strict),
	}), nil
}

func BoolPtr(v bool) *bool { return &v }

// Bool dereferences p, treating nil as false.
func Bool(p *bool) bool { return p != nil && *p }
