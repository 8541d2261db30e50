package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/wolfeidau/assetkit/internal/telemetry"
)

var (
	mainFields        = []string{"browser", "module", "main"}
	resolveExtensions = []string{".mjs", ".ts", ".tsx", ".js", ".scss", ".css"}

	// Static assets are copied next to the bundle and referenced by URL.
	fileLoaders = map[string]api.Loader{
		".svg": api.LoaderFile,
		".png": api.LoaderFile,
		".jpg": api.LoaderFile,
		".ico": api.LoaderFile,
		".md":  api.LoaderText,
	}
)

// Build runs esbuild with the configured settings and loads metadata
func (p *Pipeline) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	started := time.Now()
	ctx := context.Background()
	m := telemetry.GetMetrics()

	workingDir, err := p.workingDir()
	if err != nil {
		return err
	}

	entryPoints, err := doublestar.Glob(os.DirFS(workingDir), p.config.EntryPointGlob)
	if err != nil {
		return fmt.Errorf("invalid entry point glob %q: %w", p.config.EntryPointGlob, err)
	}

	if len(entryPoints) == 0 {
		return ErrNoEntryPoints
	}

	format, err := parseFormat(p.config.Format)
	if err != nil {
		return err
	}

	if p.config.Clean {
		if err := cleanOutputDir(workingDir, p.config.OutputDir); err != nil {
			return err
		}
	}

	log.Info().Strs("entrypoints", entryPoints).Str("dir", workingDir).Msg("Building assets")

	plugins := []api.Plugin{}
	if p.resolver != nil {
		plugins = append(plugins, AliasPlugin(p.resolver))
	}
	plugins = append(plugins, StylePlugin(p.styles), SveltePlugin())

	result := api.Build(api.BuildOptions{
		EntryPoints:       entryPoints,
		AbsWorkingDir:     workingDir,
		Bundle:            true,
		Splitting:         p.config.Splitting && format == api.FormatESModule,
		Write:             true,
		Outdir:            p.config.OutputDir,
		Format:            format,
		MainFields:        mainFields,
		ResolveExtensions: resolveExtensions,
		Loader:            fileLoaders,
		MinifyWhitespace:  p.config.Minify,
		MinifyIdentifiers: p.config.Minify,
		MinifySyntax:      p.config.Minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(p.config.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:          true,
		Plugins:           plugins,
		LogLevel:          api.LogLevelSilent,
	})

	m.BuildDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	for _, msg := range result.Warnings {
		log.Warn().Str("warning", msg.Text).Str("file", location(msg)).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		m.BuildErrorsTotal.Add(ctx, int64(len(result.Errors)))
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Str("file", location(msg)).Msg("Build error")
		}
		return fmt.Errorf("esbuild failed with errors: %s", result.Errors[0].Text)
	}

	metafilePath := p.config.MetafilePath
	if !filepath.IsAbs(metafilePath) {
		metafilePath = filepath.Join(workingDir, metafilePath)
	}

	// Write metafile
	if err := os.MkdirAll(filepath.Dir(metafilePath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(metafilePath, []byte(result.Metafile), 0600); err != nil {
		return err
	}

	// Parse and cache metadata
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return err
	}

	var written int64
	for outputPath, info := range metadata.Outputs {
		written += info.Bytes
		log.Info().Str("file", outputPath).Int64("bytes", info.Bytes).Msg("Built file")
	}
	m.OutputBytesTotal.Add(ctx, written)

	if p.config.Compress {
		if err := compressOutputs(workingDir, &metadata); err != nil {
			return fmt.Errorf("failed to compress outputs: %w", err)
		}
	}

	p.metadata = &metadata

	if p.config.PublicDir != "" {
		if err := copyPublicDir(afero.NewOsFs(), workingDir, p.config.PublicDir, p.config.OutputDir); err != nil {
			return fmt.Errorf("failed to copy public files: %w", err)
		}
	}

	if p.config.HTMLTemplate != "" {
		if err := p.writeHTML(workingDir); err != nil {
			return err
		}
	}

	return nil
}

// LoadScripts returns the ordered list of script paths needed for the given entrypoint
// and the main entrypoint file path
func (p *Pipeline) LoadScripts(entryPointPath string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, "", ErrNotBuilt
	}
	return p.loadScripts(entryPointPath)
}

func (p *Pipeline) loadScripts(entryPointPath string) ([]string, string, error) {
	scripts := []string{}
	visited := make(map[string]bool)

	// Find the output file for this entrypoint
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == entryPointPath && !isStylesheet(outputPath) {
			entrypoint := "/" + outputPath
			scripts = append(scripts, entrypoint)
			visited[outputPath] = true
			p.addDependencies(info, &scripts, visited)
			return scripts, entrypoint, nil
		}
	}

	return nil, "", fmt.Errorf("%w: %s", ErrEntryPointNotFound, entryPointPath)
}

// Stylesheet returns the css bundle emitted for the given entrypoint, if any.
func (p *Pipeline) Stylesheet(entryPointPath string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return "", false
	}
	return p.stylesheet(entryPointPath)
}

func (p *Pipeline) stylesheet(entryPointPath string) (string, bool) {
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint != entryPointPath {
			continue
		}
		if info.CSSBundle != "" {
			return "/" + info.CSSBundle, true
		}
		if isStylesheet(outputPath) {
			return "/" + outputPath, true
		}
	}
	return "", false
}

func isStylesheet(outputPath string) bool {
	return strings.HasSuffix(outputPath, ".css")
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.Kind != "" && imp.Kind != "import-statement" {
			continue
		}
		if !visited[imp.Path] {
			visited[imp.Path] = true
			*scripts = append(*scripts, "/"+imp.Path)

			if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
				p.addDependencies(chunkInfo, scripts, visited)
			}
		}
	}
}

func (p *Pipeline) workingDir() (string, error) {
	if p.config.WorkingDir != "" {
		return filepath.Abs(p.config.WorkingDir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

func parseFormat(format string) (api.Format, error) {
	switch format {
	case "", "esm":
		return api.FormatESModule, nil
	case "iife":
		return api.FormatIIFE, nil
	case "cjs":
		return api.FormatCommonJS, nil
	default:
		return api.FormatDefault, fmt.Errorf("unknown output format %q", format)
	}
}

func location(msg api.Message) string {
	if msg.Location == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", msg.Location.File, msg.Location.Line, msg.Location.Column)
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
