// Package sass drives the Dart Sass embedded compiler and plugs the alias resolver
// into its import resolution.
package sass

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/bep/godartsass/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/assetkit/internal/alias"
	"github.com/wolfeidau/assetkit/internal/telemetry"
)

const fileScheme = "file"

var styleExts = []string{".scss", ".sass", ".css"}

var _ godartsass.ImportResolver = (*Importer)(nil)

// Importer resolves marked imports through an alias.Resolver and searches the
// resulting path for the file Sass would load: partials, extensions and index files.
// It declines (empty canonical URL) anything it cannot place so Sass moves on to
// its load paths.
type Importer struct {
	resolver *alias.Resolver
	fs       afero.Fs
}

func NewImporter(resolver *alias.Resolver, fs afero.Fs) *Importer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Importer{resolver: resolver, fs: fs}
}

func (i *Importer) CanonicalizeURL(u string) (string, error) {
	if strings.HasPrefix(u, fileScheme+":") {
		return i.canonicalizeRelative(u)
	}

	res, err := i.resolver.Resolve(u)
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	telemetry.GetMetrics().ImportsResolvedTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", res.Kind.String())))

	if !res.Resolved() {
		return "", nil
	}

	found, ok := i.lookup(res.Path)
	if !ok {
		telemetry.GetMetrics().ImportsMissingTotal.Add(ctx, 1)
		log.Debug().Str("import", u).Str("path", res.Path).Msg("No stylesheet found for import")
		return "", nil
	}

	log.Debug().
		Str("import", u).
		Str("kind", res.Kind.String()).
		Str("alias", res.Alias).
		Str("file", found).
		Msg("Resolved import")

	return toFileURL(found), nil
}

// canonicalizeRelative handles loads Sass already resolved against the importing
// stylesheet's URL.
func (i *Importer) canonicalizeRelative(u string) (string, error) {
	p, err := fromFileURL(u)
	if err != nil {
		return "", err
	}

	// Declining a path with no stylesheet behind it lets Sass retry the raw URL,
	// so "~@styles/x" joined onto the importer's directory still reaches the resolver.
	found, ok := i.lookup(p)
	if !ok {
		return "", nil
	}
	return toFileURL(found), nil
}

func (i *Importer) Load(canonicalizedURL string) (godartsass.Import, error) {
	p, err := fromFileURL(canonicalizedURL)
	if err != nil {
		return godartsass.Import{}, err
	}

	data, err := afero.ReadFile(i.fs, p)
	if err != nil {
		return godartsass.Import{}, fmt.Errorf("failed to load %s: %w", p, err)
	}

	return godartsass.Import{Content: string(data), SourceSyntax: syntaxFor(p)}, nil
}

func (i *Importer) lookup(p string) (string, bool) {
	for _, candidate := range candidates(p) {
		info, err := i.fs.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// candidates lists the files Sass considers for an import path, in preference order.
func candidates(p string) []string {
	dir, base := filepath.Split(p)

	for _, ext := range styleExts {
		if strings.HasSuffix(base, ext) {
			return []string{p, filepath.Join(dir, "_"+base)}
		}
	}

	out := make([]string, 0, 4*len(styleExts))
	for _, ext := range styleExts {
		out = append(out, p+ext, filepath.Join(dir, "_"+base+ext))
	}
	for _, ext := range styleExts {
		out = append(out, filepath.Join(p, "index"+ext), filepath.Join(p, "_index"+ext))
	}
	return out
}

func syntaxFor(p string) godartsass.SourceSyntax {
	switch filepath.Ext(p) {
	case ".sass":
		return godartsass.SourceSyntaxSASS
	case ".css":
		return godartsass.SourceSyntaxCSS
	default:
		return godartsass.SourceSyntaxSCSS
	}
}

func toFileURL(p string) string {
	return (&url.URL{Scheme: fileScheme, Path: filepath.ToSlash(p)}).String()
}

func fromFileURL(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", fmt.Errorf("invalid stylesheet url %q: %w", u, err)
	}
	if parsed.Scheme != fileScheme {
		return "", fmt.Errorf("unsupported stylesheet url %q", u)
	}
	return filepath.FromSlash(parsed.Path), nil
}
