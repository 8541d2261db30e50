package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// PageData is what the html template renders with.
type PageData struct {
	Title   string
	Scripts []string
	Styles  []string
	Context any
}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}
}

// RenderHTML writes the configured template for the current build to w.
func (p *Pipeline) RenderHTML(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return ErrNotBuilt
	}
	workingDir, err := p.workingDir()
	if err != nil {
		return err
	}
	return p.renderHTML(w, workingDir)
}

func (p *Pipeline) renderHTML(w io.Writer, workingDir string) error {
	if p.config.HTMLTemplate == "" {
		return errors.New("no html template configured")
	}

	path := p.config.HTMLTemplate
	if !filepath.IsAbs(path) {
		path = filepath.Join(workingDir, path)
	}

	tmpl, err := template.New(filepath.Base(path)).Funcs(p.funcs).ParseFiles(path)
	if err != nil {
		return fmt.Errorf("failed to parse html template: %w", err)
	}

	data, err := p.pageData(workingDir)
	if err != nil {
		return err
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render html template: %w", err)
	}
	return nil
}

// pageData collects scripts and stylesheets for every entry point, in entry point
// order, as URLs under PublicPath.
func (p *Pipeline) pageData(workingDir string) (PageData, error) {
	outDir := p.config.OutputDir
	if filepath.IsAbs(outDir) {
		rel, err := filepath.Rel(workingDir, outDir)
		if err != nil {
			return PageData{}, err
		}
		outDir = rel
	}
	prefix := "/" + filepath.ToSlash(filepath.Clean(outDir)) + "/"

	publicPath := p.config.PublicPath
	if publicPath == "" {
		publicPath = "/"
	}
	publicPath = strings.TrimSuffix(publicPath, "/") + "/"

	url := func(output string) string {
		return publicPath + strings.TrimPrefix(output, prefix)
	}

	data := PageData{Title: p.config.Title, Context: p.context, Scripts: []string{}, Styles: []string{}}
	seen := map[string]bool{}

	for _, entryPoint := range p.entryPoints() {
		// stylesheet entry points have no scripts
		scripts, _, err := p.loadScripts(entryPoint)
		if err != nil && !errors.Is(err, ErrEntryPointNotFound) {
			return PageData{}, err
		}
		for _, s := range scripts {
			if !seen[s] {
				seen[s] = true
				data.Scripts = append(data.Scripts, url(s))
			}
		}
		if css, ok := p.stylesheet(entryPoint); ok && !seen[css] {
			seen[css] = true
			data.Styles = append(data.Styles, url(css))
		}
	}

	return data, nil
}

func (p *Pipeline) entryPoints() []string {
	var entryPoints []string
	for _, info := range p.metadata.Outputs {
		if info.EntryPoint != "" && !slices.Contains(entryPoints, info.EntryPoint) {
			entryPoints = append(entryPoints, info.EntryPoint)
		}
	}
	slices.Sort(entryPoints)
	return entryPoints
}

func (p *Pipeline) writeHTML(workingDir string) error {
	var buf bytes.Buffer
	if err := p.renderHTML(&buf, workingDir); err != nil {
		return err
	}

	out := p.config.HTMLOutput
	if out == "" {
		out = filepath.Join(p.config.OutputDir, "index.html")
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(workingDir, out)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o600); err != nil {
		return err
	}

	log.Info().Str("file", out).Int("bytes", buf.Len()).Msg("Rendered html")
	return nil
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
