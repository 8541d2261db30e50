package assets

import (
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/assetkit/internal/alias"
	"github.com/wolfeidau/assetkit/internal/sass"
)

type fakeStyles struct {
	compiled []string
	css      string
	err      error
}

func (f *fakeStyles) Compile(path string) (sass.Result, error) {
	f.compiled = append(f.compiled, path)
	return sass.Result{CSS: f.css}, f.err
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func newResolver(t *testing.T, root string, strict bool) *alias.Resolver {
	t.Helper()
	table, err := alias.NewTable(map[string]string{
		"@src":    filepath.Join(root, "src"),
		"@styles": filepath.Join(root, "src/styles"),
	})
	require.NoError(t, err)
	return alias.New(table, alias.Options{FallbackRoot: filepath.Join(root, "node_modules"), Strict: strict})
}

func testConfig(root, glob string) Config {
	return Config{
		EntryPointGlob: glob,
		OutputDir:      "build",
		MetafilePath:   "build/meta.json",
		WorkingDir:     root,
		Format:         "esm",
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuild_BareAliasImports(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.ts":      "import { greet } from \"@src/lib/greet\";\nconsole.log(greet(\"world\"));\n",
		"src/lib/greet.ts": "export const greet = (name: string): string => \"hello \" + name;\n",
	})

	p := New(testConfig(root, "src/main.ts"), WithResolver(newResolver(t, root, false)))
	require.NoError(t, p.Build())

	require.Contains(t, readFile(t, filepath.Join(root, "build/main.js")), "hello ")
	require.FileExists(t, filepath.Join(root, "build/meta.json"))

	scripts, entrypoint, err := p.LoadScripts("src/main.ts")
	require.NoError(t, err)
	require.Equal(t, "/build/main.js", entrypoint)
	require.Equal(t, []string{"/build/main.js"}, scripts)
}

func TestBuild_MarkedCSSImports(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/app.css":                          "@import \"~@styles/base.css\";\n@import \"~normalize/normalize.css\";\n.app { color: blue; }\n",
		"src/styles/base.css":                  ".base { margin: 0; }\n",
		"node_modules/normalize/normalize.css": "html { line-height: 1.15; }\n",
	})

	p := New(testConfig(root, "src/*.css"), WithResolver(newResolver(t, root, false)))
	require.NoError(t, p.Build())

	css := readFile(t, filepath.Join(root, "build/app.css"))
	require.Contains(t, css, ".base")
	require.Contains(t, css, "line-height: 1.15")
	require.Contains(t, css, ".app")
}

func TestBuild_StrictRejectsUnknownAlias(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/app.css":                          "@import \"~normalize/normalize.css\";\n",
		"node_modules/normalize/normalize.css": "html { line-height: 1.15; }\n",
	})

	p := New(testConfig(root, "src/app.css"), WithResolver(newResolver(t, root, true)))
	err := p.Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), "no alias matches import")
}

func TestBuild_SassThroughStyleCompiler(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/app.ts":     "import \"./theme.scss\";\nconsole.log(\"app\");\n",
		"src/theme.scss": "$c: red;\n.theme { color: $c; }\n",
	})

	styles := &fakeStyles{css: ".theme { color: red; }"}
	p := New(testConfig(root, "src/app.ts"), WithResolver(newResolver(t, root, false)), WithStyleCompiler(styles))
	require.NoError(t, p.Build())

	require.Equal(t, []string{filepath.Join(root, "src/theme.scss")}, styles.compiled)
	require.Contains(t, readFile(t, filepath.Join(root, "build/app.css")), "color: red")

	css, ok := p.Stylesheet("src/app.ts")
	require.True(t, ok)
	require.Equal(t, "/build/app.css", css)
}

func TestBuild_SassWithoutCompiler(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/app.ts":     "import \"./theme.scss\";\n",
		"src/theme.scss": ".theme { color: red; }\n",
	})

	err := New(testConfig(root, "src/app.ts")).Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), "no sass compiler configured")
}

func TestBuild_StyleCompilerError(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/app.ts":     "import \"./theme.scss\";\n",
		"src/theme.scss": ".theme {",
	})

	styles := &fakeStyles{err: errors.New("expected \"}\"")}
	err := New(testConfig(root, "src/app.ts"), WithStyleCompiler(styles)).Build()
	require.Error(t, err)
}

func TestBuild_Compress(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.ts": "console.log(\"" + strings.Repeat("compress me ", 20) + "\");\n",
	})

	cfg := testConfig(root, "src/main.ts")
	cfg.Compress = true
	require.NoError(t, New(cfg).Build())

	f, err := os.Open(filepath.Join(root, "build/main.js.gz"))
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, readFile(t, filepath.Join(root, "build/main.js")), string(data))
}

func TestBuild_RecursiveGlob(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/pages/index.ts":       "console.log(\"index\");\n",
		"src/pages/admin/users.ts": "console.log(\"users\");\n",
	})

	p := New(testConfig(root, "src/pages/**/*.ts"))
	require.NoError(t, p.Build())

	_, _, err := p.LoadScripts("src/pages/index.ts")
	require.NoError(t, err)
	_, _, err = p.LoadScripts("src/pages/admin/users.ts")
	require.NoError(t, err)
}

func TestBuild_NoEntryPoints(t *testing.T) {
	err := New(testConfig(t.TempDir(), "src/*.ts")).Build()
	require.ErrorIs(t, err, ErrNoEntryPoints)
}

func TestBuild_UnknownFormat(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/main.ts": "console.log(1);\n"})

	cfg := testConfig(root, "src/main.ts")
	cfg.Format = "amd"
	err := New(cfg).Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown output format")
}

func TestLoadScripts_NotBuilt(t *testing.T) {
	_, _, err := New(DefaultConfig()).LoadScripts("src/main.ts")
	require.ErrorIs(t, err, ErrNotBuilt)
}

func TestLoadScripts_FollowsChunks(t *testing.T) {
	dir := t.TempDir()
	metafile := filepath.Join(dir, "meta.json")
	writeFiles(t, dir, map[string]string{"meta.json": `{
  "outputs": {
    "build/main.js": {"entryPoint": "src/main.ts", "imports": [
      {"path": "build/chunk-A.js", "kind": "import-statement"},
      {"path": "build/lazy.js", "kind": "dynamic-import"}
    ]},
    "build/chunk-A.js": {"imports": [{"path": "build/chunk-B.js", "kind": "import-statement"}]},
    "build/chunk-B.js": {"imports": [{"path": "build/chunk-A.js", "kind": "import-statement"}]},
    "build/lazy.js": {"imports": []}
  }
}`})

	p := New(DefaultConfig())
	require.NoError(t, p.LoadMetadata(metafile))

	scripts, entrypoint, err := p.LoadScripts("src/main.ts")
	require.NoError(t, err)
	require.Equal(t, "/build/main.js", entrypoint)
	require.Equal(t, []string{"/build/main.js", "/build/chunk-A.js", "/build/chunk-B.js"}, scripts)

	_, _, err = p.LoadScripts("src/other.ts")
	require.Error(t, err)
}

func TestAliasFilter(t *testing.T) {
	table, err := alias.NewTable(map[string]string{"@src": "/p/src", "a.b": "/p/ab"})
	require.NoError(t, err)
	require.Equal(t, `^(?:@src(?:/|$)|a\.b(?:/|$))`, aliasFilter(table))

	withSlash, err := alias.NewTable(map[string]string{"@lib/": "/p/lib"})
	require.NoError(t, err)
	require.Equal(t, `^(?:@lib/)`, aliasFilter(withSlash))

	empty, err := alias.NewTable(nil)
	require.NoError(t, err)
	require.Equal(t, "", aliasFilter(empty))
}

func TestRewriteModule(t *testing.T) {
	table, err := alias.NewTable(map[string]string{
		"react": "/p/shims/react",
		"@lib/": "/p/lib/",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "exact module", input: "react", expected: "/p/shims/react", ok: true},
		{name: "module subpath", input: "react/jsx-runtime", expected: "/p/shims/react/jsx-runtime", ok: true},
		{name: "sibling package", input: "react-dom", ok: false},
		{name: "sibling package subpath", input: "react-dom/client", ok: false},
		{name: "alias with trailing slash", input: "@lib/button", expected: "/p/lib/button", ok: true},
		{name: "unrelated", input: "./local", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, ok := rewriteModule(table, tt.input)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.expected, p)
		})
	}
}

func TestBuild_BareAliasLeavesSiblingPackages(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.ts":                     "import { shim } from \"react\";\nimport { dom } from \"react-dom\";\nconsole.log(shim, dom);\n",
		"shims/react/index.ts":            "export const shim = \"react shim\";\n",
		"node_modules/react-dom/index.js": "export const dom = \"real react-dom\";\n",
	})

	table, err := alias.NewTable(map[string]string{"react": filepath.Join(root, "shims/react")})
	require.NoError(t, err)
	resolver := alias.New(table, alias.Options{FallbackRoot: filepath.Join(root, "node_modules")})

	require.NoError(t, New(testConfig(root, "src/main.ts"), WithResolver(resolver)).Build())

	js := readFile(t, filepath.Join(root, "build/main.js"))
	require.Contains(t, js, "react shim")
	require.Contains(t, js, "real react-dom")
}

func TestBuild_SvelteComponentRejected(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.ts":       "import Button from \"./Button.svelte\";\nconsole.log(Button);\n",
		"src/Button.svelte": "<button>ok</button>\n",
	})

	err := New(testConfig(root, "src/main.ts")).Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), "no loader for svelte components")
}

func TestBuild_SvelteExtensionNotImplied(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.ts":       "import Button from \"./Button\";\nconsole.log(Button);\n",
		"src/Button.svelte": "<button>ok</button>\n",
	})

	err := New(testConfig(root, "src/main.ts")).Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Could not resolve")
}
