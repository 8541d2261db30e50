package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectConfig = `
aliases:
  "@src": src/
  "@styles": src/styles/
  "@common": src/common/
build:
  entry_points: src/*.ts
  output_dir: build
  metafile: build/meta.json
  minify: false
  source_map: false
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func TestResolveCmd_Run(t *testing.T) {
	root := writeProject(t, map[string]string{"assetkit.yaml": projectConfig})

	var out bytes.Buffer
	cmd := &ResolveCmd{
		Imports: []string{"~@common/button.scss", "~unknown/foo.scss", "local.scss"},
		Out:     &out,
	}

	err := cmd.Run(context.Background(), &Globals{ConfigFiles: []string{filepath.Join(root, "assetkit.yaml")}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], filepath.Join(root, "src/common/button.scss"))
	assert.Contains(t, lines[1], "aliased")
	assert.Contains(t, lines[2], filepath.Join(root, "node_modules/unknown/foo.scss"))
	assert.Contains(t, lines[2], "fallback")
	assert.Contains(t, lines[3], "unmatched")
}

func TestResolveCmd_Strict(t *testing.T) {
	root := writeProject(t, map[string]string{"assetkit.yaml": projectConfig})

	var out bytes.Buffer
	cmd := &ResolveCmd{
		Imports: []string{"~@common/button.scss", "~unknown/foo.scss"},
		Out:     &out,
	}

	err := cmd.Run(context.Background(), &Globals{
		ConfigFiles: []string{filepath.Join(root, "assetkit.yaml")},
		Strict:      true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 imports failed")
	assert.Contains(t, out.String(), "no alias matches import")
}

func TestAliasesCmd_Run(t *testing.T) {
	root := writeProject(t, map[string]string{"assetkit.yaml": projectConfig})

	var out bytes.Buffer
	cmd := &AliasesCmd{Out: &out}
	require.NoError(t, cmd.Run(context.Background(), &Globals{ConfigFiles: []string{filepath.Join(root, "assetkit.yaml")}}))

	s := out.String()
	assert.Contains(t, s, "marker: ~")
	assert.Contains(t, s, "fallback: "+filepath.Join(root, "node_modules"))

	// longest aliases are listed, and matched, first
	assert.Less(t, strings.Index(s, "@common"), strings.Index(s, "@src"))
	assert.Less(t, strings.Index(s, "@styles"), strings.Index(s, "@src"))
}

func TestBuildAndScriptsCmd_Run(t *testing.T) {
	root := writeProject(t, map[string]string{
		"assetkit.yaml":       projectConfig,
		"src/main.ts":         "import { label } from \"@common/label\";\nimport \"./app.css\";\nconsole.log(label);\n",
		"src/common/label.ts": "export const label = \"component library\";\n",
		"src/app.css":         "@import \"~@styles/base.css\";\n",
		"src/styles/base.css": ".base { margin: 0; }\n",
	})
	globals := &Globals{ConfigFiles: []string{filepath.Join(root, "assetkit.yaml")}}

	require.NoError(t, (&BuildCmd{}).Run(context.Background(), globals))

	js, err := os.ReadFile(filepath.Join(root, "build/main.js"))
	require.NoError(t, err)
	assert.Contains(t, string(js), "component library")

	css, err := os.ReadFile(filepath.Join(root, "build/main.css"))
	require.NoError(t, err)
	assert.Contains(t, string(css), ".base")

	var out bytes.Buffer
	require.NoError(t, (&ScriptsCmd{Entry: "src/main.ts", Out: &out}).Run(context.Background(), globals))
	assert.Equal(t, "/build/main.js\n/build/main.css\n", out.String())

	err = (&ScriptsCmd{Entry: "src/missing.ts", Out: &out}).Run(context.Background(), globals)
	require.Error(t, err)
}

func TestBuildCmd_MissingConfig(t *testing.T) {
	err := (&BuildCmd{}).Run(context.Background(), &Globals{ConfigFiles: []string{"/does/not/exist.yaml"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestBuildCmd_HTMLPage(t *testing.T) {
	root := writeProject(t, map[string]string{
		"assetkit.yaml": projectConfig + `  clean: true
  html:
    template: src/index.html
    title: Components
`,
		"src/main.ts":       "console.log(\"page\");\n",
		"src/index.html":    "<title>{{.Title}}</title>{{range .Scripts}}<script src=\"{{.}}\"></script>{{end}}",
		"public/robots.txt": "User-agent: *\n",
		"build/stale.js":    "old",
	})
	globals := &Globals{ConfigFiles: []string{filepath.Join(root, "assetkit.yaml")}}

	require.NoError(t, (&BuildCmd{}).Run(context.Background(), globals))

	page, err := os.ReadFile(filepath.Join(root, "build/index.html"))
	require.NoError(t, err)
	assert.Equal(t, `<title>Components</title><script src="/main.js"></script>`, string(page))

	assert.FileExists(t, filepath.Join(root, "build/robots.txt"))
	assert.NoFileExists(t, filepath.Join(root, "build/stale.js"))
}
