package assets

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/assetkit/internal/alias"
)

// AliasPlugin resolves two kinds of import through the alias table:
//
//   - marked imports ("~@styles/base.css", "~normalize.css") go through the
//     resolver, including its node_modules fallback
//   - bare aliased imports ("@src/components/Button.ts") are rewritten by the
//     table only, leaving everything else to esbuild. These match whole module
//     names: "react" captures "react" and "react/jsx-runtime", never "react-dom".
//
// Rewritten paths are handed back to esbuild so extensions and index files are
// still tried.
func AliasPlugin(resolver *alias.Resolver) api.Plugin {
	return api.Plugin{
		Name: "alias",
		Setup: func(build api.PluginBuild) {
			marker := resolver.Options().Marker

			build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(marker)},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					res, err := resolver.Resolve(args.Path)
					if err != nil {
						return api.OnResolveResult{}, err
					}
					if !res.Resolved() {
						return api.OnResolveResult{}, nil
					}
					log.Debug().Str("import", args.Path).Str("kind", res.Kind.String()).Str("path", res.Path).Msg("Resolved import")
					return resolveRewritten(build, res.Path, args)
				})

			filter := aliasFilter(resolver.Table())
			if filter == "" {
				return
			}

			build.OnResolve(api.OnResolveOptions{Filter: filter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					rewritten, e, ok := rewriteModule(resolver.Table(), args.Path)
					if !ok {
						return api.OnResolveResult{}, nil
					}
					log.Debug().Str("import", args.Path).Str("alias", e.Alias).Str("path", rewritten).Msg("Resolved import")
					return resolveRewritten(build, rewritten, args)
				})
		},
	}
}

func resolveRewritten(build api.PluginBuild, path string, args api.OnResolveArgs) (api.OnResolveResult, error) {
	result := build.Resolve(path, api.ResolveOptions{
		Importer:   args.Importer,
		ResolveDir: args.ResolveDir,
		Kind:       args.Kind,
	})
	if len(result.Errors) > 0 {
		return api.OnResolveResult{Errors: result.Errors, Warnings: result.Warnings}, nil
	}
	return api.OnResolveResult{
		Path:      result.Path,
		External:  result.External,
		Namespace: result.Namespace,
		Suffix:    result.Suffix,
		Warnings:  result.Warnings,
	}, nil
}

// rewriteModule substitutes the first alias naming the leading module segment of path.
func rewriteModule(table *alias.Table, path string) (string, alias.Entry, bool) {
	for _, e := range table.Entries() {
		if moduleMatch(e.Alias, path) {
			return filepath.Clean(e.Target + path[len(e.Alias):]), e, true
		}
	}
	return "", alias.Entry{}, false
}

func moduleMatch(name, path string) bool {
	if strings.HasSuffix(name, "/") {
		return strings.HasPrefix(path, name)
	}
	return path == name || strings.HasPrefix(path, name+"/")
}

// aliasFilter matches imports whose leading module segment is one of the table's aliases.
func aliasFilter(table *alias.Table) string {
	entries := table.Entries()
	if len(entries) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Alias, "/") {
			quoted = append(quoted, regexp.QuoteMeta(e.Alias))
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(e.Alias)+"(?:/|$)")
	}
	return "^(?:" + strings.Join(quoted, "|") + ")"
}

// StylePlugin compiles Sass stylesheets and hands esbuild the resulting CSS.
func StylePlugin(compiler StyleCompiler) api.Plugin {
	return api.Plugin{
		Name: "sass",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.s[ac]ss$`, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					if compiler == nil {
						return api.OnLoadResult{}, fmt.Errorf("no sass compiler configured for %s", args.Path)
					}
					res, err := compiler.Compile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					return api.OnLoadResult{
						Contents:   &res.CSS,
						Loader:     api.LoaderCSS,
						ResolveDir: filepath.Dir(args.Path),
					}, nil
				})
		},
	}
}

// SveltePlugin fails imports of .svelte components with a clear error instead of
// esbuild's generic missing loader message.
func SveltePlugin() api.Plugin {
	return api.Plugin{
		Name: "svelte",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.svelte$`},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					return api.OnLoadResult{}, fmt.Errorf("no loader for svelte components: %s", args.Path)
				})
		},
	}
}
