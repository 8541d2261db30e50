package assets

type Config struct {
	// Entry point glob pattern relative to WorkingDir (e.g., "src/pages/**/*.ts")
	EntryPointGlob string
	// Output directory for built files
	OutputDir string
	// Path to metafile
	MetafilePath string
	// Project directory; relative paths resolve against it. Defaults to the process working directory.
	WorkingDir string
	// Output format: esm, iife or cjs
	Format string
	// Whether to minify output
	Minify bool
	// Whether to enable source maps
	SourceMap bool
	// Whether to split shared code into chunks, esm only
	Splitting bool
	// Whether to write gzip copies of js, css, map and svg outputs
	Compress bool
	// Remove OutputDir before building; it must sit inside WorkingDir
	Clean bool
	// Directory copied verbatim into OutputDir after bundling, skipped when missing
	PublicDir string
	// Template rendered with the entry point scripts and stylesheets, disabled when empty
	HTMLTemplate string
	// Where the rendered page is written, defaults to OutputDir/index.html
	HTMLOutput string
	// Page title handed to the template
	Title string
	// URL prefix the page uses to reference outputs, defaults to "/"
	PublicPath string
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		EntryPointGlob: "src/main.ts",
		OutputDir:      "build",
		MetafilePath:   "build/meta.json",
		Format:         "esm",
		Minify:         true,
		SourceMap:      true,
		PublicDir:      "public",
		PublicPath:     "/",
	}
}
