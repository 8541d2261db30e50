package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// cleanOutputDir removes outDir ahead of a build. Only directories strictly
// inside workingDir are removed.
func cleanOutputDir(workingDir, outDir string) error {
	target := outDir
	if !filepath.IsAbs(target) {
		target = filepath.Join(workingDir, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(workingDir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to clean %s: output directory must be inside %s", target, workingDir)
	}

	log.Debug().Str("dir", target).Msg("Cleaning output directory")
	return os.RemoveAll(target)
}

// copyPublicDir copies every file under publicDir into outDir, keeping the
// directory layout. A missing publicDir is not an error.
func copyPublicDir(base afero.Fs, workingDir, publicDir, outDir string) error {
	if !filepath.IsAbs(publicDir) {
		publicDir = filepath.Join(workingDir, publicDir)
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(workingDir, outDir)
	}

	if _, err := base.Stat(publicDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("dir", publicDir).Msg("No public directory")
			return nil
		}
		return err
	}

	src := afero.NewBasePathFs(base, publicDir)
	dst := afero.NewBasePathFs(base, outDir)

	copied := 0
	err := afero.Walk(src, "/", func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return dst.MkdirAll(path, 0o755)
		}
		data, err := afero.ReadFile(src, path)
		if err != nil {
			return err
		}
		copied++
		return afero.WriteFile(dst, path, data, 0o644)
	})
	if err != nil {
		return err
	}

	log.Info().Str("from", publicDir).Int("files", copied).Msg("Copied public files")
	return nil
}
