package assets

import (
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

var compressibleExts = map[string]bool{
	".js":  true,
	".css": true,
	".map": true,
	".svg": true,
}

// compressOutputs writes a .gz copy next to every compressible output so a
// static file server can hand out pre-compressed assets.
func compressOutputs(workingDir string, metadata *BuildMetadata) error {
	for outputPath := range metadata.Outputs {
		if !compressibleExts[filepath.Ext(outputPath)] {
			continue
		}
		path := filepath.Join(workingDir, filepath.FromSlash(outputPath))
		if err := compressFile(path); err != nil {
			return err
		}
		log.Debug().Str("file", path+".gz").Msg("Compressed file")
	}
	return nil
}

func compressFile(path string) (err error) {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
	}()

	zw, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
	if err != nil {
		return err
	}
	if _, err = io.Copy(zw, src); err != nil {
		return err
	}
	return zw.Close()
}
