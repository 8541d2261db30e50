package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/assetkit/internal/sass"
)

type SassCmd struct {
	File   string `arg:"" help:"Stylesheet to compile" type:"existingfile"`
	Output string `help:"Write CSS to this file instead of stdout" short:"o"`
	Binary string `help:"Dart Sass executable, overrides the config" env:"ASSETKIT_SASS_BINARY"`

	Out io.Writer `kong:"-"`
}

func (s *SassCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}

	resolver, err := cfg.Resolver()
	if err != nil {
		return err
	}

	opts := sassOptions(cfg)
	if s.Binary != "" {
		opts.Binary = s.Binary
	}

	compiler, err := sass.NewCompiler(resolver, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := compiler.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to stop dart sass")
		}
	}()

	res, err := compiler.Compile(s.File)
	if err != nil {
		return err
	}

	if s.Output == "" {
		_, err = io.WriteString(output(s.Out), res.CSS)
		return err
	}

	if err := os.WriteFile(s.Output, []byte(res.CSS), 0o644); err != nil {
		return fmt.Errorf("failed to write css: %w", err)
	}
	if res.SourceMap != "" {
		if err := os.WriteFile(s.Output+".map", []byte(res.SourceMap), 0o644); err != nil {
			return fmt.Errorf("failed to write source map: %w", err)
		}
	}

	log.Info().Str("file", s.File).Str("output", s.Output).Msg("Compiled stylesheet")
	return nil
}
