package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/assetkit/internal/assets"
)

type BuildCmd struct {
	Entry  string `help:"Entry point glob, overrides the config" env:"ASSETKIT_ENTRY"`
	OutDir string `help:"Output directory, overrides the config" env:"ASSETKIT_OUT_DIR"`
	Dev    bool   `help:"Development build: no minification or compression, source maps on" env:"ASSETKIT_DEV"`
}

func (b *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}

	resolver, err := cfg.Resolver()
	if err != nil {
		return err
	}

	assetsCfg := assetsConfig(cfg)
	if b.Entry != "" {
		assetsCfg.EntryPointGlob = b.Entry
	}
	if b.OutDir != "" {
		assetsCfg.OutputDir = b.OutDir
	}
	if b.Dev {
		assetsCfg.Minify = false
		assetsCfg.Compress = false
		assetsCfg.SourceMap = true
	}

	styles := &lazyCompiler{resolver: resolver, opts: sassOptions(cfg)}
	defer func() {
		if err := styles.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to stop dart sass")
		}
	}()

	pipeline := assets.New(assetsCfg, assets.WithResolver(resolver), assets.WithStyleCompiler(styles))

	started := time.Now()
	if err := pipeline.Build(); err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	log.Info().
		Str("out", assetsCfg.OutputDir).
		Bool("minify", assetsCfg.Minify).
		Bool("compress", assetsCfg.Compress).
		Dur("duration", time.Since(started)).
		Msg("Build complete")

	return nil
}
