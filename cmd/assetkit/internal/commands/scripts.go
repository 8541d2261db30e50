package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/wolfeidau/assetkit/internal/assets"
)

type ScriptsCmd struct {
	Entry string `arg:"" help:"Entry point as recorded in the metafile (e.g. src/main.ts)"`

	Out io.Writer `kong:"-"`
}

func (s *ScriptsCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}

	pipeline := assets.New(assetsConfig(cfg))
	if err := pipeline.LoadMetadata(cfg.Path(cfg.Build.Metafile)); err != nil {
		return err
	}

	scripts, _, err := pipeline.LoadScripts(s.Entry)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Entry, err)
	}

	w := output(s.Out)
	for _, script := range scripts {
		fmt.Fprintln(w, script)
	}
	if css, ok := pipeline.Stylesheet(s.Entry); ok {
		fmt.Fprintln(w, css)
	}
	return nil
}
