package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
)

type ResolveCmd struct {
	Imports []string `arg:"" help:"Import paths as written in a stylesheet (e.g. ~@styles/button.scss)"`

	Out io.Writer `kong:"-"`
}

func (r *ResolveCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}

	resolver, err := cfg.Resolver()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(output(r.Out), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IMPORT\tKIND\tALIAS\tPATH")

	var failed int
	for _, imp := range r.Imports {
		res, err := resolver.Resolve(imp)
		if err != nil {
			failed++
			fmt.Fprintf(tw, "%s\terror\t-\t%s\n", imp, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", imp, res.Kind, dash(res.Alias), dash(res.Path))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed to resolve", failed, len(r.Imports))
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
