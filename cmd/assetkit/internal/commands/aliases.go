package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
)

type AliasesCmd struct {
	Out io.Writer `kong:"-"`
}

func (a *AliasesCmd) Run(ctx context.Context, globals *Globals) error {
	defer globals.setup(ctx)()

	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}

	resolver, err := cfg.Resolver()
	if err != nil {
		return err
	}

	opts := resolver.Options()
	w := output(a.Out)
	fmt.Fprintf(w, "marker: %s\nfallback: %s\nstrict: %t\n\n", opts.Marker, opts.FallbackRoot, opts.Strict)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ALIAS\tTARGET")
	for _, e := range resolver.Table().Entries() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Alias, e.Target)
	}
	return tw.Flush()
}
