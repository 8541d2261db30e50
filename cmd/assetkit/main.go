package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/assetkit/cmd/assetkit/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug     bool     `help:"Enable debug mode."`
		Config    []string `help:"Config file, repeat to layer overrides (later files win)" short:"c" env:"ASSETKIT_CONFIG"`
		Strict    bool     `help:"Fail on marked imports that match no alias instead of falling back to node_modules" env:"ASSETKIT_STRICT"`
		Telemetry bool     `help:"Export metrics over OTLP" env:"ASSETKIT_TELEMETRY"`
		Version   kong.VersionFlag

		Resolve commands.ResolveCmd `cmd:"" help:"Resolve style import paths through the alias table"`
		Aliases commands.AliasesCmd `cmd:"" help:"List aliases in match order"`
		Sass    commands.SassCmd    `cmd:"" help:"Compile a single stylesheet"`
		Build   commands.BuildCmd   `cmd:"" help:"Bundle assets"`
		Scripts commands.ScriptsCmd `cmd:"" help:"List the scripts an entry point needs, from the last build"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("assetkit"),
		kong.Description("Alias-aware asset builds for the component library."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:       cli.Debug,
		Version:     version,
		ConfigFiles: cli.Config,
		Strict:      cli.Strict,
		Telemetry:   cli.Telemetry,
	})
	cmd.FatalIfErrorf(err)
}
