package main

import (
	"context"

	"github.com/alecthomas/kong"
)

var (
	version = "dev"
	cli     struct {
		Version kong.VersionFlag
		Serve   ServeCmd   `cmd:"" default:"1" help:"Run the HTTP API."`
		Migrate MigrateCmd `cmd:"" help:"Apply the database schema and exit."`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("kaleidorium"),
		kong.Description("Kaleidorium art discovery backend."),
		kong.Vars{"version": version},
		kong.BindTo(ctx, (*context.Context)(nil)))
	cmd.FatalIfErrorf(cmd.Run())
}
