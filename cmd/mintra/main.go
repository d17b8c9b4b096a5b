package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/mintworks/mintra/cmd/mintra/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Migrate     commands.MigrateCmd     `cmd:"" help:"Ensure the central database schema exists"`
		Provision   commands.ProvisionCmd   `cmd:"" help:"Provision a new organization with its own tenant database"`
		UpdateOrg   commands.UpdateOrgCmd   `cmd:"" name:"update-org" help:"Update an organization in both directories"`
		UpdateAdmin commands.UpdateAdminCmd `cmd:"" name:"update-admin" help:"Update an organization's admin in both directories"`
		Sequence    commands.SequenceCmd    `cmd:"" help:"Issue the next number from a partitioned sequence"`
		Conn        string                  `help:"Central database connection string." env:"MINTRA_DB_CONN"`
		Config      string                  `help:"Path to YAML config file." env:"MINTRA_CONFIG"`
		Debug       bool                    `help:"Enable debug mode."`
		Version     kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:   cli.Debug,
		Version: version,
		Conn:    cli.Conn,
		Config:  cli.Config,
	})
	cmd.FatalIfErrorf(err)
}
