package commands

import (
	"context"
	"fmt"

	"github.com/mintworks/mintra/internal/store/postgres"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := postgres.EnsureSchema(ctx, app.registry.Central(), postgres.SchemaCentral); err != nil {
		return fmt.Errorf("failed to ensure central schema: %w", err)
	}

	fmt.Println("Central schema is up to date")
	return nil
}
