package commands

import (
	"context"
	"fmt"

	"github.com/mintworks/mintra/internal/config"
	"github.com/mintworks/mintra/internal/logger"
	"github.com/mintworks/mintra/internal/notify"
	"github.com/mintworks/mintra/internal/store/postgres"
	"github.com/mintworks/mintra/internal/telemetry"
	"github.com/mintworks/mintra/internal/tenancy"
	"github.com/rs/zerolog/log"
)

type Globals struct {
	Debug   bool
	Version string
	Conn    string
	Config  string
}

// app holds the wired tenancy core for one command invocation.
type app struct {
	cfg          *config.Config
	registry     *postgres.Registry
	directory    *postgres.DirectoryStore
	sequences    *postgres.SequenceStore
	provisioner  *tenancy.Provisioner
	synchronizer *tenancy.Synchronizer

	telemetryShutdown func(context.Context) error
}

// newApp connects to the central database and wires the stores and services
// together. Callers must Close the app when done.
func newApp(ctx context.Context, globals *Globals) (*app, error) {
	log.Logger = logger.Setup(globals.Debug)

	if globals.Conn == "" {
		return nil, fmt.Errorf("central connection string is required (use --conn or MINTRA_DB_CONN)")
	}

	cfg := config.Default()
	if globals.Config != "" {
		loaded, err := config.Load(globals.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	telemetryShutdown, err := telemetry.InitTelemetry(ctx, "mintra", globals.Version)
	if err != nil {
		log.Warn().Err(err).Msg("Telemetry init failed, continuing without it")
		telemetryShutdown = func(ctx context.Context) error { return nil }
	}

	registry, err := postgres.NewRegistry(ctx, &postgres.PoolConfig{ConnString: globals.Conn})
	if err != nil {
		return nil, err
	}

	directory := postgres.NewDirectoryStore(registry.Central())
	sequences := postgres.NewSequenceStore(registry.Central())
	tenants := postgres.NewTenantStore(registry)
	databases := postgres.NewTenantDatabases(registry)

	provisioner := tenancy.NewProvisioner(cfg, sequences, directory, databases, tenants, notify.NewLogNotifier())
	synchronizer := tenancy.NewSynchronizer(postgres.NewDualWriter(registry))

	return &app{
		cfg:               cfg,
		registry:          registry,
		directory:         directory,
		sequences:         sequences,
		provisioner:       provisioner,
		synchronizer:      synchronizer,
		telemetryShutdown: telemetryShutdown,
	}, nil
}

func (a *app) Close() {
	a.registry.Close()
	if err := a.telemetryShutdown(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Telemetry shutdown failed")
	}
}
