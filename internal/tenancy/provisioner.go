package tenancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/mintworks/mintra/internal/config"
	"github.com/mintworks/mintra/internal/models"
	"github.com/mintworks/mintra/internal/notify"
	"github.com/mintworks/mintra/internal/store"
	"github.com/mintworks/mintra/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// TenantAdmin covers the physical database operations the provisioning saga
// needs: creating a tenant database and checking whether one exists.
type TenantAdmin interface {
	Create(ctx context.Context, dbName string) error
	Exists(ctx context.Context, dbName string) (bool, error)
}

// TenantSeeder covers the tenant-side steps of the saga: establishing the
// first connection, bootstrapping the schema, and writing the seed rows.
type TenantSeeder interface {
	Connect(ctx context.Context, dbName string) error
	EnsureSchema(ctx context.Context, dbName string) error
	Seed(ctx context.Context, dbName string, org *models.Organization, admin *models.Admin) error
}

// ProvisionInput is the request to create a new organization with its own
// tenant database.
type ProvisionInput struct {
	Name           string
	AdminName      string
	AdminEmail     string
	AdminPhone     string
	Plan           models.Plan // defaults to trial
	UserLimit      int32       // 0 uses the plan default
	EnabledModules []string    // nil uses the plan default
}

// Provisioner runs the provisioning saga. The saga is explicitly not atomic:
// CREATE DATABASE cannot run inside a transaction, so any failure after it
// leaves an orphaned tenant database behind. The saga never cleans those up;
// it surfaces the orphan's name for manual reconciliation.
type Provisioner struct {
	cfg       *config.Config
	sequences store.SequenceStore
	directory store.DirectoryStore
	databases TenantAdmin
	tenants   TenantSeeder
	notifier  notify.Notifier

	now func() time.Time
}

// NewProvisioner wires the saga's collaborators together.
func NewProvisioner(
	cfg *config.Config,
	sequences store.SequenceStore,
	directory store.DirectoryStore,
	databases TenantAdmin,
	tenants TenantSeeder,
	notifier notify.Notifier,
) *Provisioner {
	return &Provisioner{
		cfg:       cfg,
		sequences: sequences,
		directory: directory,
		databases: databases,
		tenants:   tenants,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Provision creates a new organization end to end: derive its code and
// database name, create the physical database, bootstrap its schema, and
// seed the duplicated directory rows tenant-side first.
func (p *Provisioner) Provision(ctx context.Context, input ProvisionInput) (*models.Organization, error) {
	m := telemetry.GetMetrics()
	m.ProvisionTotal.Add(ctx, 1)
	started := p.now()

	org, admin, err := p.newRecords(ctx, input)
	if err != nil {
		m.ProvisionErrorsTotal.Add(ctx, 1)
		return nil, err
	}

	if err := p.createDatabase(ctx, org.TenantDBName); err != nil {
		m.ProvisionErrorsTotal.Add(ctx, 1)
		return nil, err
	}

	// The physical database now exists. From here every failure leaves it
	// orphaned and is reported as a partial failure, never silently retried.
	partial := func(err error) error {
		m.ProvisionErrorsTotal.Add(ctx, 1)
		m.ProvisionOrphansTotal.Add(ctx, 1)
		log.Error().
			Err(err).
			Str("code", org.Code).
			Str("tenant_db", org.TenantDBName).
			Msg("Provisioning failed after database creation, orphan left for manual reconciliation")
		return &store.Fault{
			Kind:     store.FaultProvisioningPartial,
			OrgCode:  org.Code,
			TenantDB: org.TenantDBName,
			Err:      err,
		}
	}

	if err := p.waitConnectable(ctx, org.TenantDBName); err != nil {
		return nil, partial(err)
	}

	if err := p.tenants.EnsureSchema(ctx, org.TenantDBName); err != nil {
		return nil, partial(err)
	}

	// Tenant copies get their own surrogate keys; business fields are
	// identical to the central rows.
	tenantOrg := *org
	tenantOrg.ID = newID()
	tenantAdmin := *admin
	tenantAdmin.ID = newID()

	if err := p.tenants.Seed(ctx, org.TenantDBName, &tenantOrg, &tenantAdmin); err != nil {
		return nil, partial(fmt.Errorf("failed to seed tenant rows: %w", err))
	}

	if err := p.directory.CreateOrganization(ctx, org); err != nil {
		return nil, partial(fmt.Errorf("failed to create central directory row: %w", err))
	}

	if err := p.directory.CreateAdmin(ctx, admin); err != nil {
		return nil, partial(fmt.Errorf("failed to create central admin row: %w", err))
	}

	p.sendWelcome(ctx, org)

	m.ProvisionDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	log.Info().
		Str("code", org.Code).
		Str("tenant_db", org.TenantDBName).
		Str("plan", string(org.Plan)).
		Dur("duration", time.Since(started)).
		Msg("Provisioned organization")

	return org, nil
}

// newRecords derives the organization code and tenant database name and
// builds the central directory rows.
func (p *Provisioner) newRecords(ctx context.Context, input ProvisionInput) (*models.Organization, *models.Admin, error) {
	if input.Name == "" {
		return nil, nil, fmt.Errorf("organization name is required")
	}
	if input.AdminEmail == "" {
		return nil, nil, fmt.Errorf("admin email is required")
	}

	plan := input.Plan
	if plan == "" {
		plan = models.PlanTrial
	}
	planCfg, ok := p.cfg.Plans[string(plan)]
	if !ok {
		return nil, nil, fmt.Errorf("unknown plan %q", plan)
	}

	userLimit := input.UserLimit
	if userLimit == 0 {
		userLimit = planCfg.UserLimit
	}
	modules := input.EnabledModules
	if modules == nil {
		modules = planCfg.Modules
	}

	yearCode := FiscalYearCode(p.now())
	n, err := p.sequences.Next(ctx, yearCode, p.cfg.Identifier.OrgPrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive organization code: %w", err)
	}

	code, err := FormatOrgCode(p.cfg.Identifier.OrgPrefix, yearCode, n, p.cfg.Identifier.MaxLength)
	if err != nil {
		telemetry.GetMetrics().SequenceOverflowTotal.Add(ctx, 1)
		return nil, nil, err
	}

	dbName, err := NewTenantDBName(input.Name)
	if err != nil {
		return nil, nil, err
	}

	now := p.now().UTC()
	org := &models.Organization{
		ID:             newID(),
		Code:           code,
		Name:           input.Name,
		Slug:           Slugify(input.Name),
		TenantDBName:   dbName,
		AdminName:      input.AdminName,
		AdminEmail:     input.AdminEmail,
		AdminPhone:     input.AdminPhone,
		Plan:           plan,
		UserLimit:      userLimit,
		Status:         models.StatusActive,
		EnabledModules: modules,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	admin := &models.Admin{
		ID:        newID(),
		OrgCode:   code,
		FullName:  input.AdminName,
		Email:     input.AdminEmail,
		Phone:     input.AdminPhone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return org, admin, nil
}

// createDatabase issues CREATE DATABASE under a bounded timeout. A timed-out
// create may have committed server-side, so the statement is never retried
// blindly: the saga first checks whether the database now exists and only
// proceeds if it does.
func (p *Provisioner) createDatabase(ctx context.Context, dbName string) error {
	createCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.Provision.CreateTimeoutSeconds)*time.Second)
	defer cancel()

	err := p.databases.Create(createCtx, dbName)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		exists, checkErr := p.databases.Exists(ctx, dbName)
		if checkErr != nil {
			return fmt.Errorf("create database %s timed out and existence check failed: %w", dbName, checkErr)
		}
		if exists {
			log.Warn().
				Str("tenant_db", dbName).
				Msg("CREATE DATABASE timed out client-side but committed server-side, continuing")
			return nil
		}
		return fmt.Errorf("create database %s timed out: %w", dbName, err)
	}

	return err
}

// waitConnectable retries the first tenant connection with exponential
// backoff to absorb server-side creation latency. The retry count is
// bounded; exhaustion is a fatal provisioning error.
func (p *Provisioner) waitConnectable(ctx context.Context, dbName string) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = time.Duration(p.cfg.Provision.ConnectRetryDelayMillis) * time.Millisecond

	operation := func() (struct{}, error) {
		if err := p.tenants.Connect(ctx, dbName); err != nil {
			log.Debug().
				Err(err).
				Str("tenant_db", dbName).
				Msg("Tenant database not connectable yet, retrying")
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(p.cfg.Provision.ConnectMaxTries)),
	)
	if err != nil {
		return fmt.Errorf("tenant database %s never became connectable: %w", dbName, err)
	}

	return nil
}

// sendWelcome emits the welcome credentials through the notifier. Delivery
// failure is logged and reported through metrics but never fails the
// provisioning call.
func (p *Provisioner) sendWelcome(ctx context.Context, org *models.Organization) {
	cred, err := NewTempCredential()
	if err != nil {
		log.Warn().Err(err).Str("code", org.Code).Msg("Failed to generate welcome credential")
		return
	}

	msg := notify.WelcomeMessage{
		OrgName:        org.Name,
		OrgCode:        org.Code,
		AdminEmail:     org.AdminEmail,
		TempCredential: cred,
	}

	if err := p.notifier.SendWelcome(ctx, msg); err != nil {
		log.Warn().
			Err(err).
			Str("code", org.Code).
			Str("admin_email", org.AdminEmail).
			Msg("Welcome notification failed, provisioning unaffected")
	}
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does, which is fatal
		// everywhere else too.
		panic(err)
	}
	return id
}
