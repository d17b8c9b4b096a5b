package tenancy

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mintworks/mintra/internal/config"
	"github.com/mintworks/mintra/internal/models"
	"github.com/mintworks/mintra/internal/notify"
	"github.com/mintworks/mintra/internal/store"
	"github.com/mintworks/mintra/internal/store/memory"
)

type fakeDatabases struct {
	mu        sync.Mutex
	created   []string
	createErr error
	exists    bool
	existsErr error
}

func (f *fakeDatabases) Create(ctx context.Context, dbName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, dbName)
	return nil
}

func (f *fakeDatabases) Exists(ctx context.Context, dbName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists, f.existsErr
}

type fakeSeeder struct {
	mu           sync.Mutex
	connectFails int // fail this many connect attempts before succeeding
	connectCalls int
	schemaCalls  int
	schemaErr    error
	seedErr      error
	seededOrgs   map[string]*models.Organization
	seededAdmins map[string]*models.Admin
}

func newFakeSeeder() *fakeSeeder {
	return &fakeSeeder{
		seededOrgs:   make(map[string]*models.Organization),
		seededAdmins: make(map[string]*models.Admin),
	}
}

func (f *fakeSeeder) Connect(ctx context.Context, dbName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	if f.connectCalls <= f.connectFails {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeSeeder) EnsureSchema(ctx context.Context, dbName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemaCalls++
	return f.schemaErr
}

func (f *fakeSeeder) Seed(ctx context.Context, dbName string, org *models.Organization, admin *models.Admin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seedErr != nil {
		return f.seedErr
	}
	orgClone := *org
	adminClone := *admin
	f.seededOrgs[dbName] = &orgClone
	f.seededAdmins[dbName] = &adminClone
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notify.WelcomeMessage
	err      error
}

func (f *fakeNotifier) SendWelcome(ctx context.Context, msg notify.WelcomeMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

type provisionerFixture struct {
	provisioner *Provisioner
	directory   *memory.DirectoryStore
	databases   *fakeDatabases
	seeder      *fakeSeeder
	notifier    *fakeNotifier
}

func newProvisionerFixture(t *testing.T) *provisionerFixture {
	t.Helper()

	cfg := config.Default()
	cfg.Provision.ConnectRetryDelayMillis = 1

	f := &provisionerFixture{
		directory: memory.NewDirectoryStore(),
		databases: &fakeDatabases{},
		seeder:    newFakeSeeder(),
		notifier:  &fakeNotifier{},
	}
	f.provisioner = NewProvisioner(cfg, memory.NewSequenceStore(), f.directory, f.databases, f.seeder, f.notifier)
	f.provisioner.now = func() time.Time {
		return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	}

	return f
}

func TestProvisionSuccess(t *testing.T) {
	ctx := context.Background()
	f := newProvisionerFixture(t)

	org, err := f.provisioner.Provision(ctx, ProvisionInput{
		Name:       "Acme Corp",
		AdminName:  "Jordan Lee",
		AdminEmail: "jordan@acme.example",
		AdminPhone: "+61 400 000 000",
	})
	require.NoError(t, err)

	require.Equal(t, "MNT-25-26-1", org.Code)
	require.Equal(t, "acme-corp", org.Slug)
	require.True(t, strings.HasPrefix(org.TenantDBName, "acme-corp-"))
	require.Equal(t, models.PlanTrial, org.Plan)
	require.Equal(t, int32(5), org.UserLimit)
	require.Equal(t, []string{"core"}, org.EnabledModules)
	require.Equal(t, models.StatusActive, org.Status)

	// The physical database was created before anything else touched it.
	require.Equal(t, []string{org.TenantDBName}, f.databases.created)
	require.Equal(t, 1, f.seeder.schemaCalls)

	// Central directory holds both rows.
	central, err := f.directory.GetOrganization(ctx, org.Code)
	require.NoError(t, err)
	require.Equal(t, org.TenantDBName, central.TenantDBName)

	admin, err := f.directory.GetAdmin(ctx, org.Code)
	require.NoError(t, err)
	require.Equal(t, "jordan@acme.example", admin.Email)

	// Tenant copies carry the same business fields under their own keys.
	seeded := f.seeder.seededOrgs[org.TenantDBName]
	require.NotNil(t, seeded)
	require.Equal(t, org.Code, seeded.Code)
	require.Equal(t, org.Name, seeded.Name)
	require.Equal(t, org.TenantDBName, seeded.TenantDBName)
	require.NotEqual(t, org.ID, seeded.ID)

	seededAdmin := f.seeder.seededAdmins[org.TenantDBName]
	require.NotNil(t, seededAdmin)
	require.Equal(t, admin.Email, seededAdmin.Email)
	require.NotEqual(t, admin.ID, seededAdmin.ID)

	// Welcome went out with a credential.
	require.Len(t, f.notifier.messages, 1)
	require.Equal(t, org.Code, f.notifier.messages[0].OrgCode)
	require.NotEmpty(t, f.notifier.messages[0].TempCredential)
}

func TestProvisionDistinctCodesAndDatabases(t *testing.T) {
	ctx := context.Background()
	f := newProvisionerFixture(t)

	first, err := f.provisioner.Provision(ctx, ProvisionInput{
		Name:       "Acme Corp",
		AdminEmail: "one@acme.example",
	})
	require.NoError(t, err)

	second, err := f.provisioner.Provision(ctx, ProvisionInput{
		Name:       "Acme Corp",
		AdminEmail: "two@acme.example",
	})
	require.NoError(t, err)

	require.Equal(t, "MNT-25-26-1", first.Code)
	require.Equal(t, "MNT-25-26-2", second.Code)
	require.NotEqual(t, first.TenantDBName, second.TenantDBName)
}

func TestProvisionPlanOverrides(t *testing.T) {
	ctx := context.Background()
	f := newProvisionerFixture(t)

	org, err := f.provisioner.Provision(ctx, ProvisionInput{
		Name:           "Acme Corp",
		AdminEmail:     "jordan@acme.example",
		Plan:           models.PlanEnterprise,
		UserLimit:      40,
		EnabledModules: []string{"core", "billing"},
	})
	require.NoError(t, err)

	require.Equal(t, models.PlanEnterprise, org.Plan)
	require.Equal(t, int32(40), org.UserLimit)
	require.Equal(t, []string{"core", "billing"}, org.EnabledModules)
}

func TestProvisionInputValidation(t *testing.T) {
	ctx := context.Background()
	f := newProvisionerFixture(t)

	_, err := f.provisioner.Provision(ctx, ProvisionInput{AdminEmail: "a@b.example"})
	require.Error(t, err)

	_, err = f.provisioner.Provision(ctx, ProvisionInput{Name: "Acme Corp"})
	require.Error(t, err)

	_, err = f.provisioner.Provision(ctx, ProvisionInput{
		Name:       "Acme Corp",
		AdminEmail: "a@b.example",
		Plan:       models.Plan("platinum"),
	})
	require.Error(t, err)

	// No database was touched for any invalid input.
	require.Empty(t, f.databases.created)
}

func TestProvisionSeedFailureLeavesOrphan(t *testing.T) {
	ctx := context.Background()
	f := newProvisionerFixture(t)
	f.seeder.seedErr = errors.New("seed exploded")

	_, err := f.provisioner.Provision(ctx, ProvisionInput{
		Name:       "Acme Corp",
		AdminEmail: "jordan@acme.example",
	})
	require.Error(t, err)
	require.True(t, store.FaultIs(err, store.FaultProvisioningPartial))

	var fault *store.Fault
	require.ErrorAs(t, err, &fault)
	require.NotEmpty(t, fault.TenantDB)
	require.Equal(t, "MNT-25-26-1", fault.OrgCode)

	// The orphaned database name matches what was physically created, and no
	// central rows were written.
	require.Equal(t, []string{fault.TenantDB}, f.databases.created)
	_, err = f.directory.GetOrganization(ctx, fault.OrgCode)
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)
}

func TestProvisionConnectRetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newProvisionerFixture(t)
	f.seeder.connectFails = 2

	_, err := f.provisioner.Provision(ctx, ProvisionInput{
		Name:       "Acme Corp",
		AdminEmail: "jordan@acme.example",
	})
	require.NoError(t, err)
	require.Equal(t, 3, f.seeder.connectCalls)
}

func TestProvisionConnectRetriesExhausted(t *testing.T) {
	ctx := context.Background()
	f := newProvisionerFixture(t)
	f.seeder.connectFails = 1000

	_, err := f.provisioner.Provision(ctx, ProvisionInput{
		Name:       "Acme Corp",
		AdminEmail: "jordan@acme.example",
	})
	require.Error(t, err)
	require.True(t, store.FaultIs(err, store.FaultProvisioningPartial))

	// The retry loop is bounded by configuration.
	require.Equal(t, f.provisioner.cfg.Provision.ConnectMaxTries, f.seeder.connectCalls)
	require.Equal(t, 0, f.seeder.schemaCalls)
}

func TestProvisionCreateTimeoutButCommitted(t *testing.T) {
	ctx := context.Background()
	f := newProvisionerFixture(t)
	f.databases.createErr = context.DeadlineExceeded
	f.databases.exists = true

	org, err := f.provisioner.Provision(ctx, ProvisionInput{
		Name:       "Acme Corp",
		AdminEmail: "jordan@acme.example",
	})
	require.NoError(t, err)
	require.NotNil(t, f.seeder.seededOrgs[org.TenantDBName])
}

func TestProvisionCreateTimeoutNotCommitted(t *testing.T) {
	ctx := context.Background()
	f := newProvisionerFixture(t)
	f.databases.createErr = context.DeadlineExceeded
	f.databases.exists = false

	_, err := f.provisioner.Provision(ctx, ProvisionInput{
		Name:       "Acme Corp",
		AdminEmail: "jordan@acme.example",
	})
	require.Error(t, err)

	// The database never materialized, so this is not a partial failure.
	require.False(t, store.FaultIs(err, store.FaultProvisioningPartial))
	require.Equal(t, 0, f.seeder.connectCalls)
}

func TestProvisionNotifierFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	f := newProvisionerFixture(t)
	f.notifier.err = errors.New("smtp down")

	org, err := f.provisioner.Provision(ctx, ProvisionInput{
		Name:       "Acme Corp",
		AdminEmail: "jordan@acme.example",
	})
	require.NoError(t, err)

	_, err = f.directory.GetOrganization(ctx, org.Code)
	require.NoError(t, err)
}
