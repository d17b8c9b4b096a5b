package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mintworks/mintra/internal/models"
	"github.com/mintworks/mintra/internal/store"
)

// DirectoryStore implements store.DirectoryStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type DirectoryStore struct {
	mu sync.RWMutex

	organizations map[string]*models.Organization // code -> Organization
	admins        map[string]*models.Admin        // org code -> Admin
}

// NewDirectoryStore creates a new in-memory directory store.
func NewDirectoryStore() *DirectoryStore {
	return &DirectoryStore{
		organizations: make(map[string]*models.Organization),
		admins:        make(map[string]*models.Admin),
	}
}

// CreateOrganization creates a new organization in memory.
func (s *DirectoryStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organizations[org.Code]; exists {
		return store.ErrOrganizationAlreadyExists
	}
	for _, existing := range s.organizations {
		if existing.TenantDBName == org.TenantDBName {
			return store.ErrOrganizationAlreadyExists
		}
	}

	// Clone to avoid external modifications
	clone := *org
	s.organizations[org.Code] = &clone

	return nil
}

// GetOrganization retrieves an organization by code.
func (s *DirectoryStore) GetOrganization(ctx context.Context, code string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.organizations[code]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *org
	return &clone, nil
}

// ListOrganizations returns all organizations, newest first.
func (s *DirectoryStore) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orgs := make([]*models.Organization, 0, len(s.organizations))
	for _, org := range s.organizations {
		clone := *org
		orgs = append(orgs, &clone)
	}

	sort.Slice(orgs, func(i, j int) bool {
		return orgs[i].CreatedAt.After(orgs[j].CreatedAt)
	})

	return orgs, nil
}

// CreateAdmin creates a new admin in memory.
func (s *DirectoryStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.admins[admin.OrgCode]; exists {
		return store.ErrAdminAlreadyExists
	}

	clone := *admin
	s.admins[admin.OrgCode] = &clone

	return nil
}

// GetAdmin retrieves the admin for an organization by org code.
func (s *DirectoryStore) GetAdmin(ctx context.Context, orgCode string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, exists := s.admins[orgCode]
	if !exists {
		return nil, store.ErrAdminNotFound
	}

	clone := *admin
	return &clone, nil
}

// UpdateOrganization applies a patch in memory. Used by orchestration tests;
// the real dual-write path lives in the postgres package.
func (s *DirectoryStore) UpdateOrganization(ctx context.Context, code string, patch models.OrganizationPatch) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, exists := s.organizations[code]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	if patch.Name != nil {
		org.Name = *patch.Name
	}
	if patch.AdminName != nil {
		org.AdminName = *patch.AdminName
	}
	if patch.AdminEmail != nil {
		org.AdminEmail = *patch.AdminEmail
	}
	if patch.AdminPhone != nil {
		org.AdminPhone = *patch.AdminPhone
	}
	if patch.Plan != nil {
		org.Plan = *patch.Plan
	}
	if patch.UserLimit != nil {
		org.UserLimit = *patch.UserLimit
	}
	if patch.Status != nil {
		org.Status = *patch.Status
	}
	if patch.EnabledModules != nil {
		org.EnabledModules = *patch.EnabledModules
	}
	org.UpdatedAt = time.Now()

	clone := *org
	return &clone, nil
}
