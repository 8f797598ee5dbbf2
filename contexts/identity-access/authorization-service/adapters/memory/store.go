package memory

import (
	"context"
	"sync"
	"time"

	"propdesk/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "propdesk/contexts/identity-access/authorization-service/domain/errors"
	"propdesk/contexts/identity-access/authorization-service/domain/services"
	"propdesk/contexts/identity-access/authorization-service/ports"
)

// Store is an in-memory membership repository.
// It is intended for tests and local development wiring.
type Store struct {
	mu          sync.RWMutex
	memberships map[string]entities.Membership
}

func NewStore() *Store {
	return &Store{memberships: make(map[string]entities.Membership)}
}

// SetMembership stores an active membership directly, bypassing command validation.
func (s *Store) SetMembership(companyID string, userID string, roleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[membershipKey(companyID, userID)] = entities.Membership{
		CompanyID:  companyID,
		UserID:     userID,
		RoleID:     roleID,
		AssignedBy: "seed",
		AssignedAt: time.Now().UTC(),
	}
}

func (s *Store) ListEffectivePermissions(_ context.Context, companyID string, userID string, _ time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	membership, ok := s.memberships[membershipKey(companyID, userID)]
	if !ok || !membership.Active() {
		return []string{}, nil
	}
	return services.EffectivePermissions([]string{membership.RoleID}), nil
}

func (s *Store) GetMembership(_ context.Context, companyID string, userID string) (entities.Membership, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	membership, ok := s.memberships[membershipKey(companyID, userID)]
	return membership, ok, nil
}

func (s *Store) UpsertMembership(_ context.Context, membership entities.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	membership.RevokedAt = nil
	s.memberships[membershipKey(membership.CompanyID, membership.UserID)] = membership
	return nil
}

func (s *Store) RevokeMembership(_ context.Context, companyID string, userID string, revokedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey(companyID, userID)
	membership, ok := s.memberships[key]
	if !ok || !membership.Active() {
		return domainerrors.ErrRoleNotAssigned
	}
	at := revokedAt.UTC()
	membership.RevokedAt = &at
	s.memberships[key] = membership
	return nil
}

type cacheEntry struct {
	Permissions []string
	ExpiresAt   time.Time
}

// PermissionCache is a process-local TTL cache keyed by company and user.
type PermissionCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewPermissionCache() *PermissionCache {
	return &PermissionCache{entries: make(map[string]cacheEntry)}
}

func (c *PermissionCache) Get(_ context.Context, companyID string, userID string, now time.Time) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := membershipKey(companyID, userID)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.ExpiresAt.After(now) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]string(nil), entry.Permissions...), true, nil
}

func (c *PermissionCache) Set(_ context.Context, companyID string, userID string, permissions []string, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[membershipKey(companyID, userID)] = cacheEntry{
		Permissions: append([]string(nil), permissions...),
		ExpiresAt:   expiresAt.UTC(),
	}
	return nil
}

func (c *PermissionCache) Invalidate(_ context.Context, companyID string, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, membershipKey(companyID, userID))
	return nil
}

func membershipKey(companyID string, userID string) string {
	return companyID + ":" + userID
}

var (
	_ ports.Repository      = (*Store)(nil)
	_ ports.PermissionCache = (*PermissionCache)(nil)
)
