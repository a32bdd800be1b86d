// Package testing provides test utilities and database setup for testing the license administration system
package testing

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/repository"
	"github.com/hologize/kagiban/utils"
)

// MemStore is an in-memory implementation of the repository interfaces for
// flow tests that do not need a real database. Transactions are emulated
// with a coarse lock and a full snapshot that is restored on rollback, which
// gives the same all-or-nothing visibility the flows rely on.
type MemStore struct {
	mu sync.Mutex

	admins        map[uint]*models.Admin
	licenses      map[uint]*models.License
	notifications []*models.Notification

	nextAdminID   uint
	nextLicenseID uint
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		admins:        make(map[uint]*models.Admin),
		licenses:      make(map[uint]*models.License),
		nextAdminID:   1,
		nextLicenseID: 1,
	}
}

// Admins returns the admin repository view of the store
func (s *MemStore) Admins() repository.AdminRepository { return &memAdminRepo{s} }

// Licenses returns the license repository view of the store
func (s *MemStore) Licenses() repository.LicenseRepository { return &memLicenseRepo{s} }

// Notifications returns the notification repository view of the store
func (s *MemStore) Notifications() repository.NotificationRepository { return &memNotificationRepo{s} }

// TxManager returns the snapshot-rollback transaction manager
func (s *MemStore) TxManager() repository.TxManager { return &memTxManager{s} }

// NotificationCount reports how many notification rows have been written.
// Useful for asserting on fire-and-forget writes.
func (s *MemStore) NotificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

func (s *MemStore) snapshot() (map[uint]*models.Admin, map[uint]*models.License, []*models.Notification, uint, uint) {
	admins := make(map[uint]*models.Admin, len(s.admins))
	for id, a := range s.admins {
		cp := *a
		admins[id] = &cp
	}
	licenses := make(map[uint]*models.License, len(s.licenses))
	for id, l := range s.licenses {
		cp := *l
		licenses[id] = &cp
	}
	notifications := make([]*models.Notification, len(s.notifications))
	copy(notifications, s.notifications)
	return admins, licenses, notifications, s.nextAdminID, s.nextLicenseID
}

type memTxManager struct {
	store *MemStore
}

func (m *memTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.store.mu.Lock()
	admins, licenses, notifications, nextAdmin, nextLicense := m.store.snapshot()
	m.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.store.mu.Lock()
		m.store.admins = admins
		m.store.licenses = licenses
		m.store.notifications = notifications
		m.store.nextAdminID = nextAdmin
		m.store.nextLicenseID = nextLicense
		m.store.mu.Unlock()
		return err
	}
	return nil
}

// admin repository

type memAdminRepo struct {
	store *MemStore
}

func (r *memAdminRepo) ByID(ctx context.Context, id uint) (*models.Admin, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if a, ok := r.store.admins[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (r *memAdminRepo) ByEmail(ctx context.Context, email string) (*models.Admin, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memAdminRepo) Save(ctx context.Context, admin *models.Admin) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.admins {
		if a.Email == admin.Email {
			return repository.ErrDuplicateKey
		}
	}
	admin.ID = r.store.nextAdminID
	r.store.nextAdminID++
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = utils.UTCNow()
	}
	admin.UpdatedAt = utils.UTCNow()
	cp := *admin
	r.store.admins[admin.ID] = &cp
	return nil
}

func (r *memAdminRepo) Update(ctx context.Context, admin *models.Admin) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *admin
	r.store.admins[admin.ID] = &cp
	return nil
}

func (r *memAdminRepo) ByFilter(ctx context.Context, filter models.AdminFilter, orderBy string, limit, offset int) ([]*models.Admin, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*models.Admin
	for _, a := range r.store.admins {
		if matchAdmin(a, filter) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortByID(out, strings.Contains(orderBy, "DESC"), func(a *models.Admin) uint { return a.ID })
	return window(out, limit, offset), nil
}

func (r *memAdminRepo) Count(ctx context.Context, filter models.AdminFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *memAdminRepo) Exists(ctx context.Context, filter models.AdminFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *memAdminRepo) ListWithLicense(ctx context.Context) ([]*models.AdminWithLicense, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var admins []*models.Admin
	for _, a := range r.store.admins {
		if a.Role == models.RoleAdmin {
			admins = append(admins, a)
		}
	}
	sortByID(admins, true, func(a *models.Admin) uint { return a.ID })

	out := make([]*models.AdminWithLicense, 0, len(admins))
	for _, a := range admins {
		row := &models.AdminWithLicense{
			ID:       a.ID,
			Name:     a.Name,
			Email:    a.Email,
			IsActive: utils.IsTrue(a.IsActive),
		}
		if l := latestLicenseFor(r.store, a.ID); l != nil {
			row.LicenseKey = &l.LicenseKey
			row.Status = &l.Status
			row.ExpiryDate = l.ExpiryDate
		}
		out = append(out, row)
	}
	return out, nil
}

func matchAdmin(a *models.Admin, f models.AdminFilter) bool {
	if f.ID != nil && a.ID != *f.ID {
		return false
	}
	if f.UUID != nil && a.UUID != *f.UUID {
		return false
	}
	if f.Email != nil && a.Email != *f.Email {
		return false
	}
	if f.Role != nil && a.Role != *f.Role {
		return false
	}
	if f.IsActive != nil && utils.IsTrue(a.IsActive) != *f.IsActive {
		return false
	}
	if f.CreatedAfter != nil && a.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && a.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	return true
}

func latestLicenseFor(s *MemStore, adminID uint) *models.License {
	var latest *models.License
	for _, l := range s.licenses {
		if l.AdminID != nil && *l.AdminID == adminID {
			if latest == nil || l.ID > latest.ID {
				latest = l
			}
		}
	}
	return latest
}

// license repository

type memLicenseRepo struct {
	store *MemStore
}

func (r *memLicenseRepo) ByID(ctx context.Context, id uint) (*models.License, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if l, ok := r.store.licenses[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (r *memLicenseRepo) ByKey(ctx context.Context, key string) (*models.License, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range r.store.licenses {
		if l.LicenseKey == key {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memLicenseRepo) Save(ctx context.Context, license *models.License) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range r.store.licenses {
		if l.LicenseKey == license.LicenseKey {
			return repository.ErrDuplicateKey
		}
	}
	license.ID = r.store.nextLicenseID
	r.store.nextLicenseID++
	if license.CreatedAt.IsZero() {
		license.CreatedAt = utils.UTCNow()
	}
	license.UpdatedAt = utils.UTCNow()
	cp := *license
	r.store.licenses[license.ID] = &cp
	return nil
}

func (r *memLicenseRepo) Update(ctx context.Context, license *models.License) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *license
	r.store.licenses[license.ID] = &cp
	return nil
}

func (r *memLicenseRepo) ByFilter(ctx context.Context, filter models.LicenseFilter, orderBy string, limit, offset int) ([]*models.License, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*models.License
	for _, l := range r.store.licenses {
		if matchLicense(l, filter) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sortByID(out, strings.Contains(orderBy, "DESC"), func(l *models.License) uint { return l.ID })
	return window(out, limit, offset), nil
}

func (r *memLicenseRepo) Count(ctx context.Context, filter models.LicenseFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *memLicenseRepo) Exists(ctx context.Context, filter models.LicenseFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *memLicenseRepo) ActiveByAdminID(ctx context.Context, adminID uint) (*models.License, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range r.store.licenses {
		if l.AdminID != nil && *l.AdminID == adminID && l.Status == models.LicenseStatusActive && utils.IsTrue(l.IsActive) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memLicenseRepo) ActiveByAssignedEmail(ctx context.Context, email string) (*models.License, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range r.store.licenses {
		if l.AssignedEmail != nil && *l.AssignedEmail == email && l.Status == models.LicenseStatusActive && utils.IsTrue(l.IsActive) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memLicenseRepo) ListExpiringWithin(ctx context.Context, days int) ([]*models.LicenseWithAdmin, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	windowStart := time.Now().Truncate(24 * time.Hour)
	windowEnd := utils.EndOfDay(time.Now().AddDate(0, 0, days))

	var matched []*models.License
	for _, l := range r.store.licenses {
		if !utils.IsTrue(l.IsActive) || l.ExpiryDate == nil || l.AdminID == nil {
			continue
		}
		if l.ExpiryDate.Before(windowStart) || l.ExpiryDate.After(windowEnd) {
			continue
		}
		matched = append(matched, l)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ExpiryDate.Before(*matched[j].ExpiryDate)
	})

	out := make([]*models.LicenseWithAdmin, 0, len(matched))
	for _, l := range matched {
		row := &models.LicenseWithAdmin{
			LicenseKey: l.LicenseKey,
			ExpiryDate: l.ExpiryDate,
		}
		if a, ok := r.store.admins[*l.AdminID]; ok {
			row.Name = a.Name
			row.Email = a.Email
		}
		out = append(out, row)
	}
	return out, nil
}

func matchLicense(l *models.License, f models.LicenseFilter) bool {
	if f.ID != nil && l.ID != *f.ID {
		return false
	}
	if f.LicenseKey != nil && l.LicenseKey != *f.LicenseKey {
		return false
	}
	if f.AdminID != nil && (l.AdminID == nil || *l.AdminID != *f.AdminID) {
		return false
	}
	if f.AssignedEmail != nil && (l.AssignedEmail == nil || *l.AssignedEmail != *f.AssignedEmail) {
		return false
	}
	if f.Status != nil && l.Status != *f.Status {
		return false
	}
	if f.IsActive != nil && utils.IsTrue(l.IsActive) != *f.IsActive {
		return false
	}
	if f.ExpiresAfter != nil && (l.ExpiryDate == nil || l.ExpiryDate.Before(*f.ExpiresAfter)) {
		return false
	}
	if f.ExpiresBefore != nil && (l.ExpiryDate == nil || l.ExpiryDate.After(*f.ExpiresBefore)) {
		return false
	}
	return true
}

// notification repository

type memNotificationRepo struct {
	store *MemStore
}

func (r *memNotificationRepo) Save(ctx context.Context, notification *models.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	notification.ID = uint(len(r.store.notifications) + 1)
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = utils.UTCNow()
	}
	cp := *notification
	r.store.notifications = append(r.store.notifications, &cp)
	return nil
}

// helpers

func sortByID[T any](items []*T, desc bool, id func(*T) uint) {
	sort.Slice(items, func(i, j int) bool {
		if desc {
			return id(items[i]) > id(items[j])
		}
		return id(items[i]) < id(items[j])
	})
}

func window[T any](items []*T, limit, offset int) []*T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
