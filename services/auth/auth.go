// Package auth resolves principals and roles for the booking core.
package auth

import (
	"context"
	"fmt"

	"salonbook/config"
	"salonbook/models"
)

// UserRepo is the user persistence surface.
type UserRepo interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	Upsert(ctx context.Context, u *models.User) error
}

// MasterRepo answers whether an external id belongs to a master.
type MasterRepo interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.Master, error)
}

// AuthService resolves users and their roles from external messaging ids.
type AuthService interface {
	ResolveUser(ctx context.Context, externalID int64, name string, username, locale *string) (*models.User, error)
	IsAdmin(ctx context.Context, externalID int64) bool
	IsMaster(ctx context.Context, externalID int64) (*models.Master, bool)
}

// DefaultAuthService implements AuthService. Admin status is the union of
// the boot-time ADMIN_IDS list and the per-user database flag.
type DefaultAuthService struct {
	Users   UserRepo
	Masters MasterRepo

	adminIDs map[int64]struct{}
}

// NewDefaultAuthService wires the service with the boot-time admin list.
func NewDefaultAuthService(users UserRepo, masters MasterRepo) *DefaultAuthService {
	ids := make(map[int64]struct{})
	for _, id := range config.AdminIDList() {
		ids[id] = struct{}{}
	}
	return &DefaultAuthService{Users: users, Masters: masters, adminIDs: ids}
}

// ResolveUser finds or creates the user for an external id, refreshing its
// display fields.
func (a *DefaultAuthService) ResolveUser(ctx context.Context, externalID int64, name string, username, locale *string) (*models.User, error) {
	u := &models.User{TelegramID: externalID, Name: name, Username: username, Locale: locale}
	if err := a.Users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return u, nil
}

// IsAdmin reports whether the external id has admin rights.
func (a *DefaultAuthService) IsAdmin(ctx context.Context, externalID int64) bool {
	if _, ok := a.adminIDs[externalID]; ok {
		return true
	}
	u, err := a.Users.FindByTelegramID(ctx, externalID)
	if err != nil {
		return false
	}
	return u.IsAdmin
}

// IsMaster reports whether the external id belongs to an active master and
// returns the master when so.
func (a *DefaultAuthService) IsMaster(ctx context.Context, externalID int64) (*models.Master, bool) {
	m, err := a.Masters.FindByTelegramID(ctx, externalID)
	if err != nil || !m.IsActive {
		return nil, false
	}
	return m, true
}
