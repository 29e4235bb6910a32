package service

import (
	"context"
	"errors"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/user/domain"
)

type AdminFinder interface {
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	FindEarliestAdmin(ctx context.Context) (domain.User, error)
}

// AdminResolver picks the one admin account everyone follows: the configured
// id when set, otherwise the earliest-created admin.
type AdminResolver struct {
	repo         AdminFinder
	configuredID domain.ID
	log          *logger.Logger
}

func NewAdminResolver(repo AdminFinder, configuredID string, log *logger.Logger) *AdminResolver {
	return &AdminResolver{repo: repo, configuredID: domain.ID(configuredID), log: log}
}

func (r *AdminResolver) DesignatedAdmin(ctx context.Context) (domain.User, error) {
	if r.configuredID == "" {
		admin, err := r.repo.FindEarliestAdmin(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNoAdmin) {
				return domain.User{}, err
			}
			return domain.User{}, commonerrors.Internal(err)
		}
		return admin, nil
	}

	admin, err := r.repo.FindByID(ctx, r.configuredID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrUserNotFound) {
			r.log.WithFields(ctx, logger.Fields{
				"admin_id": r.configuredID,
				"action":   "admin_resolve",
			}).Warn("configured admin user does not exist")
			return domain.User{}, domain.ErrNoAdmin
		}
		return domain.User{}, commonerrors.Internal(err)
	}
	if !admin.IsAdmin() {
		r.log.WithFields(ctx, logger.Fields{
			"admin_id": r.configuredID,
			"action":   "admin_resolve",
		}).Warn("configured admin user does not have the admin role")
		return domain.User{}, domain.ErrNoAdmin
	}
	return admin, nil
}
