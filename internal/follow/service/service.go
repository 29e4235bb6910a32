package service

import (
	"context"
	"time"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/follow/domain"
	"github.com/AlibekovAA/social-hub/internal/follow/repository"
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

type UserChecker interface {
	Exists(ctx context.Context, id userdomain.ID) (bool, error)
}

type AdminResolver interface {
	DesignatedAdmin(ctx context.Context) (userdomain.User, error)
}

type Service struct {
	repo    repository.Repository
	users   UserChecker
	admins  AdminResolver
	log     *logger.Logger
	timeout time.Duration
}

func NewService(repo repository.Repository, users UserChecker, admins AdminResolver, log *logger.Logger, timeout time.Duration) *Service {
	return &Service{repo: repo, users: users, admins: admins, log: log, timeout: timeout}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) IsFollowing(ctx context.Context, followerID, followedID userdomain.ID) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	following, err := s.repo.IsFollowing(ctx, followerID, followedID)
	if err != nil {
		return false, commonerrors.Internal(err)
	}
	return following, nil
}

func (s *Service) Counts(ctx context.Context, userID userdomain.ID) (domain.Counts, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	counts, err := s.repo.Counts(ctx, userID)
	if err != nil {
		return domain.Counts{}, commonerrors.Internal(err)
	}
	return counts, nil
}

// Toggle flips the follow edge from followerID to targetID and reports the
// resulting state.
func (s *Service) Toggle(ctx context.Context, followerID, targetID userdomain.ID) (bool, error) {
	if followerID == targetID {
		return false, domain.ErrSelfFollow
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.users.Exists(ctx, targetID)
	if err != nil {
		return false, commonerrors.Internal(err)
	}
	if !exists {
		return false, commonerrors.ErrUserNotFound
	}

	removed, err := s.repo.Delete(ctx, followerID, targetID)
	if err != nil {
		return false, commonerrors.Internal(err)
	}
	if removed {
		metrics.FollowChangesTotal.WithLabelValues("unfollow").Inc()
		s.log.WithFields(ctx, logger.Fields{
			"follower_id": followerID,
			"followed_id": targetID,
			"action":      "unfollow",
		}).Info("user unfollowed")
		return false, nil
	}

	if _, err := s.insert(ctx, followerID, targetID); err != nil {
		return false, err
	}
	metrics.FollowChangesTotal.WithLabelValues("follow").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"follower_id": followerID,
		"followed_id": targetID,
		"action":      "follow",
	}).Info("user followed")
	return true, nil
}

// FollowAdmin makes followerID follow the designated admin. Repeating it is
// a no-op.
func (s *Service) FollowAdmin(ctx context.Context, followerID, adminID userdomain.ID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	admin, err := s.admins.DesignatedAdmin(ctx)
	if err != nil {
		return err
	}
	if admin.ID != adminID {
		return domain.ErrNotDesignatedAdmin
	}
	if followerID == adminID {
		return domain.ErrSelfFollow
	}

	inserted, err := s.insert(ctx, followerID, adminID)
	if err != nil {
		return err
	}
	if inserted {
		metrics.FollowChangesTotal.WithLabelValues("follow_admin").Inc()
		s.log.WithFields(ctx, logger.Fields{
			"follower_id": followerID,
			"admin_id":    adminID,
			"action":      "follow_admin",
		}).Info("user followed admin")
	}
	return nil
}

func (s *Service) insert(ctx context.Context, followerID, followedID userdomain.ID) (bool, error) {
	inserted, err := s.repo.Insert(ctx, followerID, followedID)
	if err != nil {
		if _, ok := commonerrors.AsDomainError(err); ok {
			return false, err
		}
		return false, commonerrors.Internal(err)
	}
	return inserted, nil
}
