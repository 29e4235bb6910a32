package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	followdomain "github.com/AlibekovAA/social-hub/internal/follow/domain"
	"github.com/AlibekovAA/social-hub/internal/storage"
	"github.com/AlibekovAA/social-hub/internal/user/domain"
	"github.com/AlibekovAA/social-hub/internal/user/repository"
)

type FollowReader interface {
	Counts(ctx context.Context, userID domain.ID) (followdomain.Counts, error)
	IsFollowing(ctx context.Context, followerID, followedID domain.ID) (bool, error)
}

type Uploader interface {
	Upload(ctx context.Context, kind storage.Kind, fh *multipart.FileHeader) (storage.Stored, error)
	Remove(ctx context.Context, url string)
}

type ProfileForm struct {
	Name  string `validate:"max=100"`
	Email string `validate:"required,email,max=254"`
	Bio   string `validate:"max=500"`
}

type OwnProfile struct {
	User domain.User `json:"user"`
	followdomain.Counts
}

type ProfileView struct {
	Profile     domain.PublicProfile `json:"profileUser"`
	IsFollowing bool                 `json:"isFollowing"`
	IsSelf      bool                 `json:"isSelf"`
	followdomain.Counts
}

type ProfileService struct {
	repo     repository.Repository
	follows  FollowReader
	uploader Uploader
	validate *validator.Validate
	log      *logger.Logger
	timeout  time.Duration
}

func NewProfileService(repo repository.Repository, follows FollowReader, uploader Uploader, log *logger.Logger, timeout time.Duration) *ProfileService {
	return &ProfileService{
		repo:     repo,
		follows:  follows,
		uploader: uploader,
		validate: validator.New(),
		log:      log,
		timeout:  timeout,
	}
}

func (s *ProfileService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *ProfileService) Own(ctx context.Context, user domain.User) (OwnProfile, error) {
	counts, err := s.follows.Counts(ctx, user.ID)
	if err != nil {
		return OwnProfile{}, err
	}
	return OwnProfile{User: user, Counts: counts}, nil
}

func (s *ProfileService) View(ctx context.Context, viewerID, targetID domain.ID) (ProfileView, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return ProfileView{}, wrapStoreErr(err)
	}

	following := false
	if viewerID != targetID {
		if following, err = s.follows.IsFollowing(ctx, viewerID, targetID); err != nil {
			return ProfileView{}, err
		}
	}

	counts, err := s.follows.Counts(ctx, targetID)
	if err != nil {
		return ProfileView{}, err
	}

	return ProfileView{
		Profile:     target.Public(),
		IsFollowing: following,
		IsSelf:      viewerID == targetID,
		Counts:      counts,
	}, nil
}

// Update saves the form and, when pic is given, swaps the profile picture.
// The old picture is removed only after the row is updated.
func (s *ProfileService) Update(ctx context.Context, current domain.User, form ProfileForm, pic *multipart.FileHeader) (domain.User, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Bio = strings.TrimSpace(form.Bio)
	if err := s.validate.Struct(form); err != nil {
		return domain.User{}, domain.ErrInvalidProfile.WithCause(err)
	}

	picURL := current.ProfilePicURL
	if pic != nil {
		stored, err := s.uploader.Upload(ctx, storage.KindAvatar, pic)
		if err != nil {
			return domain.User{}, wrapStoreErr(err)
		}
		picURL = stored.URL
	}

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	updated, err := s.repo.UpdateProfile(dbCtx, current.ID, domain.ProfileUpdate{
		Name:          form.Name,
		Email:         form.Email,
		Bio:           form.Bio,
		ProfilePicURL: picURL,
	})
	if err != nil {
		if picURL != current.ProfilePicURL {
			s.uploader.Remove(ctx, picURL)
		}
		return domain.User{}, wrapStoreErr(err)
	}

	if picURL != current.ProfilePicURL && current.ProfilePicURL != "" {
		s.uploader.Remove(ctx, current.ProfilePicURL)
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": current.ID,
		"action":  "profile_update",
	}).Info("profile updated")
	return updated, nil
}

func wrapStoreErr(err error) error {
	if _, ok := commonerrors.AsDomainError(err); ok {
		return err
	}
	return commonerrors.Internal(err)
}
