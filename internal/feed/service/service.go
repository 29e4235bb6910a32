package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AlibekovAA/social-hub/internal/common/clock"
	"github.com/AlibekovAA/social-hub/internal/common/constants"
	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/feed/domain"
	"github.com/AlibekovAA/social-hub/internal/feed/repository"
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
	"github.com/AlibekovAA/social-hub/internal/storage"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

type AdminResolver interface {
	DesignatedAdmin(ctx context.Context) (userdomain.User, error)
}

type FollowChecker interface {
	IsFollowing(ctx context.Context, followerID, followedID userdomain.ID) (bool, error)
}

type Uploader interface {
	Upload(ctx context.Context, kind storage.Kind, fh *multipart.FileHeader) (storage.Stored, error)
	Remove(ctx context.Context, url string)
}

type UserCounter interface {
	CountAll(ctx context.Context) (int64, error)
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
}

type MessageCounter interface {
	Count(ctx context.Context) (int64, error)
}

type Deps struct {
	Posts    repository.PostRepository
	Files    repository.FileRepository
	Admins   AdminResolver
	Follows  FollowChecker
	Uploader Uploader
	Users    UserCounter
	Messages MessageCounter
	Clock    clock.Clock
	Log      *logger.Logger
	Timeout  time.Duration
}

type Service struct {
	posts    repository.PostRepository
	files    repository.FileRepository
	admins   AdminResolver
	follows  FollowChecker
	uploader Uploader
	users    UserCounter
	messages MessageCounter
	clock    clock.Clock
	log      *logger.Logger
	timeout  time.Duration
}

func NewService(deps Deps) *Service {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Service{
		posts:    deps.Posts,
		files:    deps.Files,
		admins:   deps.Admins,
		follows:  deps.Follows,
		uploader: deps.Uploader,
		users:    deps.Users,
		messages: deps.Messages,
		clock:    clk,
		log:      deps.Log,
		timeout:  deps.Timeout,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Dashboard gates the admin's content behind a follow edge. A missing admin
// and a missing follow are both normal states, not errors.
func (s *Service) Dashboard(ctx context.Context, viewer userdomain.User) (domain.Dashboard, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	empty := domain.Dashboard{Posts: []domain.Post{}, Files: []domain.File{}}

	admin, err := s.admins.DesignatedAdmin(ctx)
	if err != nil {
		if errors.Is(err, userdomain.ErrNoAdmin) {
			empty.NoAdmin = true
			return empty, nil
		}
		return domain.Dashboard{}, wrap(err)
	}

	if viewer.ID != admin.ID {
		following, err := s.follows.IsFollowing(ctx, viewer.ID, admin.ID)
		if err != nil {
			return domain.Dashboard{}, wrap(err)
		}
		if !following {
			empty.MustFollow = true
			empty.AdminID = admin.ID
			return empty, nil
		}
	}

	posts, files, err := s.content(ctx, admin.ID)
	if err != nil {
		return domain.Dashboard{}, err
	}
	return domain.Dashboard{AdminID: admin.ID, Posts: posts, Files: files}, nil
}

func (s *Service) AdminDashboard(ctx context.Context, admin userdomain.User) (domain.AdminDashboard, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	posts, files, err := s.content(ctx, admin.ID)
	if err != nil {
		return domain.AdminDashboard{}, err
	}
	return domain.AdminDashboard{Posts: posts, Files: files}, nil
}

func (s *Service) content(ctx context.Context, ownerID userdomain.ID) ([]domain.Post, []domain.File, error) {
	posts, err := s.posts.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, nil, wrap(err)
	}
	files, err := s.files.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, nil, wrap(err)
	}
	return posts, files, nil
}

type FileForm struct {
	Title       string
	Description string
}

func (s *Service) UploadFile(ctx context.Context, admin userdomain.User, form FileForm, fh *multipart.FileHeader) (domain.File, error) {
	title := strings.TrimSpace(form.Title)
	if title == "" || fh == nil {
		return domain.File{}, domain.ErrInvalidFile
	}

	stored, err := s.uploader.Upload(ctx, storage.KindFile, fh)
	if err != nil {
		return domain.File{}, wrap(err)
	}

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	file, err := s.files.Create(dbCtx, domain.File{
		UserID:      admin.ID,
		Title:       title,
		Description: strings.TrimSpace(form.Description),
		FileURL:     stored.URL,
		ObjectKey:   stored.Key,
	})
	if err != nil {
		s.uploader.Remove(ctx, stored.URL)
		return domain.File{}, wrap(err)
	}

	metrics.PostsChangesTotal.WithLabelValues("file_upload").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": admin.ID,
		"file_id": file.ID,
		"size":    stored.Size,
		"action":  "file_upload",
	}).Info("file uploaded")
	return file, nil
}

func validPostContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > constants.MaxPostLength {
		return "", domain.ErrInvalidPost
	}
	return trimmed, nil
}

func (s *Service) CreatePost(ctx context.Context, admin userdomain.User, content string, image *multipart.FileHeader) (domain.Post, error) {
	content, err := validPostContent(content)
	if err != nil {
		return domain.Post{}, err
	}

	imageURL := ""
	if image != nil {
		stored, err := s.uploader.Upload(ctx, storage.KindPostImage, image)
		if err != nil {
			return domain.Post{}, wrap(err)
		}
		imageURL = stored.URL
	}

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	post, err := s.posts.Create(dbCtx, domain.Post{
		UserID:   admin.ID,
		Content:  content,
		ImageURL: imageURL,
	})
	if err != nil {
		if imageURL != "" {
			s.uploader.Remove(ctx, imageURL)
		}
		return domain.Post{}, wrap(err)
	}

	metrics.PostsChangesTotal.WithLabelValues("create").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": admin.ID,
		"post_id": post.ID,
		"action":  "post_create",
	}).Info("post created")
	return post, nil
}

func (s *Service) OwnedPost(ctx context.Context, admin userdomain.User, id string) (domain.Post, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	post, err := s.posts.FindOwned(ctx, id, admin.ID)
	if err != nil {
		return domain.Post{}, wrap(err)
	}
	return post, nil
}

// UpdatePost rewrites content and, when image is given, replaces the
// picture. Without a new image the current one is kept.
func (s *Service) UpdatePost(ctx context.Context, admin userdomain.User, id, content string, image *multipart.FileHeader) (domain.Post, error) {
	content, err := validPostContent(content)
	if err != nil {
		return domain.Post{}, err
	}

	current, err := s.OwnedPost(ctx, admin, id)
	if err != nil {
		return domain.Post{}, err
	}

	imageURL := current.ImageURL
	if image != nil {
		stored, err := s.uploader.Upload(ctx, storage.KindPostImage, image)
		if err != nil {
			return domain.Post{}, wrap(err)
		}
		imageURL = stored.URL
	}

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	previousImage := current.ImageURL
	current.Content = content
	current.ImageURL = imageURL
	updated, err := s.posts.UpdateOwned(dbCtx, current)
	if err != nil {
		if image != nil {
			s.uploader.Remove(ctx, imageURL)
		}
		return domain.Post{}, wrap(err)
	}

	if image != nil && previousImage != "" {
		s.uploader.Remove(ctx, previousImage)
	}
	metrics.PostsChangesTotal.WithLabelValues("update").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": admin.ID,
		"post_id": id,
		"action":  "post_update",
	}).Info("post updated")
	return updated, nil
}

func (s *Service) DeletePost(ctx context.Context, admin userdomain.User, id string) error {
	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	deleted, err := s.posts.DeleteOwned(dbCtx, id, admin.ID)
	if err != nil {
		return wrap(err)
	}
	if deleted.ImageURL != "" {
		s.uploader.Remove(ctx, deleted.ImageURL)
	}

	metrics.PostsChangesTotal.WithLabelValues("delete").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": admin.ID,
		"post_id": id,
		"action":  "post_delete",
	}).Info("post deleted")
	return nil
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		stats domain.Stats
		err   error
	)
	now := s.clock.Now()

	if stats.TotalUsers, err = s.users.CountAll(ctx); err != nil {
		return domain.Stats{}, wrap(err)
	}
	if stats.TotalPosts, err = s.posts.Count(ctx); err != nil {
		return domain.Stats{}, wrap(err)
	}
	if stats.TotalFiles, err = s.files.Count(ctx); err != nil {
		return domain.Stats{}, wrap(err)
	}
	if stats.TotalMessages, err = s.messages.Count(ctx); err != nil {
		return domain.Stats{}, wrap(err)
	}
	if stats.ActiveToday, err = s.users.CountActiveSince(ctx, now.Add(-24*time.Hour)); err != nil {
		return domain.Stats{}, wrap(err)
	}
	if stats.ActiveWeek, err = s.users.CountActiveSince(ctx, now.Add(-7*24*time.Hour)); err != nil {
		return domain.Stats{}, wrap(err)
	}
	if stats.ActiveMonth, err = s.users.CountActiveSince(ctx, now.Add(-30*24*time.Hour)); err != nil {
		return domain.Stats{}, wrap(err)
	}
	return stats, nil
}

func wrap(err error) error {
	if _, ok := commonerrors.AsDomainError(err); ok {
		return err
	}
	return commonerrors.Internal(err)
}
