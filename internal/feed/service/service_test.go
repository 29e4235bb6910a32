package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/social-hub/internal/common/clock"
	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/feed/domain"
	"github.com/AlibekovAA/social-hub/internal/storage"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type memPosts struct {
	rows []domain.Post
	seq  int
}

func (m *memPosts) ListByUser(ctx context.Context, userID userdomain.ID) ([]domain.Post, error) {
	out := []domain.Post{}
	for _, p := range m.rows {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memPosts) FindOwned(ctx context.Context, id string, ownerID userdomain.ID) (domain.Post, error) {
	for _, p := range m.rows {
		if p.ID == id && p.UserID == ownerID {
			return p, nil
		}
	}
	return domain.Post{}, domain.ErrPostNotFound
}

func (m *memPosts) Create(ctx context.Context, post domain.Post) (domain.Post, error) {
	m.seq++
	post.ID = fmt.Sprintf("post-%d", m.seq)
	post.CreatedAt = t0.Add(time.Duration(m.seq) * time.Minute)
	m.rows = append(m.rows, post)
	return post, nil
}

func (m *memPosts) UpdateOwned(ctx context.Context, post domain.Post) (domain.Post, error) {
	for i, p := range m.rows {
		if p.ID == post.ID && p.UserID == post.UserID {
			m.rows[i].Content = post.Content
			m.rows[i].ImageURL = post.ImageURL
			return m.rows[i], nil
		}
	}
	return domain.Post{}, domain.ErrPostNotFound
}

func (m *memPosts) DeleteOwned(ctx context.Context, id string, ownerID userdomain.ID) (domain.Post, error) {
	for i, p := range m.rows {
		if p.ID == id && p.UserID == ownerID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return p, nil
		}
	}
	return domain.Post{}, domain.ErrPostNotFound
}

func (m *memPosts) Count(ctx context.Context) (int64, error) { return int64(len(m.rows)), nil }

type memFiles struct {
	rows      []domain.File
	createErr error
}

func (m *memFiles) ListByUser(ctx context.Context, userID userdomain.ID) ([]domain.File, error) {
	out := []domain.File{}
	for _, f := range m.rows {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFiles) Create(ctx context.Context, file domain.File) (domain.File, error) {
	if m.createErr != nil {
		return domain.File{}, m.createErr
	}
	file.ID = fmt.Sprintf("file-%d", len(m.rows)+1)
	m.rows = append(m.rows, file)
	return file, nil
}

func (m *memFiles) Count(ctx context.Context) (int64, error) { return int64(len(m.rows)), nil }

type adminStub struct {
	admin userdomain.User
	err   error
}

func (a adminStub) DesignatedAdmin(ctx context.Context) (userdomain.User, error) { return a.admin, a.err }

type followSet map[userdomain.ID]bool

func (f followSet) IsFollowing(ctx context.Context, followerID, followedID userdomain.ID) (bool, error) {
	return f[followerID], nil
}

type uploaderStub struct {
	n       int
	removed []string
}

func (u *uploaderStub) Upload(ctx context.Context, kind storage.Kind, fh *multipart.FileHeader) (storage.Stored, error) {
	u.n++
	key := fmt.Sprintf("%s/%d", kind, u.n)
	return storage.Stored{Key: key, URL: storage.URLForKey(key), Size: fh.Size}, nil
}

func (u *uploaderStub) Remove(ctx context.Context, url string) { u.removed = append(u.removed, url) }

type countStub struct {
	since []time.Time
}

func (c *countStub) CountAll(ctx context.Context) (int64, error) { return 10, nil }

func (c *countStub) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	c.since = append(c.since, since)
	return int64(len(c.since)), nil
}

func (c *countStub) Count(ctx context.Context) (int64, error) { return 42, nil }

var (
	root  = userdomain.User{ID: "root", Role: userdomain.RoleAdmin}
	alice = userdomain.User{ID: "alice", Role: userdomain.RoleUser}
	bob   = userdomain.User{ID: "bob", Role: userdomain.RoleUser}
)

type fixture struct {
	svc      *Service
	posts    *memPosts
	files    *memFiles
	uploader *uploaderStub
	counts   *countStub
}

func newFixture(admins AdminResolver, follows followSet) *fixture {
	f := &fixture{
		posts:    &memPosts{},
		files:    &memFiles{},
		uploader: &uploaderStub{},
		counts:   &countStub{},
	}
	f.svc = NewService(Deps{
		Posts:    f.posts,
		Files:    f.files,
		Admins:   admins,
		Follows:  follows,
		Uploader: f.uploader,
		Users:    f.counts,
		Messages: f.counts,
		Clock:    clock.NewMockClock(t0),
		Log:      logger.Discard(),
	})
	return f
}

func TestDashboard_NoAdmin(t *testing.T) {
	f := newFixture(adminStub{err: userdomain.ErrNoAdmin}, followSet{})

	d, err := f.svc.Dashboard(context.Background(), bob)
	require.NoError(t, err)
	assert.True(t, d.NoAdmin)
	assert.False(t, d.MustFollow)
	assert.NotNil(t, d.Posts)
	assert.Empty(t, d.Posts)
	assert.Empty(t, d.Files)
}

func TestDashboard_MustFollowHidesContent(t *testing.T) {
	f := newFixture(adminStub{admin: root}, followSet{"alice": true})
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreatePost(context.Background(), root, fmt.Sprintf("post %d", i), nil)
		require.NoError(t, err)
	}

	d, err := f.svc.Dashboard(context.Background(), bob)
	require.NoError(t, err)
	assert.True(t, d.MustFollow)
	assert.Equal(t, root.ID, d.AdminID)
	assert.Empty(t, d.Posts)

	d, err = f.svc.Dashboard(context.Background(), alice)
	require.NoError(t, err)
	assert.False(t, d.MustFollow)
	require.Len(t, d.Posts, 3)
	assert.Equal(t, "post 2", d.Posts[0].Content, "newest first")
}

func TestDashboard_AdminSeesOwnContent(t *testing.T) {
	f := newFixture(adminStub{admin: root}, followSet{})
	_, err := f.svc.CreatePost(context.Background(), root, "hello", nil)
	require.NoError(t, err)

	d, err := f.svc.Dashboard(context.Background(), root)
	require.NoError(t, err)
	assert.False(t, d.MustFollow)
	assert.Len(t, d.Posts, 1)
}

func TestDashboard_StoreFailure(t *testing.T) {
	f := newFixture(adminStub{err: errors.New("timeout")}, followSet{})

	_, err := f.svc.Dashboard(context.Background(), alice)
	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.CategoryInternal, de.Category())
}

func TestCreatePost_Validation(t *testing.T) {
	f := newFixture(adminStub{admin: root}, followSet{})

	_, err := f.svc.CreatePost(context.Background(), root, "   ", nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidPost))
	assert.Empty(t, f.posts.rows)
}

func TestUpdatePost_ReplacesImage(t *testing.T) {
	f := newFixture(adminStub{admin: root}, followSet{})
	img := &multipart.FileHeader{Filename: "a.png", Size: 4}

	post, err := f.svc.CreatePost(context.Background(), root, "v1", img)
	require.NoError(t, err)
	oldImage := post.ImageURL
	require.NotEmpty(t, oldImage)

	kept, err := f.svc.UpdatePost(context.Background(), root, post.ID, "v2", nil)
	require.NoError(t, err)
	assert.Equal(t, oldImage, kept.ImageURL)
	assert.Empty(t, f.uploader.removed)

	replaced, err := f.svc.UpdatePost(context.Background(), root, post.ID, "v3", img)
	require.NoError(t, err)
	assert.NotEqual(t, oldImage, replaced.ImageURL)
	assert.Equal(t, []string{oldImage}, f.uploader.removed)
}

func TestPosts_ScopedToOwner(t *testing.T) {
	f := newFixture(adminStub{admin: root}, followSet{})
	other := userdomain.User{ID: "other-admin", Role: userdomain.RoleAdmin}
	post, err := f.svc.CreatePost(context.Background(), root, "mine", nil)
	require.NoError(t, err)

	_, err = f.svc.OwnedPost(context.Background(), other, post.ID)
	assert.True(t, errors.Is(err, domain.ErrPostNotFound))
	_, err = f.svc.UpdatePost(context.Background(), other, post.ID, "hijack", nil)
	assert.True(t, errors.Is(err, domain.ErrPostNotFound))
	err = f.svc.DeletePost(context.Background(), other, post.ID)
	assert.True(t, errors.Is(err, domain.ErrPostNotFound))

	require.NoError(t, f.svc.DeletePost(context.Background(), root, post.ID))
	assert.Empty(t, f.posts.rows)
}

func TestUploadFile(t *testing.T) {
	f := newFixture(adminStub{admin: root}, followSet{})
	fh := &multipart.FileHeader{Filename: "notes.pdf", Size: 10}

	_, err := f.svc.UploadFile(context.Background(), root, FileForm{Title: " "}, fh)
	assert.True(t, errors.Is(err, domain.ErrInvalidFile))
	_, err = f.svc.UploadFile(context.Background(), root, FileForm{Title: "Notes"}, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidFile))

	file, err := f.svc.UploadFile(context.Background(), root, FileForm{Title: "Notes", Description: "week 1"}, fh)
	require.NoError(t, err)
	assert.Equal(t, "files/1", file.ObjectKey)
	assert.Equal(t, "/media/files/1", file.FileURL)

	f.files.createErr = errors.New("insert failed")
	_, err = f.svc.UploadFile(context.Background(), root, FileForm{Title: "Again"}, fh)
	require.Error(t, err)
	assert.Equal(t, []string{"/media/files/2"}, f.uploader.removed, "orphaned object should be removed")
}

func TestStats(t *testing.T) {
	f := newFixture(adminStub{admin: root}, followSet{})
	_, err := f.svc.CreatePost(context.Background(), root, "one", nil)
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalPosts)
	assert.Equal(t, int64(42), stats.TotalMessages)
	require.Len(t, f.counts.since, 3)
	assert.Equal(t, t0.Add(-24*time.Hour), f.counts.since[0])
	assert.Equal(t, t0.Add(-7*24*time.Hour), f.counts.since[1])
	assert.Equal(t, t0.Add(-30*24*time.Hour), f.counts.since[2])
}
