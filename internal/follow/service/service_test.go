package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/follow/domain"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

type edge struct{ from, to userdomain.ID }

// memRepo mirrors the table semantics: primary key on the edge.
type memRepo struct {
	edges     map[edge]bool
	insertErr error
	// racedBy creates the edge just before Insert runs, as a concurrent
	// request would after Delete found nothing.
	racedBy bool
}

func newMemRepo() *memRepo { return &memRepo{edges: map[edge]bool{}} }

func (m *memRepo) IsFollowing(ctx context.Context, followerID, followedID userdomain.ID) (bool, error) {
	return m.edges[edge{followerID, followedID}], nil
}

func (m *memRepo) Insert(ctx context.Context, followerID, followedID userdomain.ID) (bool, error) {
	if m.insertErr != nil {
		return false, m.insertErr
	}
	e := edge{followerID, followedID}
	if m.racedBy {
		m.edges[e] = true
	}
	if m.edges[e] {
		return false, nil
	}
	m.edges[e] = true
	return true, nil
}

func (m *memRepo) Delete(ctx context.Context, followerID, followedID userdomain.ID) (bool, error) {
	e := edge{followerID, followedID}
	if !m.edges[e] {
		return false, nil
	}
	delete(m.edges, e)
	return true, nil
}

func (m *memRepo) Counts(ctx context.Context, userID userdomain.ID) (domain.Counts, error) {
	var c domain.Counts
	for e := range m.edges {
		if e.to == userID {
			c.Followers++
		}
		if e.from == userID {
			c.Following++
		}
	}
	return c, nil
}

type usersStub map[userdomain.ID]bool

func (u usersStub) Exists(ctx context.Context, id userdomain.ID) (bool, error) { return u[id], nil }

type adminStub struct {
	admin userdomain.User
	err   error
}

func (a adminStub) DesignatedAdmin(ctx context.Context) (userdomain.User, error) { return a.admin, a.err }

func newService(repo *memRepo) *Service {
	users := usersStub{"alice": true, "bob": true, "admin": true}
	admins := adminStub{admin: userdomain.User{ID: "admin", Role: userdomain.RoleAdmin}}
	return NewService(repo, users, admins, logger.Discard(), 0)
}

func TestToggle_FollowThenUnfollow(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()

	following, err := svc.Toggle(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, following)

	following, err = svc.Toggle(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, following)

	isFollowing, err := svc.IsFollowing(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, isFollowing)
}

func TestToggle_ConcurrentFollowStillReportsFollowing(t *testing.T) {
	repo := newMemRepo()
	repo.racedBy = true
	svc := newService(repo)
	ctx := context.Background()

	following, err := svc.Toggle(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, following)

	counts, err := svc.Counts(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Followers)
}

func TestToggle_RejectsSelfAndUnknown(t *testing.T) {
	svc := newService(newMemRepo())

	_, err := svc.Toggle(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, domain.ErrSelfFollow)

	_, err = svc.Toggle(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, commonerrors.ErrUserNotFound)
}

func TestToggle_StoreFailureIsInternal(t *testing.T) {
	repo := newMemRepo()
	repo.insertErr = errors.New("connection reset")
	svc := newService(repo)

	_, err := svc.Toggle(context.Background(), "alice", "bob")
	require.Error(t, err)
	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.CategoryInternal, de.Category())
}

func TestFollowAdmin_Idempotent(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()

	require.NoError(t, svc.FollowAdmin(ctx, "alice", "admin"))
	require.NoError(t, svc.FollowAdmin(ctx, "alice", "admin"))

	counts, err := svc.Counts(ctx, "admin")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Followers)
}

func TestFollowAdmin_Rejections(t *testing.T) {
	svc := newService(newMemRepo())
	ctx := context.Background()

	assert.ErrorIs(t, svc.FollowAdmin(ctx, "alice", "bob"), domain.ErrNotDesignatedAdmin)
	assert.ErrorIs(t, svc.FollowAdmin(ctx, "admin", "admin"), domain.ErrSelfFollow)

	noAdmin := NewService(newMemRepo(), usersStub{}, adminStub{err: userdomain.ErrNoAdmin}, logger.Discard(), 0)
	assert.ErrorIs(t, noAdmin.FollowAdmin(ctx, "alice", "admin"), userdomain.ErrNoAdmin)
}
