package repository

import (
	"context"
	"time"

	"github.com/AlibekovAA/social-hub/internal/common/db"
	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/follow/domain"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

type Repository interface {
	IsFollowing(ctx context.Context, followerID, followedID userdomain.ID) (bool, error)
	Insert(ctx context.Context, followerID, followedID userdomain.ID) (bool, error)
	Delete(ctx context.Context, followerID, followedID userdomain.ID) (bool, error)
	Counts(ctx context.Context, userID userdomain.ID) (domain.Counts, error)
}

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

func (r *PgRepository) IsFollowing(ctx context.Context, followerID, followedID userdomain.ID) (bool, error) {
	start := time.Now()
	var exists bool
	err := r.q.QueryRow(
		ctx,
		`SELECT EXISTS (
		 	SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2
		 )`,
		string(followerID),
		string(followedID),
	).Scan(&exists)
	if err := db.HandleQueryError(err, nil, "check follow", start); err != nil {
		return false, err
	}
	return exists, nil
}

// Insert is idempotent: an existing edge, including one created by a
// concurrent request, reports inserted=false without error.
func (r *PgRepository) Insert(ctx context.Context, followerID, followedID userdomain.ID) (bool, error) {
	start := time.Now()
	tag, err := r.q.Exec(
		ctx,
		`INSERT INTO follows (follower_id, followed_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		string(followerID),
		string(followedID),
	)
	switch {
	case err == nil:
		db.MeasureQueryDuration("insert follow", start)
		return tag.RowsAffected() == 1, nil
	case db.IsUniqueViolation(err):
		db.MeasureQueryDuration("insert follow", start)
		return false, nil
	case db.IsCheckViolation(err):
		db.MeasureQueryDuration("insert follow", start)
		return false, domain.ErrSelfFollow.WithCause(err)
	case db.IsForeignKeyViolation(err):
		db.MeasureQueryDuration("insert follow", start)
		return false, commonerrors.ErrUserNotFound.WithCause(err)
	}
	return false, db.HandleExecError(err, "insert follow", start)
}

func (r *PgRepository) Delete(ctx context.Context, followerID, followedID userdomain.ID) (bool, error) {
	start := time.Now()
	tag, err := r.q.Exec(
		ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`,
		string(followerID),
		string(followedID),
	)
	if err := db.HandleExecError(err, "delete follow", start); err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) Counts(ctx context.Context, userID userdomain.ID) (domain.Counts, error) {
	start := time.Now()
	var counts domain.Counts
	err := r.q.QueryRow(
		ctx,
		`SELECT
		 	(SELECT COUNT(*) FROM follows WHERE followed_id = $1),
		 	(SELECT COUNT(*) FROM follows WHERE follower_id = $1)`,
		string(userID),
	).Scan(&counts.Followers, &counts.Following)
	if err := db.HandleQueryError(err, nil, "count follows", start); err != nil {
		return domain.Counts{}, err
	}
	return counts, nil
}
