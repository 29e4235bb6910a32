package repository

import (
	"context"
	"time"

	"github.com/AlibekovAA/social-hub/internal/common/db"
	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/user/domain"
)

type Repository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	FindEarliestAdmin(ctx context.Context) (domain.User, error)
	Exists(ctx context.Context, id domain.ID) (bool, error)
	UpdateProfile(ctx context.Context, id domain.ID, update domain.ProfileUpdate) (domain.User, error)
	UpdateLastSeenBatch(ctx context.Context, ids []domain.ID, at time.Time) error
	CountAll(ctx context.Context) (int64, error)
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
}

const userColumns = `id, username, email, name, bio, profile_pic_url, password_hash, role, created_at, last_seen`

type PgRepository struct {
	q     db.Querier
	log   *logger.Logger
	retry db.RetryConfig
}

func NewPgRepository(q db.Querier, log *logger.Logger) *PgRepository {
	return &PgRepository{q: q, log: log, retry: db.DefaultRetryConfig}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (domain.User, error) {
	var (
		user domain.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Name,
		&user.Bio,
		&user.ProfilePicURL,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
		&user.LastSeen,
	)
	if err != nil {
		return domain.User{}, err
	}
	if user.Role, err = domain.ParseRole(role); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	start := time.Now()
	row := r.q.QueryRow(
		ctx,
		`INSERT INTO users (id, username, email, name, bio, profile_pic_url, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+userColumns,
		string(user.ID),
		user.Username,
		user.Email,
		user.Name,
		user.Bio,
		user.ProfilePicURL,
		user.PasswordHash,
		string(user.Role),
	)

	created, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			db.MeasureQueryDuration("create user", start)
			return domain.User{}, uniqueViolationError(err)
		}
		return domain.User{}, db.HandleQueryError(err, nil, "create user", start)
	}
	db.MeasureQueryDuration("create user", start)
	return created, nil
}

// FindByIdentifier matches username or email. If the identifier is one
// user's username and another's email, the username match wins.
func (r *PgRepository) FindByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	var user domain.User
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func(ctx context.Context) error {
		start := time.Now()
		row := r.q.QueryRow(
			ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE username = $1 OR email = $1
			 ORDER BY (username = $1) DESC, created_at ASC
			 LIMIT 1`,
			identifier,
		)
		var err error
		user, err = scanUser(row)
		return db.HandleQueryError(err, commonerrors.ErrUserNotFound, "find user by identifier", start)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	var user domain.User
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func(ctx context.Context) error {
		start := time.Now()
		row := r.q.QueryRow(
			ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			string(id),
		)
		var err error
		user, err = scanUser(row)
		return db.HandleQueryError(err, commonerrors.ErrUserNotFound, "find user by id", start)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) FindEarliestAdmin(ctx context.Context) (domain.User, error) {
	start := time.Now()
	row := r.q.QueryRow(
		ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE role = $1
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`,
		string(domain.RoleAdmin),
	)
	user, err := scanUser(row)
	if err := db.HandleQueryError(err, domain.ErrNoAdmin, "find earliest admin", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) Exists(ctx context.Context, id domain.ID) (bool, error) {
	start := time.Now()
	var exists bool
	err := r.q.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`,
		string(id),
	).Scan(&exists)
	if err := db.HandleQueryError(err, nil, "check user exists", start); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) UpdateProfile(ctx context.Context, id domain.ID, update domain.ProfileUpdate) (domain.User, error) {
	start := time.Now()
	row := r.q.QueryRow(
		ctx,
		`UPDATE users
		 SET name = $1, email = $2, bio = $3, profile_pic_url = $4
		 WHERE id = $5
		 RETURNING `+userColumns,
		update.Name,
		update.Email,
		update.Bio,
		update.ProfilePicURL,
		string(id),
	)

	user, err := scanUser(row)
	if err != nil && db.IsUniqueViolation(err) {
		db.MeasureQueryDuration("update user profile", start)
		return domain.User{}, uniqueViolationError(err)
	}
	if err := db.HandleQueryError(err, commonerrors.ErrUserNotFound, "update user profile", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) UpdateLastSeenBatch(ctx context.Context, ids []domain.ID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}

	start := time.Now()
	_, err := r.q.Exec(
		ctx,
		`UPDATE users SET last_seen = $2 WHERE id = ANY($1::uuid[])`,
		raw,
		at,
	)
	return db.HandleExecError(err, "update last seen batch", start)
}

func (r *PgRepository) CountAll(ctx context.Context) (int64, error) {
	start := time.Now()
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err := db.HandleQueryError(err, nil, "count users", start); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PgRepository) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	start := time.Now()
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE last_seen > $1`, since).Scan(&count)
	if err := db.HandleQueryError(err, nil, "count active users", start); err != nil {
		return 0, err
	}
	return count, nil
}

func uniqueViolationError(err error) error {
	if db.ConstraintName(err) == "users_email_key" {
		return domain.ErrEmailTaken.WithCause(err)
	}
	return domain.ErrUsernameTaken.WithCause(err)
}
