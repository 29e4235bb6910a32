package repository

import (
	"context"
	"time"

	"github.com/AlibekovAA/social-hub/internal/common/db"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/feed/domain"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

type PostRepository interface {
	ListByUser(ctx context.Context, userID userdomain.ID) ([]domain.Post, error)
	FindOwned(ctx context.Context, id string, ownerID userdomain.ID) (domain.Post, error)
	Create(ctx context.Context, post domain.Post) (domain.Post, error)
	UpdateOwned(ctx context.Context, post domain.Post) (domain.Post, error)
	// DeleteOwned returns the removed row so its image can be cleaned up.
	DeleteOwned(ctx context.Context, id string, ownerID userdomain.ID) (domain.Post, error)
	Count(ctx context.Context) (int64, error)
}

type FileRepository interface {
	ListByUser(ctx context.Context, userID userdomain.ID) ([]domain.File, error)
	Create(ctx context.Context, file domain.File) (domain.File, error)
	Count(ctx context.Context) (int64, error)
}

const postColumns = `p.id, p.user_id, p.content, p.image_url, p.created_at, u.name, u.profile_pic_url`

type PgPostRepository struct {
	q     db.Querier
	log   *logger.Logger
	retry db.RetryConfig
}

func NewPgPostRepository(q db.Querier, log *logger.Logger) *PgPostRepository {
	return &PgPostRepository{q: q, log: log, retry: db.DefaultRetryConfig}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row scanner) (domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.ImageURL, &p.CreatedAt, &p.AuthorName, &p.AuthorPicURL)
	return p, err
}

func (r *PgPostRepository) ListByUser(ctx context.Context, userID userdomain.ID) ([]domain.Post, error) {
	var posts []domain.Post
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func(ctx context.Context) error {
		start := time.Now()
		rows, err := r.q.Query(
			ctx,
			`SELECT `+postColumns+`
			 FROM posts p
			 JOIN users u ON u.id = p.user_id
			 WHERE p.user_id = $1
			 ORDER BY p.created_at DESC, p.id DESC`,
			string(userID),
		)
		if err != nil {
			return db.HandleQueryError(err, nil, "list posts", start)
		}
		defer rows.Close()

		posts = posts[:0]
		for rows.Next() {
			p, err := scanPost(rows)
			if err != nil {
				return db.HandleQueryError(err, nil, "scan post", start)
			}
			posts = append(posts, p)
		}
		return db.HandleQueryError(rows.Err(), nil, "list posts", start)
	})
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

func (r *PgPostRepository) FindOwned(ctx context.Context, id string, ownerID userdomain.ID) (domain.Post, error) {
	start := time.Now()
	post, err := scanPost(r.q.QueryRow(
		ctx,
		`SELECT `+postColumns+`
		 FROM posts p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.id = $1 AND p.user_id = $2`,
		id,
		string(ownerID),
	))
	if err := db.HandleQueryError(err, domain.ErrPostNotFound, "find post", start); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (r *PgPostRepository) Create(ctx context.Context, post domain.Post) (domain.Post, error) {
	start := time.Now()
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO posts (user_id, content, image_url)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		string(post.UserID),
		post.Content,
		post.ImageURL,
	).Scan(&post.ID, &post.CreatedAt)
	if err := db.HandleQueryError(err, nil, "create post", start); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (r *PgPostRepository) UpdateOwned(ctx context.Context, post domain.Post) (domain.Post, error) {
	start := time.Now()
	err := r.q.QueryRow(
		ctx,
		`UPDATE posts SET content = $1, image_url = $2
		 WHERE id = $3 AND user_id = $4
		 RETURNING created_at`,
		post.Content,
		post.ImageURL,
		post.ID,
		string(post.UserID),
	).Scan(&post.CreatedAt)
	if err := db.HandleQueryError(err, domain.ErrPostNotFound, "update post", start); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (r *PgPostRepository) DeleteOwned(ctx context.Context, id string, ownerID userdomain.ID) (domain.Post, error) {
	start := time.Now()
	post := domain.Post{ID: id, UserID: ownerID}
	err := r.q.QueryRow(
		ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2
		 RETURNING content, image_url, created_at`,
		id,
		string(ownerID),
	).Scan(&post.Content, &post.ImageURL, &post.CreatedAt)
	if err := db.HandleQueryError(err, domain.ErrPostNotFound, "delete post", start); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (r *PgPostRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.q, `SELECT COUNT(*) FROM posts`, "count posts")
}

type PgFileRepository struct {
	q     db.Querier
	log   *logger.Logger
	retry db.RetryConfig
}

func NewPgFileRepository(q db.Querier, log *logger.Logger) *PgFileRepository {
	return &PgFileRepository{q: q, log: log, retry: db.DefaultRetryConfig}
}

func (r *PgFileRepository) ListByUser(ctx context.Context, userID userdomain.ID) ([]domain.File, error) {
	var files []domain.File
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func(ctx context.Context) error {
		start := time.Now()
		rows, err := r.q.Query(
			ctx,
			`SELECT f.id, f.user_id, f.title, f.description, f.file_url, f.object_key, f.created_at, u.name
			 FROM files f
			 JOIN users u ON u.id = f.user_id
			 WHERE f.user_id = $1
			 ORDER BY f.created_at DESC, f.id DESC`,
			string(userID),
		)
		if err != nil {
			return db.HandleQueryError(err, nil, "list files", start)
		}
		defer rows.Close()

		files = files[:0]
		for rows.Next() {
			var f domain.File
			if err := rows.Scan(&f.ID, &f.UserID, &f.Title, &f.Description, &f.FileURL, &f.ObjectKey, &f.CreatedAt, &f.AuthorName); err != nil {
				return db.HandleQueryError(err, nil, "scan file", start)
			}
			files = append(files, f)
		}
		return db.HandleQueryError(rows.Err(), nil, "list files", start)
	})
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []domain.File{}
	}
	return files, nil
}

func (r *PgFileRepository) Create(ctx context.Context, file domain.File) (domain.File, error) {
	start := time.Now()
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO files (user_id, title, description, file_url, object_key)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		string(file.UserID),
		file.Title,
		file.Description,
		file.FileURL,
		file.ObjectKey,
	).Scan(&file.ID, &file.CreatedAt)
	if err := db.HandleQueryError(err, nil, "create file", start); err != nil {
		return domain.File{}, err
	}
	return file, nil
}

func (r *PgFileRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.q, `SELECT COUNT(*) FROM files`, "count files")
}

func count(ctx context.Context, q db.Querier, sql, operation string) (int64, error) {
	start := time.Now()
	var n int64
	err := q.QueryRow(ctx, sql).Scan(&n)
	if err := db.HandleQueryError(err, nil, operation, start); err != nil {
		return 0, err
	}
	return n, nil
}
