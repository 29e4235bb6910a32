package repository

import (
	"context"
	"time"

	"github.com/AlibekovAA/social-hub/internal/common/db"
	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/messaging/domain"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

// ConversationRow carries the stored (encoded) body of the latest message.
type ConversationRow struct {
	Peer        userdomain.Summary
	LastContent string
	LastTime    time.Time
	UnreadCount int64
}

// Repository works with encoded message bodies only.
type Repository interface {
	Conversations(ctx context.Context, userID userdomain.ID) ([]ConversationRow, error)
	MarkRead(ctx context.Context, senderID, receiverID userdomain.ID) (int64, error)
	History(ctx context.Context, a, b userdomain.ID) ([]domain.Message, error)
	Create(ctx context.Context, msg domain.Message) (domain.Message, error)
	Count(ctx context.Context) (int64, error)
}

type PgRepository struct {
	q     db.Querier
	log   *logger.Logger
	retry db.RetryConfig
}

func NewPgRepository(q db.Querier, log *logger.Logger) *PgRepository {
	return &PgRepository{q: q, log: log, retry: db.DefaultRetryConfig}
}

func (r *PgRepository) Conversations(ctx context.Context, userID userdomain.ID) ([]ConversationRow, error) {
	var rows []ConversationRow
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func(ctx context.Context) error {
		start := time.Now()
		res, err := r.q.Query(
			ctx,
			`WITH mine AS (
			     SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS peer_id,
			            id, content, created_at
			     FROM messages
			     WHERE sender_id = $1 OR receiver_id = $1
			 ), latest AS (
			     SELECT DISTINCT ON (peer_id) peer_id, content, created_at
			     FROM mine
			     ORDER BY peer_id, created_at DESC, id DESC
			 ), unread AS (
			     SELECT sender_id AS peer_id, COUNT(*) AS n
			     FROM messages
			     WHERE receiver_id = $1 AND NOT is_read
			     GROUP BY sender_id
			 )
			 SELECT u.id, u.username, u.name, u.profile_pic_url,
			        l.content, l.created_at, COALESCE(un.n, 0)
			 FROM latest l
			 JOIN users u ON u.id = l.peer_id
			 LEFT JOIN unread un ON un.peer_id = l.peer_id
			 ORDER BY l.created_at DESC, u.id`,
			string(userID),
		)
		if err != nil {
			return db.HandleQueryError(err, nil, "list conversations", start)
		}
		defer res.Close()

		rows = rows[:0]
		for res.Next() {
			var c ConversationRow
			if err := res.Scan(
				&c.Peer.ID,
				&c.Peer.Username,
				&c.Peer.Name,
				&c.Peer.ProfilePicURL,
				&c.LastContent,
				&c.LastTime,
				&c.UnreadCount,
			); err != nil {
				return db.HandleQueryError(err, nil, "scan conversation", start)
			}
			rows = append(rows, c)
		}
		return db.HandleQueryError(res.Err(), nil, "list conversations", start)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PgRepository) MarkRead(ctx context.Context, senderID, receiverID userdomain.ID) (int64, error) {
	start := time.Now()
	tag, err := r.q.Exec(
		ctx,
		`UPDATE messages SET is_read = TRUE
		 WHERE sender_id = $1 AND receiver_id = $2 AND NOT is_read`,
		string(senderID),
		string(receiverID),
	)
	if err := db.HandleExecError(err, "mark messages read", start); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) History(ctx context.Context, a, b userdomain.ID) ([]domain.Message, error) {
	var msgs []domain.Message
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func(ctx context.Context) error {
		start := time.Now()
		res, err := r.q.Query(
			ctx,
			`SELECT id, sender_id, receiver_id, content, created_at, is_read
			 FROM messages
			 WHERE (sender_id = $1 AND receiver_id = $2)
			    OR (sender_id = $2 AND receiver_id = $1)
			 ORDER BY created_at ASC, id ASC`,
			string(a),
			string(b),
		)
		if err != nil {
			return db.HandleQueryError(err, nil, "list messages", start)
		}
		defer res.Close()

		msgs = msgs[:0]
		for res.Next() {
			var m domain.Message
			if err := res.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt, &m.IsRead); err != nil {
				return db.HandleQueryError(err, nil, "scan message", start)
			}
			msgs = append(msgs, m)
		}
		return db.HandleQueryError(res.Err(), nil, "list messages", start)
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *PgRepository) Create(ctx context.Context, msg domain.Message) (domain.Message, error) {
	start := time.Now()
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO messages (sender_id, receiver_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, is_read`,
		string(msg.SenderID),
		string(msg.ReceiverID),
		msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt, &msg.IsRead)
	if err != nil && db.IsForeignKeyViolation(err) {
		db.MeasureQueryDuration("create message", start)
		return domain.Message{}, commonerrors.ErrUserNotFound.WithCause(err)
	}
	if err := db.HandleQueryError(err, nil, "create message", start); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (r *PgRepository) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	var n int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n)
	if err := db.HandleQueryError(err, nil, "count messages", start); err != nil {
		return 0, err
	}
	return n, nil
}
