package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/follow/domain"
)

type fakeQuerier struct {
	execFunc func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	lastSQL  string
	lastArgs []interface{}
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	q.lastSQL, q.lastArgs = sql, args
	return q.execFunc(ctx, sql, args...)
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return nil
}

func execReturning(tag string, err error) *fakeQuerier {
	return &fakeQuerier{execFunc: func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
		if err != nil {
			return nil, err
		}
		return pgconn.CommandTag(tag), nil
	}}
}

func TestInsert_RowsAffected(t *testing.T) {
	cases := []struct {
		tag  string
		want bool
	}{
		{tag: "INSERT 0 1", want: true},
		{tag: "INSERT 0 0", want: false},
	}

	for _, tc := range cases {
		q := execReturning(tc.tag, nil)
		repo := NewPgRepository(q)

		inserted, err := repo.Insert(context.Background(), "alice", "bob")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.tag, err)
		}
		if inserted != tc.want {
			t.Errorf("%s: expected inserted=%v, got %v", tc.tag, tc.want, inserted)
		}
		if !strings.Contains(q.lastSQL, "ON CONFLICT DO NOTHING") {
			t.Errorf("insert should tolerate an existing edge, sql: %s", q.lastSQL)
		}
		if len(q.lastArgs) != 2 || q.lastArgs[0] != "alice" || q.lastArgs[1] != "bob" {
			t.Errorf("unexpected args %v", q.lastArgs)
		}
	}
}

func TestInsert_ConcurrentDuplicateIsNoop(t *testing.T) {
	repo := NewPgRepository(execReturning("", &pgconn.PgError{Code: "23505", ConstraintName: "follows_pkey"}))

	inserted, err := repo.Insert(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("duplicate edge should not fail, got %v", err)
	}
	if inserted {
		t.Error("duplicate edge should report inserted=false")
	}
}

func TestInsert_ConstraintMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "check", err: &pgconn.PgError{Code: "23514"}, want: domain.ErrSelfFollow},
		{name: "foreign key", err: &pgconn.PgError{Code: "23503"}, want: commonerrors.ErrUserNotFound},
	}

	for _, tc := range cases {
		repo := NewPgRepository(execReturning("", tc.err))

		inserted, err := repo.Insert(context.Background(), "alice", "bob")
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if inserted {
			t.Errorf("%s: expected inserted=false", tc.name)
		}
	}
}

func TestInsert_OtherErrorsPropagate(t *testing.T) {
	repo := NewPgRepository(execReturning("", errors.New("connection reset")))

	_, err := repo.Insert(context.Background(), "alice", "bob")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := commonerrors.AsDomainError(err); ok {
		t.Errorf("driver failure should stay unmapped, got %v", err)
	}
}

func TestDelete_ReportsRemoval(t *testing.T) {
	cases := []struct {
		tag  string
		want bool
	}{
		{tag: "DELETE 1", want: true},
		{tag: "DELETE 0", want: false},
	}

	for _, tc := range cases {
		repo := NewPgRepository(execReturning(tc.tag, nil))

		removed, err := repo.Delete(context.Background(), "alice", "bob")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.tag, err)
		}
		if removed != tc.want {
			t.Errorf("%s: expected removed=%v, got %v", tc.tag, tc.want, removed)
		}
	}
}
