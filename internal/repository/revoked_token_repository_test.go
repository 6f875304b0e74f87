package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/odialabs/coaching-api/internal/utils"
)

// newTestDB returns a mocked *sql.DB along with the mock handle and a
// cleanup function. Expected query strings are treated as regular
// expressions, so callers quote them with regexp.QuoteMeta.
func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	}
	return db, mock, cleanup
}

func TestIsRevoked(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewRevokedTokenRepo(db)
	var (
		token = "some.jwt.token"
		q     = regexp.QuoteMeta("SELECT 1 FROM revoked_tokens WHERE token_hash=? LIMIT 1")
	)

	// Unexpected error path.
	unexpectedErr := errors.New("unexpected error")
	mock.ExpectQuery(q).
		WithArgs(utils.HashToken(token)).
		WillReturnError(unexpectedErr)

	_, err := r.IsRevoked(context.Background(), token)
	if !errors.Is(err, unexpectedErr) {
		t.Errorf("got err '%v', want '%v'", err, unexpectedErr)
	}

	// Not revoked: no row.
	mock.ExpectQuery(q).
		WithArgs(utils.HashToken(token)).
		WillReturnError(sql.ErrNoRows)

	revoked, err := r.IsRevoked(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if revoked {
		t.Error("token reported revoked without a ledger row")
	}

	// Revoked: one row. The lookup key is the digest, not the token.
	mock.ExpectQuery(q).
		WithArgs(utils.HashToken(token)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	revoked, err = r.IsRevoked(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if !revoked {
		t.Error("token not reported revoked")
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewRevokedTokenRepo(db)
	var (
		token = "some.jwt.token"
		exp   = time.Now().UTC().Add(time.Hour)
		q     = regexp.QuoteMeta("INSERT INTO revoked_tokens")
	)

	// First revocation inserts a row.
	mock.ExpectExec(q).
		WithArgs(utils.HashToken(token), token, uint64(42), utils.KindAccess, exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.Revoke(context.Background(), token, 42, utils.KindAccess, exp); err != nil {
		t.Fatal(err)
	}

	// Second revocation hits the duplicate-key branch and affects no
	// rows; still no error.
	mock.ExpectExec(q).
		WithArgs(utils.HashToken(token), token, uint64(42), utils.KindAccess, exp).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := r.Revoke(context.Background(), token, 42, utils.KindAccess, exp); err != nil {
		t.Fatal(err)
	}
}

func TestPurgeExpired(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewRevokedTokenRepo(db)
	q := regexp.QuoteMeta("DELETE FROM revoked_tokens WHERE expires_at <= UTC_TIMESTAMP()")

	unexpectedErr := errors.New("unexpected error")
	mock.ExpectExec(q).WillReturnError(unexpectedErr)

	_, err := r.PurgeExpired(context.Background())
	if !errors.Is(err, unexpectedErr) {
		t.Errorf("got err '%v', want '%v'", err, unexpectedErr)
	}

	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := r.PurgeExpired(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("got %d purged rows, want 3", n)
	}
}
