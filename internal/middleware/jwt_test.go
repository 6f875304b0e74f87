package middleware

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/odialabs/coaching-api/internal/repository"
	"github.com/odialabs/coaching-api/internal/utils"
)

const testSecret = "test-secret"

// newAuthTest wires the Authenticate middleware in front of a probe
// handler that echoes the context identity, backed by a mocked ledger.
func newAuthTest(t *testing.T) (echo.HandlerFunc, sqlmock.Sqlmock, func()) {
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

	probe := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get(CtxUserID),
			"role":    c.Get(CtxRole),
		})
	}
	h := Authenticate(testSecret, repository.NewRevokedTokenRepo(db))(probe)
	return h, mock, cleanup
}

func doRequest(t *testing.T, h echo.HandlerFunc, setup func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func expectLedger(mock sqlmock.Sqlmock, token string, revoked bool) {
	q := mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM revoked_tokens WHERE token_hash=? LIMIT 1")).
		WithArgs(utils.HashToken(token))
	if revoked {
		q.WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	} else {
		q.WillReturnError(sql.ErrNoRows)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	h, _, cleanup := newAuthTest(t)
	defer cleanup()

	rec := doRequest(t, h, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != ReasonMissing {
		t.Errorf("got reason %q, want %q", code, ReasonMissing)
	}
}

func TestAuthenticateRevokedToken(t *testing.T) {
	h, mock, cleanup := newAuthTest(t)
	defer cleanup()

	tok, err := utils.NewAccessToken(testSecret, 7, "jane@example.com", "user", 30)
	if err != nil {
		t.Fatal(err)
	}
	expectLedger(mock, tok.Token, true)

	rec := doRequest(t, h, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok.Token)
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != ReasonRevoked {
		t.Errorf("got reason %q, want %q", code, ReasonRevoked)
	}
}

func TestAuthenticateRevokedWinsOverExpired(t *testing.T) {
	h, mock, cleanup := newAuthTest(t)
	defer cleanup()

	// A token that is both revoked and expired must be reported as
	// revoked: the ledger is consulted before verification.
	tok, err := utils.NewAccessToken(testSecret, 7, "jane@example.com", "user", -1)
	if err != nil {
		t.Fatal(err)
	}
	expectLedger(mock, tok.Token, true)

	rec := doRequest(t, h, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok.Token)
	})
	if code := errorCode(t, rec); code != ReasonRevoked {
		t.Errorf("got reason %q, want %q", code, ReasonRevoked)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	h, mock, cleanup := newAuthTest(t)
	defer cleanup()

	tok, err := utils.NewAccessToken(testSecret, 7, "jane@example.com", "user", -1)
	if err != nil {
		t.Fatal(err)
	}
	expectLedger(mock, tok.Token, false)

	rec := doRequest(t, h, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok.Token)
	})
	if code := errorCode(t, rec); code != ReasonExpired {
		t.Errorf("got reason %q, want %q", code, ReasonExpired)
	}
}

func TestAuthenticateGarbageToken(t *testing.T) {
	h, mock, cleanup := newAuthTest(t)
	defer cleanup()

	expectLedger(mock, "not-a-jwt", false)

	rec := doRequest(t, h, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-jwt")
	})
	if code := errorCode(t, rec); code != ReasonInvalid {
		t.Errorf("got reason %q, want %q", code, ReasonInvalid)
	}
}

func TestAuthenticateCookieBeatsHeader(t *testing.T) {
	h, mock, cleanup := newAuthTest(t)
	defer cleanup()

	cookieTok, err := utils.NewAccessToken(testSecret, 7, "jane@example.com", "user", 30)
	if err != nil {
		t.Fatal(err)
	}
	headerTok, err := utils.NewAccessToken(testSecret, 8, "joe@example.com", "admin", 30)
	if err != nil {
		t.Fatal(err)
	}
	// Only the cookie token should hit the ledger.
	expectLedger(mock, cookieTok.Token, false)

	rec := doRequest(t, h, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "token", Value: cookieTok.Token})
		r.Header.Set("Authorization", "Bearer "+headerTok.Token)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		UserID uint64 `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.UserID != 7 || body.Role != "user" {
		t.Errorf("identity came from the header token: %+v", body)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	probe := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	h := RequireRole("admin")(probe)

	run := func(role interface{}) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set(CtxRole, role)
		}
		if err := h(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec.Code
	}

	if code := run("admin"); code != http.StatusOK {
		t.Errorf("admin: got %d, want 200", code)
	}
	if code := run("user"); code != http.StatusForbidden {
		t.Errorf("user: got %d, want 403", code)
	}
	if code := run(nil); code != http.StatusForbidden {
		t.Errorf("no role: got %d, want 403", code)
	}
	// Certainty about who the caller is gates on 401 earlier; a wrong
	// role is always 403.
	if code := run(42); code != http.StatusForbidden {
		t.Errorf("non-string role: got %d, want 403", code)
	}
}
