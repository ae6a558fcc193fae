package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/internal/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, handler http.HandlerFunc) (*Store, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	statePath := filepath.Join(t.TempDir(), "state.db")
	db, err := OpenState(statePath)
	require.NoError(t, err)

	sess := New(db, testLogger())
	sess.Client = api.NewClient(srv.URL, sess.Token)
	return sess, statePath
}

func TestLoginAccessTokenShape(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"accessToken":"tok-a","user":{"id":7,"email":"a@b.c","name":"Ann"}}`)
	})

	require.NoError(t, sess.Login(context.Background(), "a@b.c", "secret1"))
	require.Equal(t, "tok-a", sess.Token())
	user := sess.Current()
	require.NotNil(t, user)
	require.Equal(t, int64(7), user.ID)
	require.Equal(t, "Ann", user.Name)
}

func TestLoginTokenAndFlatUserShape(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token":"tok-b","id":9,"email":"b@c.d","name":"Bo"}`)
	})

	require.NoError(t, sess.Login(context.Background(), "b@c.d", "secret1"))
	require.Equal(t, "tok-b", sess.Token())
	require.Equal(t, int64(9), sess.Current().ID)
}

func TestLoginMissingTokenIsAuthError(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"user":{"id":1,"email":"a@b.c"}}`)
	})

	err := sess.Login(context.Background(), "a@b.c", "secret1")
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Invalid response from server", authErr.Reason)
	require.Nil(t, sess.Current())
}

func TestLoginRejectionSurfacesServerMessage(t *testing.T) {
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"Incorrect password"}`)
	})

	err := sess.Login(context.Background(), "a@b.c", "wrong-pass")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Incorrect password", authErr.Reason)
}

func TestRegisterShortPassword(t *testing.T) {
	called := false
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	err := sess.Register(context.Background(), "a@b.c", "short", "Ann")
	require.Error(t, err)
	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)
	require.False(t, called, "no request may be sent for an invalid password")
}

func TestSessionSurvivesReopen(t *testing.T) {
	sess, statePath := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"accessToken":"tok-a","user":{"id":7,"email":"a@b.c","name":"Ann"}}`)
	})
	require.NoError(t, sess.Login(context.Background(), "a@b.c", "secret1"))

	db, err := OpenState(statePath)
	require.NoError(t, err)
	reopened := New(db, testLogger())
	require.Equal(t, "tok-a", reopened.Token())
	require.NotNil(t, reopened.Current())
	require.Equal(t, "Ann", reopened.Current().Name)
}

func TestLogoutClearsEverything(t *testing.T) {
	sess, statePath := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"accessToken":"tok-a","user":{"id":7,"email":"a@b.c"}}`)
	})
	require.NoError(t, sess.Login(context.Background(), "a@b.c", "secret1"))

	sess.Logout()
	require.Empty(t, sess.Token())
	require.Nil(t, sess.Current())

	db, err := OpenState(statePath)
	require.NoError(t, err)
	reopened := New(db, testLogger())
	require.Empty(t, reopened.Token())
	require.Nil(t, reopened.Current())
}
