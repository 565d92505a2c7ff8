package userservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBookingService/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/internal/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		switch mux.Vars(req)["id"] {
		case "1":
			_, _ = w.Write([]byte(`{"id":1,"status":"approved","category":"student"}`))
		case "2":
			_, _ = w.Write([]byte(`{"id":2,"status":"pending","category":"guest"}`))
		case "500":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	r.HandleFunc("/internal/users/{id}/membership", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("date") != "2026-10-20" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if mux.Vars(req)["id"] == "1" {
			_, _ = w.Write([]byte(`{"valid":true,"expires_at":"2026-12-31"}`))
			return
		}
		_, _ = w.Write([]byte(`{"valid":false}`))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetUser(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, time.Second, logger.NewNop())
	ctx := context.Background()

	user, err := c.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, user.IsApproved())
	assert.Equal(t, "student", user.Category)

	pending, err := c.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.False(t, pending.IsApproved())

	_, err = c.GetUser(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = c.GetUser(ctx, 500)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_HasValidMembership(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, time.Second, logger.NewNop())
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	valid, err := c.HasValidMembership(context.Background(), 1, date)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = c.HasValidMembership(context.Background(), 2, date)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond, logger.NewNop())
	_, err := c.GetUser(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}
