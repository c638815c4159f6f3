package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/backend"
	"github.com/Makepad-fr/tada/internal/model"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	repo, err := backend.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	srv := httptest.NewServer(backend.NewServer(repo, nil))
	t.Cleanup(func() {
		srv.Close()
		repo.Close()
	})
	return srv
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := newBackend(t)
	c, err := api.NewClient(srv.URL+"/", 11, api.WithTimeout(5*time.Second))
	require.NoError(t, err)

	items, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)

	a, err := c.Create(ctx, "Buy milk")
	require.NoError(t, err)
	assert.Equal(t, 11, a.UserID)
	assert.False(t, a.Completed)

	upd, err := c.Update(ctx, a.ID, model.CompletedPatch(true))
	require.NoError(t, err)
	assert.True(t, upd.Completed)
	assert.Equal(t, "Buy milk", upd.Title)

	upd, err = c.Update(ctx, a.ID, model.TitlePatch("Buy oat milk"))
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", upd.Title)
	assert.True(t, upd.Completed)

	items, err = c.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, upd, items[0])

	require.NoError(t, c.Delete(ctx, a.ID))
	err = c.Delete(ctx, a.ID)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))

	var ne *api.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "delete", ne.Op)
	assert.Equal(t, a.ID, ne.ID)
	assert.Contains(t, err.Error(), "todo not found")
}

func TestClient_RejectsMalformedItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id": 1, "userId": 1, "title": "ok", "completed": "yes"}]`))
		default:
			_, _ = w.Write([]byte(`{"id": 0, "userId": 1, "title": "draft", "completed": false}`))
		}
	}))
	defer srv.Close()

	c, err := api.NewClient(srv.URL, 1)
	require.NoError(t, err)

	_, err = c.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/0/completed")

	_, err = c.Create(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/id")
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := api.NewClient(url, 1)
	require.NoError(t, err)
	_, err = c.List(context.Background())

	var ne *api.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Zero(t, ne.Status)
	assert.Equal(t, "list", ne.Op)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := api.NewClient("ftp://example.com", 1)
	assert.Error(t, err)
	_, err = api.NewClient("http://example.com", 0)
	assert.Error(t, err)

	c, err := api.NewClient("", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, c.UserID())
}

func TestNetworkError_Message(t *testing.T) {
	err := &api.NetworkError{Op: "update", ID: 4, Status: 500, Err: errors.New("boom")}
	assert.Equal(t, "update 4: 500 Internal Server Error: boom", err.Error())
	assert.Equal(t, "list", (&api.NetworkError{Op: "list"}).Error())
}
