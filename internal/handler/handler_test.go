package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zmodels/internal/config"
	"zmodels/internal/database"
	"zmodels/internal/domain"
	"zmodels/internal/loader"
	"zmodels/internal/service"
)

const testSchemas = `
models:
  - name: BlogPost
    fields:
      - {name: id, type: int, primary_key: true, generated: auto}
      - {name: title, required: true}
      - {name: views, type: int}
`

type fakeHealth struct{ err error }

func (f fakeHealth) Health(context.Context) error { return f.err }

func newTestServer(t *testing.T, health HealthChecker) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schemas, err := loader.ParseYAML([]byte(testSchemas))
	require.NoError(t, err)

	catalog := service.NewCatalog(db, nil, zerolog.Nop())
	require.NoError(t, catalog.Load(ctx, schemas))

	if health == nil {
		health = db
	}

	mux := http.NewServeMux()
	NewModelHandler(catalog, health, zerolog.Nop()).Routes(mux, nil)

	srv := httptest.NewServer(RequestLogger(zerolog.Nop(), mux))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeObject(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var obj map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&obj))
	return obj
}

func TestCreateAndGet(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/models/BlogPost", `{"title": "Hi", "views": 3}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeObject(t, resp)
	assert.Equal(t, float64(1), created["id"])
	assert.Equal(t, "Hi", created["title"])

	resp = get(t, srv.URL+"/api/models/BlogPost/one?title=Hi")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeObject(t, resp)
	assert.Equal(t, float64(3), got["views"])
}

func TestFilterAndFormats(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/models/BlogPost", `[{"title": "a", "views": 1}, {"title": "b", "views": 1}, {"title": "c", "views": 2}]`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = get(t, srv.URL+"/api/models/BlogPost?views=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rows []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Len(t, rows, 2)

	resp = get(t, srv.URL+"/api/models/BlogPost?views=null")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Len(t, rows, 3)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/models/BlogPost?title=c", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/plain")
	textResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer textResp.Body.Close()

	text, err := io.ReadAll(textResp.Body)
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", textResp.Header.Get("Content-Type"))
	assert.Equal(t, "BlogPost(id=3, title=c, views=2)\n", string(text))
}

func TestGetOrCreateStatus(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/models/BlogPost/get-or-create", `{"title": "once"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(t, srv.URL+"/api/models/BlogPost/get-or-create", `{"title": "once"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, srv.URL+"/api/models/BlogPost/get-or-create", `[{"title": "once"}]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(t, nil)

	post(t, srv.URL+"/api/models/BlogPost", `{"title": "dup"}`)
	post(t, srv.URL+"/api/models/BlogPost", `{"title": "dup"}`)

	tests := []struct {
		name   string
		resp   func() *http.Response
		status int
	}{
		{"not found", func() *http.Response { return get(t, srv.URL+"/api/models/BlogPost/one?title=none") }, http.StatusNotFound},
		{"not unique", func() *http.Response { return get(t, srv.URL+"/api/models/BlogPost/one?title=dup") }, http.StatusConflict},
		{"unknown model", func() *http.Response { return get(t, srv.URL+"/api/models/Comment") }, http.StatusNotFound},
		{"unknown field", func() *http.Response { return get(t, srv.URL+"/api/models/BlogPost?author=me") }, http.StatusBadRequest},
		{"bad value", func() *http.Response { return get(t, srv.URL+"/api/models/BlogPost?views=lots") }, http.StatusBadRequest},
		{"bad body", func() *http.Response { return post(t, srv.URL+"/api/models/BlogPost", `{"title":`) }, http.StatusBadRequest},
		{"empty body", func() *http.Response { return post(t, srv.URL+"/api/models/BlogPost", ``) }, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.resp()
			assert.Equal(t, tt.status, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestListModelsAndHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := get(t, srv.URL+"/api/models")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var schemas []domain.Schema
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&schemas))
	require.Len(t, schemas, 1)
	assert.Equal(t, "blog_post", schemas[0].Table)

	resp = get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	down := newTestServer(t, fakeHealth{err: errors.New("connection refused")})
	resp = get(t, down.URL+"/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewNotFoundError("A", nil), http.StatusNotFound},
		{domain.NewNotUniqueError("A", nil, 2), http.StatusConflict},
		{fmt.Errorf("wrap: %w", domain.ErrUnknownModel), http.StatusNotFound},
		{fmt.Errorf("wrap: %w", domain.ErrUnknownField), http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", domain.ErrInvalidValue), http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "error %v", tt.err)
	}
}
