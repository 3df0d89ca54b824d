package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"planets-api/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePool counts connections so tests can assert nothing leaks.
type fakePool struct {
	mu sync.Mutex

	rows         []services.Row
	acquireErr   error
	queryErr     error
	execErr      error
	releaseErr   error
	releasePanic bool

	held     int
	acquired int
	released int
	queries  []string
}

func (p *fakePool) Acquire(ctx context.Context) (services.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.held++
	p.acquired++
	return &fakeConn{pool: p}, nil
}

func (p *fakePool) stats() (held, acquired, released int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.held, p.acquired, p.released
}

type fakeConn struct {
	pool *fakePool
}

func (c *fakeConn) QueryRows(ctx context.Context, query string) ([]services.Row, error) {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	c.pool.queries = append(c.pool.queries, query)
	if c.pool.queryErr != nil {
		return nil, c.pool.queryErr
	}
	rows := make([]services.Row, len(c.pool.rows))
	copy(rows, c.pool.rows)
	return rows, nil
}

func (c *fakeConn) Exec(ctx context.Context, query string) error {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	c.pool.queries = append(c.pool.queries, query)
	return c.pool.execErr
}

func (c *fakeConn) Release() error {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	c.pool.held--
	c.pool.released++
	if c.pool.releasePanic {
		panic("connection already closed")
	}
	return c.pool.releaseErr
}

func newTestRouter(pool services.Pool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	NewPlanetHandler(pool).Register(router)
	return router
}

func doGet(router http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func planetRow(id int64, name string, lat, long any) services.Row {
	return services.Row{
		Columns: []string{"id", "name", services.ColumnLatitude, services.ColumnLongitude},
		Values:  []any{id, name, lat, long},
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func assertNoLeak(t *testing.T, pool *fakePool) {
	t.Helper()
	held, acquired, released := pool.stats()
	assert.Equal(t, 0, held, "connections still held")
	assert.Equal(t, acquired, released, "every acquired connection must be released once")
}

func TestListPlanets(t *testing.T) {
	pool := &fakePool{rows: []services.Row{
		{
			Columns: []string{"id", "name", "mass", "discovered", "updated_at", "signature", services.ColumnLatitude, services.ColumnLongitude},
			Values: []any{
				int64(1),
				"Tatooine",
				decimal.RequireFromString("5.97"),
				services.Date{Time: time.Date(1977, 5, 25, 0, 0, 0, 0, time.UTC)},
				time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
				[]byte{'o', 'k', 0xfe},
				3.0,
				4.0,
			},
		},
		planetRow(2, "Hoth", 10.0, 10.0),
	}}
	router := newTestRouter(pool)

	w := doGet(router, "/planets")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t,
		`[{"id":1,"name":"Tatooine","mass":5.97,"discovered":"1977-05-25","updated_at":"2024-01-02T03:04:05","signature":"ok","galactic_latitude":3,"galactic_longitude":4},`+
			`{"id":2,"name":"Hoth","galactic_latitude":10,"galactic_longitude":10}]`,
		w.Body.String())
	assert.Equal(t, []string{SelectPlanetsQuery}, pool.queries)
	assertNoLeak(t, pool)
}

func TestListPlanetsEmpty(t *testing.T) {
	pool := &fakePool{}
	w := doGet(newTestRouter(pool), "/planets")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
	assertNoLeak(t, pool)
}

func TestListPlanetsStoreErrors(t *testing.T) {
	tests := []struct {
		name         string
		pool         *fakePool
		wantAcquired int
	}{
		{
			name:         "acquire fails",
			pool:         &fakePool{acquireErr: errors.New("2003: Can't connect to MySQL server")},
			wantAcquired: 0,
		},
		{
			name:         "query fails",
			pool:         &fakePool{queryErr: errors.New("1146: Table 'mydatabase.planets' doesn't exist")},
			wantAcquired: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(newTestRouter(tt.pool), "/planets")

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			resp := decodeError(t, w)
			wantErr := tt.pool.acquireErr
			if wantErr == nil {
				wantErr = tt.pool.queryErr
			}
			assert.Equal(t, "MySQL error: "+wantErr.Error(), resp.Error)

			_, acquired, _ := tt.pool.stats()
			assert.Equal(t, tt.wantAcquired, acquired)
			assertNoLeak(t, tt.pool)
		})
	}
}

func TestReleaseFailuresAreSuppressed(t *testing.T) {
	tests := []struct {
		name string
		pool *fakePool
	}{
		{"release error", &fakePool{rows: []services.Row{planetRow(1, "Endor", 1.0, 1.0)}, releaseErr: errors.New("bad connection")}},
		{"release panic", &fakePool{rows: []services.Row{planetRow(1, "Endor", 1.0, 1.0)}, releasePanic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.pool)

			list := doGet(router, "/planets")
			assert.Equal(t, http.StatusOK, list.Code)
			assert.Equal(t, `[{"id":1,"name":"Endor","galactic_latitude":1,"galactic_longitude":1}]`, list.Body.String())

			nearest := doGet(router, "/nearest_planet?galactic_latitude=0&galactic_longitude=0")
			assert.Equal(t, http.StatusOK, nearest.Code)

			health := doGet(router, "/healthz")
			assert.Equal(t, http.StatusOK, health.Code)
			assert.JSONEq(t, `{"status":"ok"}`, health.Body.String())

			assertNoLeak(t, tt.pool)
		})
	}
}

func TestNearestPlanet(t *testing.T) {
	pool := &fakePool{rows: []services.Row{
		planetRow(1, "Tatooine", 3.0, 4.0),
		planetRow(2, "Hoth", 10.0, 10.0),
	}}
	router := newTestRouter(pool)

	w := doGet(router, "/nearest_planet?galactic_latitude=0&galactic_longitude=0")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"id":1,"name":"Tatooine","galactic_latitude":3,"galactic_longitude":4}`, w.Body.String())
	assert.Equal(t, []string{SelectPlanetsQuery}, pool.queries)
	assertNoLeak(t, pool)
}

func TestNearestPlanetCoercesWinner(t *testing.T) {
	pool := &fakePool{rows: []services.Row{
		planetRow(1, "Far", decimal.RequireFromString("80.5"), "80.5"),
		{
			Columns: []string{"id", services.ColumnLatitude, services.ColumnLongitude, "seen"},
			Values:  []any{int64(2), decimal.RequireFromString("1.25"), []byte("-2.5"), time.Date(2020, 2, 2, 0, 0, 0, 500000000, time.UTC)},
		},
	}}

	w := doGet(newTestRouter(pool), "/nearest_planet?galactic_latitude=1&galactic_longitude=-2")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"id":2,"galactic_latitude":1.25,"galactic_longitude":"-2.5","seen":"2020-02-02T00:00:00.500000"}`, w.Body.String())
}

func TestNearestPlanetTieReturnsFirst(t *testing.T) {
	pool := &fakePool{rows: []services.Row{
		planetRow(9, "East", 0.0, 5.0),
		planetRow(4, "North", 5.0, 0.0),
		planetRow(1, "West", 0.0, -5.0),
	}}
	router := newTestRouter(pool)

	for i := 0; i < 3; i++ {
		w := doGet(router, "/nearest_planet?galactic_latitude=0&galactic_longitude=0")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `{"id":9,"name":"East","galactic_latitude":0,"galactic_longitude":5}`, w.Body.String())
	}
}

func TestNearestPlanetInvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"both absent", ""},
		{"latitude absent", "?galactic_longitude=1"},
		{"longitude absent", "?galactic_latitude=1"},
		{"latitude not a number", "?galactic_latitude=abc&galactic_longitude=1"},
		{"latitude not a number, longitude bad too", "?galactic_latitude=abc&galactic_longitude=xyz"},
		{"longitude not a number", "?galactic_latitude=1&galactic_longitude=abc"},
		{"empty values", "?galactic_latitude=&galactic_longitude="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &fakePool{rows: []services.Row{planetRow(1, "Tatooine", 3.0, 4.0)}}

			w := doGet(newTestRouter(pool), "/nearest_planet"+tt.query)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, "Invalid or missing query parameters", resp.Error)
			assert.Equal(t, "/nearest_planet?galactic_latitude=12.5&galactic_longitude=-45.2", resp.Example)

			_, acquired, _ := pool.stats()
			assert.Equal(t, 0, acquired, "validation errors must not touch the store")
		})
	}
}

func TestNearestPlanetAcceptsPaddedNumbers(t *testing.T) {
	pool := &fakePool{rows: []services.Row{planetRow(1, "Tatooine", 3.0, 4.0)}}

	w := doGet(newTestRouter(pool), "/nearest_planet?galactic_latitude=%201.5%20&galactic_longitude=-2e1")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNearestPlanetEmptyTable(t *testing.T) {
	pool := &fakePool{}

	w := doGet(newTestRouter(pool), "/nearest_planet?galactic_latitude=0&galactic_longitude=0")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"No planets found"}`, w.Body.String())
	assertNoLeak(t, pool)
}

func TestNearestPlanetStoreErrors(t *testing.T) {
	for _, pool := range []*fakePool{
		{acquireErr: errors.New("pool exhausted")},
		{queryErr: errors.New("lost connection")},
	} {
		w := doGet(newTestRouter(pool), "/nearest_planet?galactic_latitude=0&galactic_longitude=0")

		wantErr := pool.acquireErr
		if wantErr == nil {
			wantErr = pool.queryErr
		}
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "MySQL error: "+wantErr.Error(), decodeError(t, w).Error)
		assertNoLeak(t, pool)
	}
}

func TestNearestPlanetBadRowCoordinates(t *testing.T) {
	pool := &fakePool{rows: []services.Row{
		planetRow(1, "Tatooine", 3.0, 4.0),
		planetRow(2, "Unknown", nil, 1.0),
	}}

	w := doGet(newTestRouter(pool), "/nearest_planet?galactic_latitude=0&galactic_longitude=0")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeError(t, w).Error, "Invalid planet coordinates")
	assertNoLeak(t, pool)
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name       string
		pool       *fakePool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "ok",
			pool:       &fakePool{},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "acquire fails",
			pool:       &fakePool{acquireErr: errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"status":"down","error":"dial tcp 127.0.0.1:3306: connect: connection refused"}`,
		},
		{
			name:       "select fails",
			pool:       &fakePool{execErr: errors.New("server has gone away")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"status":"down","error":"server has gone away"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(newTestRouter(tt.pool), "/healthz")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			if tt.pool.acquireErr == nil {
				assert.Equal(t, []string{HealthQuery}, tt.pool.queries)
			}
			assertNoLeak(t, tt.pool)
		})
	}
}

func TestResponsesAreIdempotent(t *testing.T) {
	pool := &fakePool{rows: []services.Row{
		planetRow(1, "Tatooine", decimal.RequireFromString("3.10"), 4.0),
		planetRow(2, "Hoth", 10.0, 10.0),
	}}
	router := newTestRouter(pool)

	for _, target := range []string{
		"/planets",
		"/nearest_planet?galactic_latitude=0&galactic_longitude=0",
		"/nearest_planet?galactic_latitude=abc",
		"/healthz",
	} {
		first := doGet(router, target)
		second := doGet(router, target)
		assert.Equal(t, first.Code, second.Code, target)
		assert.Equal(t, first.Body.Bytes(), second.Body.Bytes(), target)
	}
	assertNoLeak(t, pool)
}

func TestConcurrentRequestsReleaseConnections(t *testing.T) {
	pool := &fakePool{rows: []services.Row{planetRow(1, "Tatooine", 3.0, 4.0)}}
	router := newTestRouter(pool)

	targets := []string{"/planets", "/nearest_planet?galactic_latitude=1&galactic_longitude=1", "/healthz", "/nearest_planet"}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			doGet(router, target)
		}(targets[i%len(targets)])
	}
	wg.Wait()

	held, acquired, released := pool.stats()
	assert.Equal(t, 0, held)
	assert.Equal(t, 30, acquired)
	assert.Equal(t, 30, released)
}
