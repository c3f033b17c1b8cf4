package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coin_shop/internal/models"
)

type fakeES struct {
	mu       sync.Mutex
	docs     map[string]Document
	searches []map[string]any
	fail     bool
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if f.fail {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`)
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodDelete:
		if _, ok := f.docs[parts[2]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"not_found"}`)
			return
		}
		delete(f.docs, parts[2])
		_, _ = io.WriteString(w, `{"result":"deleted"}`)
	case len(parts) == 3 && parts[1] == "_doc":
		var d Document
		_ = json.NewDecoder(r.Body).Decode(&d)
		f.docs[parts[2]] = d
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case len(parts) == 2 && parts[1] == "_search":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.searches = append(f.searches, body)

		type hit struct {
			ID string `json:"_id"`
		}
		var hits []hit
		for id := range f.docs {
			hits = append(hits, hit{ID: id})
		}
		hits = append(hits, hit{ID: "not-a-uuid"})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"total": map[string]any{"value": len(f.docs)},
				"hits":  hits,
			},
		})
	case len(parts) == 1 && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusNotFound)
	case len(parts) == 1 && r.Method == http.MethodPut:
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeES) {
	t.Helper()
	fake := &fakeES{docs: map[string]Document{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(Config{URL: srv.URL, Index: "products", MaxFailures: 2, OpenTimeout: time.Minute})
	require.NoError(t, err)
	return c, fake
}

func TestClient_IndexSearchDelete(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)

	require.NoError(t, c.EnsureIndex(ctx))

	p := &models.Product{
		ID:              uuid.New(),
		Name:            "Desk lamp",
		Category:        "home",
		Tags:            models.Tags{"light"},
		PriceCents:      2000,
		DiscountPercent: 25,
		Active:          true,
	}
	require.NoError(t, c.IndexProduct(ctx, p))
	assert.Equal(t, int64(1500), fake.docs[p.ID.String()].FinalPriceCents)

	total, ids, err := c.Search(ctx, "lamp", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []uuid.UUID{p.ID}, ids)

	require.Len(t, fake.searches, 1)
	query := fake.searches[0]["query"].(map[string]any)
	mm := query["bool"].(map[string]any)["must"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Contains(t, mm["fields"], "name^2")

	require.NoError(t, c.DeleteProduct(ctx, p.ID))
	require.NoError(t, c.DeleteProduct(ctx, p.ID))
	assert.Empty(t, fake.docs)
}

func TestClient_BreakerOpens(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)
	fake.fail = true

	for i := 0; i < 2; i++ {
		_, _, err := c.Search(ctx, "lamp", 0, 10)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	assert.True(t, c.Open())
	_, _, err := c.Search(ctx, "lamp", 0, 10)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNew_RequiresURL(t *testing.T) {
	t.Parallel()
	_, err := New(Config{})
	require.Error(t, err)
}
