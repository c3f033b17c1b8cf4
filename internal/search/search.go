// Package search mirrors catalog products into Elasticsearch and queries
// them. Every call goes through a circuit breaker so a sick cluster fails
// fast and callers can fall back to the database.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/Skotchmaster/coin_shop/internal/domain"
	"github.com/Skotchmaster/coin_shop/internal/models"
)

var ErrUnavailable = errors.New("search unavailable")

type Config struct {
	URL      string
	User     string
	Password string
	Index    string

	// Consecutive failures that open the breaker, default 5.
	MaxFailures uint32
	// Time the breaker stays open, default 30s.
	OpenTimeout time.Duration
	Transport   http.RoundTripper
}

type Client struct {
	es      *elasticsearch.Client
	index   string
	breaker *gobreaker.CircuitBreaker[any]
}

type Document struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
	PriceCents      int64    `json:"price_cents"`
	FinalPriceCents int64    `json:"final_price_cents"`
	Active          bool     `json:"active"`
}

func DocumentFrom(p *models.Product) Document {
	return Document{
		ID:              p.ID.String(),
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		Tags:            []string(p.Tags),
		PriceCents:      p.PriceCents,
		FinalPriceCents: domain.FinalPrice(p.PriceCents, p.DiscountPercent),
		Active:          p.Active,
	}
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("elasticsearch url is empty")
	}
	if cfg.Index == "" {
		cfg.Index = "products"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	maxFailures := cfg.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "elasticsearch",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})

	return &Client{es: es, index: cfg.Index, breaker: breaker}, nil
}

func (c *Client) Index() string { return c.index }

// Open reports whether the breaker currently rejects calls.
func (c *Client) Open() bool {
	return c.breaker.State() == gobreaker.StateOpen
}

func (c *Client) do(fn func() error) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func responseError(op string, status int, body io.Reader) error {
	msg, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("elasticsearch %s: status %d: %s", op, status, bytes.TrimSpace(msg))
}

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":                map[string]any{"type": "keyword"},
			"name":              map[string]any{"type": "text"},
			"description":       map[string]any{"type": "text"},
			"category":          map[string]any{"type": "text", "fields": map[string]any{"raw": map[string]any{"type": "keyword"}}},
			"tags":              map[string]any{"type": "text"},
			"price_cents":       map[string]any{"type": "long"},
			"final_price_cents": map[string]any{"type": "long"},
			"active":            map[string]any{"type": "boolean"},
		},
	},
}

// EnsureIndex creates the products index when it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context) error {
	return c.do(func() error {
		exists, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
		if err != nil {
			return err
		}
		exists.Body.Close()
		if exists.StatusCode == http.StatusOK {
			return nil
		}

		body, err := json.Marshal(indexMapping)
		if err != nil {
			return err
		}
		res, err := c.es.Indices.Create(c.index,
			c.es.Indices.Create.WithContext(ctx),
			c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return responseError("create index", res.StatusCode, res.Body)
		}
		return nil
	})
}

func (c *Client) IndexProduct(ctx context.Context, p *models.Product) error {
	body, err := json.Marshal(DocumentFrom(p))
	if err != nil {
		return err
	}
	return c.do(func() error {
		res, err := c.es.Index(c.index, bytes.NewReader(body),
			c.es.Index.WithContext(ctx),
			c.es.Index.WithDocumentID(p.ID.String()),
		)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return responseError("index", res.StatusCode, res.Body)
		}
		return nil
	})
}

func (c *Client) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return c.do(func() error {
		res, err := c.es.Delete(c.index, id.String(), c.es.Delete.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() && res.StatusCode != http.StatusNotFound {
			return responseError("delete", res.StatusCode, res.Body)
		}
		return nil
	})
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the total number of active matches and the ids on the
// requested page in relevance order.
func (c *Client) Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error) {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "description", "category", "tags"},
						"fuzziness": "AUTO",
					},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"active": true}},
				},
			},
		},
		"from":    from,
		"size":    size,
		"_source": false,
	})
	if err != nil {
		return 0, nil, err
	}

	var out searchResponse
	err = c.do(func() error {
		res, err := c.es.Search(
			c.es.Search.WithContext(ctx),
			c.es.Search.WithIndex(c.index),
			c.es.Search.WithBody(bytes.NewReader(body)),
		)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return responseError("search", res.StatusCode, res.Body)
		}
		return json.NewDecoder(res.Body).Decode(&out)
	})
	if err != nil {
		return 0, nil, err
	}

	ids := make([]uuid.UUID, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return out.Hits.Total.Value, ids, nil
}
