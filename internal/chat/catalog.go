package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"foodorder-be/internal/logger"
	"foodorder-be/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const catalogKey = "chat:catalog"

type Dish struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Place struct {
	Name   string `json:"name"`
	City   string `json:"city"`
	Dishes []Dish `json:"dishes"`
}

// Catalog is the read-only snapshot the responder answers from: approved
// restaurants and their available menu items.
type Catalog struct {
	Places []Place `json:"places"`
}

func NewCatalog(restaurants []model.Restaurant) *Catalog {
	c := &Catalog{Places: make([]Place, 0, len(restaurants))}
	for _, r := range restaurants {
		if r.Status != model.RegistrationAccepted {
			continue
		}
		p := Place{Name: r.Name, City: r.City, Dishes: make([]Dish, 0, len(r.Menu))}
		for _, m := range r.Menu {
			if m.IsAvailable {
				p.Dishes = append(p.Dishes, Dish{Name: m.Name, Price: m.Price})
			}
		}
		c.Places = append(c.Places, p)
	}
	return c
}

// dishNames and cities return the lowercase vocabularies, deduplicated.
func (c *Catalog) dishNames() []string {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, p := range c.Places {
		for _, d := range p.Dishes {
			n := strings.ToLower(strings.TrimSpace(d.Name))
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func (c *Catalog) cities() []string {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, p := range c.Places {
		n := strings.ToLower(strings.TrimSpace(p.City))
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// Source lists approved restaurants. restaurant.Repository satisfies it.
type Source interface {
	ListApproved(ctx context.Context) ([]model.Restaurant, error)
}

// CatalogStore builds the catalog from Source and keeps a copy in Redis for
// ttl. Menus and approvals change outside this service, so a cached catalog
// can lag by up to ttl. A nil client or a ttl of zero reads Source every time.
type CatalogStore struct {
	source Source
	rdb    *redis.Client
	ttl    time.Duration
}

func NewCatalogStore(source Source, rdb *redis.Client, ttl time.Duration) *CatalogStore {
	return &CatalogStore{source: source, rdb: rdb, ttl: ttl}
}

func (s *CatalogStore) cached() bool {
	return s.rdb != nil && s.ttl > 0
}

func (s *CatalogStore) Load(ctx context.Context) (*Catalog, error) {
	log := logger.FromCtx(ctx).With(zap.String("component", "chat-catalog"))

	if s.cached() {
		raw, err := s.rdb.Get(ctx, catalogKey).Bytes()
		switch {
		case err == nil:
			var c Catalog
			if err := json.Unmarshal(raw, &c); err == nil {
				return &c, nil
			}
			log.Warn("discarding unreadable cached catalog")
		case !errors.Is(err, redis.Nil):
			log.Warn("catalog cache unavailable", zap.Error(err))
		}
	}

	restaurants, err := s.source.ListApproved(ctx)
	if err != nil {
		return nil, err
	}
	c := NewCatalog(restaurants)

	if s.cached() {
		raw, err := json.Marshal(c)
		if err == nil {
			err = s.rdb.Set(ctx, catalogKey, raw, s.ttl).Err()
		}
		if err != nil {
			log.Warn("failed to cache catalog", zap.Error(err))
		}
	}
	return c, nil
}
