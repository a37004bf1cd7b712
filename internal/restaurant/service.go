package restaurant

import (
	"context"
	"sort"

	"foodorder-be/internal/logger"
	"foodorder-be/internal/model"

	"go.uber.org/zap"
)

const topProductsLimit = 10

// Stats is computed from the order list on every read. TotalOrders and
// TotalRevenue are the stored running counters, which never go down; the
// Live fields leave out cancelled and rejected orders.
type Stats struct {
	TotalOrders  int                  `json:"totalOrders"`
	TotalRevenue float64              `json:"totalRevenue"`
	LiveOrders   int                  `json:"liveOrders"`
	LiveRevenue  float64              `json:"liveRevenue"`
	ByStatus     map[model.Status]int `json:"byStatus"`
}

type TopProduct struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Image          string  `json:"image,omitempty"`
	RestaurantID   string  `json:"restaurantId"`
	RestaurantName string  `json:"restaurantName"`
	City           string  `json:"city"`
	AvgRating      float64 `json:"avgRating"`
	ReviewCount    int     `json:"reviewCount"`
}

type Service interface {
	Profile(ctx context.Context, restaurantID string) (*model.Restaurant, error)
	Stats(ctx context.Context, restaurantID string) (*Stats, error)
	TopProducts(ctx context.Context) ([]TopProduct, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Profile(ctx context.Context, restaurantID string) (*model.Restaurant, error) {
	return s.repo.FindByID(ctx, restaurantID)
}

func (s *service) Stats(ctx context.Context, restaurantID string) (*Stats, error) {
	rest, err := s.repo.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return ComputeStats(rest), nil
}

func ComputeStats(rest *model.Restaurant) *Stats {
	st := &Stats{
		TotalOrders:  rest.TotalOrders,
		TotalRevenue: rest.TotalRevenue,
		ByStatus:     make(map[model.Status]int),
	}
	for _, o := range rest.Orders {
		st.ByStatus[o.Status]++
		if o.Status == model.StatusCancelled || o.Status == model.StatusRejected {
			continue
		}
		st.LiveOrders++
		st.LiveRevenue += o.TotalPrice
	}
	return st
}

// TopProducts ranks available, rated menu items across every restaurant.
func (s *service) TopProducts(ctx context.Context) ([]TopProduct, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "TopProducts"),
	)

	restaurants, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error("failed to list restaurants", zap.Error(err))
		return nil, err
	}

	products := make([]TopProduct, 0)
	for _, r := range restaurants {
		for i := range r.Menu {
			item := &r.Menu[i]
			if !item.IsAvailable {
				continue
			}
			avg := item.AverageRating()
			if avg <= 0 {
				continue
			}
			products = append(products, TopProduct{
				ID:             item.ID,
				Name:           item.Name,
				Price:          item.Price,
				Image:          item.Image,
				RestaurantID:   r.ID,
				RestaurantName: r.Name,
				City:           r.City,
				AvgRating:      avg,
				ReviewCount:    len(item.Reviews),
			})
		}
	}

	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.AvgRating != b.AvgRating {
			return a.AvgRating > b.AvgRating
		}
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
		return a.Name < b.Name
	})

	if len(products) > topProductsLimit {
		products = products[:topProductsLimit]
	}
	return products, nil
}
