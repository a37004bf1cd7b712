package review

import (
	"context"
	"strings"
	"time"

	"foodorder-be/internal/events"
	"foodorder-be/internal/logger"
	"foodorder-be/internal/model"
	"foodorder-be/internal/restaurant"
	"foodorder-be/internal/user"

	"go.uber.org/zap"
)

// Input is a rating left by a signed-in user. MenuItemID is only read by
// RateMenuItem.
type Input struct {
	UserID       string `json:"-"`
	DisplayName  string `json:"-"`
	RestaurantID string `json:"restaurantId"`
	MenuItemID   string `json:"menuItemId,omitempty"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
}

type Service interface {
	RateRestaurant(ctx context.Context, in Input) ([]model.Review, error)
	RateMenuItem(ctx context.Context, in Input) ([]model.Review, error)
}

type service struct {
	restaurants restaurant.Repository
	users       user.Repository
	publisher   events.Publisher
	now         func() time.Time
}

func NewService(restaurants restaurant.Repository, users user.Repository, publisher events.Publisher) Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &service{
		restaurants: restaurants,
		users:       users,
		publisher:   publisher,
		now:         time.Now,
	}
}

func validate(in Input, needMenuItem bool) error {
	if in.RestaurantID == "" || in.Rating == 0 || (needMenuItem && in.MenuItemID == "") {
		return ErrMissingFields
	}
	if in.Rating < 1 || in.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

func (s *service) newReview(in Input) model.Review {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = "User"
	}
	return model.Review{
		UserID:    in.UserID,
		Name:      name,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: s.now().UTC(),
	}
}

// replace drops the author's earlier review before appending the new one.
func replace(reviews []model.Review, r model.Review) []model.Review {
	out := make([]model.Review, 0, len(reviews)+1)
	for _, old := range reviews {
		if old.UserID != r.UserID {
			out = append(out, old)
		}
	}
	return append(out, r)
}

func (s *service) RateRestaurant(ctx context.Context, in Input) ([]model.Review, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RateRestaurant"),
		zap.String("restaurant_id", in.RestaurantID),
	)

	if err := validate(in, false); err != nil {
		return nil, err
	}

	rest, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}

	rev := s.newReview(in)
	rest.Reviews = replace(rest.Reviews, rev)
	if err := s.restaurants.Save(ctx, rest); err != nil {
		log.Error("failed to save restaurant review", zap.Error(err))
		return nil, err
	}

	s.mirror(ctx, in, rev, func(r model.UserReview) bool {
		return r.RestaurantID == in.RestaurantID && r.MenuItemID == ""
	})
	s.publish(ctx, in)

	return rest.Reviews, nil
}

func (s *service) RateMenuItem(ctx context.Context, in Input) ([]model.Review, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RateMenuItem"),
		zap.String("restaurant_id", in.RestaurantID),
		zap.String("menu_item_id", in.MenuItemID),
	)

	if err := validate(in, true); err != nil {
		return nil, err
	}

	rest, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	item := rest.FindMenuItem(in.MenuItemID)
	if item == nil {
		return nil, ErrMenuItemNotFound
	}

	rev := s.newReview(in)
	item.Reviews = replace(item.Reviews, rev)
	if err := s.restaurants.Save(ctx, rest); err != nil {
		log.Error("failed to save menu item review", zap.Error(err))
		return nil, err
	}

	s.mirror(ctx, in, rev, func(r model.UserReview) bool {
		return r.MenuItemID == in.MenuItemID
	})
	s.publish(ctx, in)

	return item.Reviews, nil
}

// mirror copies the review into the author's profile. A failure here is
// logged and does not undo the review.
func (s *service) mirror(ctx context.Context, in Input, rev model.Review, sameTarget func(model.UserReview) bool) {
	log := logger.FromCtx(ctx).With(zap.String("user_id", in.UserID))

	u, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		log.Warn("review not mirrored to user", zap.Error(err))
		return
	}

	kept := make([]model.UserReview, 0, len(u.Reviews)+1)
	for _, r := range u.Reviews {
		if !sameTarget(r) {
			kept = append(kept, r)
		}
	}
	u.Reviews = append(kept, model.UserReview{
		RestaurantID: in.RestaurantID,
		MenuItemID:   in.MenuItemID,
		Rating:       rev.Rating,
		Comment:      rev.Comment,
		CreatedAt:    rev.CreatedAt,
	})

	if err := s.users.Save(ctx, u); err != nil {
		log.Warn("review not mirrored to user", zap.Error(err))
	}
}

func (s *service) publish(ctx context.Context, in Input) {
	env, err := events.NewEnvelope(events.EventReviewPosted, in.RestaurantID, events.ReviewPostedPayload{
		RestaurantID: in.RestaurantID,
		MenuItemID:   in.MenuItemID,
		UserID:       in.UserID,
		Rating:       in.Rating,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, env)
	}
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to publish review event", zap.Error(err))
	}
}
