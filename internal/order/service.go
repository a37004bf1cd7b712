package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodorder-be/internal/events"
	"foodorder-be/internal/logger"
	"foodorder-be/internal/metrics"
	"foodorder-be/internal/model"
	"foodorder-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Checkout(ctx context.Context, userID string, in CheckoutInput) (*CheckoutResult, error)
	ListUserOrders(ctx context.Context, userID string) ([]model.UserOrder, error)
	Cancel(ctx context.Context, userID, orderID string) (*model.UserOrder, error)
	Edit(ctx context.Context, userID string, in EditInput) (*model.UserOrder, error)

	ListRestaurantOrders(ctx context.Context, restaurantID, status string) ([]model.OrderRecord, error)
	UpdateStatus(ctx context.Context, restaurantID string, in StatusInput) (*model.OrderRecord, error)
}

type service struct {
	repo       Repository
	propagator *Propagator
	publisher  events.Publisher
	metrics    *metrics.Recorder

	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, propagator *Propagator, publisher events.Publisher, rec *metrics.Recorder) Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &service{
		repo:       repo,
		propagator: propagator,
		publisher:  publisher,
		metrics:    rec,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func (s *service) log(ctx context.Context, method string) *zap.Logger {
	return logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", method),
	)
}

func (s *service) newSync(kind model.SyncKind, target model.SyncTarget, orderID string) model.TwinSync {
	return model.TwinSync{
		ID:        s.newID(),
		Kind:      kind,
		Target:    target,
		OrderID:   orderID,
		// the column keeps microseconds; match it so ordering by created_at agrees
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
}

// publish is best-effort; the order is already committed.
func (s *service) publish(ctx context.Context, eventType, orderID string, payload any) {
	env, err := events.NewEnvelope(eventType, orderID, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, env)
	}
	if err != nil {
		s.log(ctx, "publish").Warn("failed to publish order event",
			zap.String("event_type", eventType),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

func (s *service) Checkout(ctx context.Context, userID string, in CheckoutInput) (*CheckoutResult, error) {
	log := s.log(ctx, "Checkout").With(zap.String("user_id", userID))

	if len(in.CartItems) == 0 {
		return nil, ErrEmptyCart
	}
	for _, ci := range in.CartItems {
		if !validItem(ci.item()) {
			return nil, ErrInvalidItem
		}
	}
	orderType, ok := model.ParseOrderType(in.OrderType)
	if !ok {
		return nil, ErrInvalidOrderType
	}

	u, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		log.Warn("checkout by unknown user")
		return nil, ErrUnauthorized
	}
	if err != nil {
		log.Error("failed to load user", zap.Error(err))
		return nil, err
	}

	if err := s.checkEmailFree(ctx, u, in.UserInfo.Email); err != nil {
		log.Info("checkout email rejected", zap.Error(err))
		return nil, err
	}
	refreshProfile(u, in.UserInfo)

	// the profile now holds the form value where one was given
	customer := model.Customer{
		Name:    u.FullName(),
		Phone:   u.PhoneNo,
		Email:   u.Email,
		Address: u.Address,
	}
	if u.FirstName == "" || u.LastName == "" || customer.Email == "" || customer.Phone == "" || customer.Address == "" {
		return nil, ErrMissingFields
	}
	if !utils.ValidPhone(customer.Phone) {
		return nil, ErrInvalidPhone
	}

	restaurantIDs, groups := partition(in.CartItems)

	result := &CheckoutResult{Orders: make([]model.UserOrder, 0, len(restaurantIDs))}
	syncs := make([]model.TwinSync, 0, len(restaurantIDs))
	now := s.now().UTC()

	for _, restaurantID := range restaurantIDs {
		if _, err := uuid.Parse(restaurantID); err != nil {
			log.Warn("skipping cart partition with invalid restaurant id", zap.String("restaurant_id", restaurantID))
			result.Skipped = append(result.Skipped, restaurantID)
			continue
		}

		rest, err := s.repo.GetRestaurant(ctx, restaurantID)
		if errors.Is(err, ErrRestaurantNotFound) {
			log.Warn("skipping cart partition for unknown restaurant", zap.String("restaurant_id", restaurantID))
			result.Skipped = append(result.Skipped, restaurantID)
			continue
		}
		if err != nil {
			log.Error("failed to load restaurant", zap.String("restaurant_id", restaurantID), zap.Error(err))
			return nil, err
		}

		record := model.OrderRecord{
			OrderID:     s.newID(),
			OrderNumber: utils.GenerateOrderNumber(now),
			Status:      model.StatusPending,
			OrderType:   orderType,
			OrderDate:   now,
			Customer:    customer,
			Revision:    1,
		}
		record.SetItems(groups[restaurantID])

		u.OrderHistory = append(u.OrderHistory, model.UserOrder{
			OrderRecord:    record,
			RestaurantID:   rest.ID,
			RestaurantName: rest.Name,
		})

		sync := s.newSync(model.SyncCreate, model.TargetRestaurant, record.OrderID)
		sync.OrderNumber = record.OrderNumber
		sync.RestaurantID = rest.ID
		sync.UserEmail = customer.Email
		sync.Record = record.Snapshot()
		syncs = append(syncs, sync)

		result.Orders = append(result.Orders, u.OrderHistory[len(u.OrderHistory)-1])
	}

	if len(result.Orders) == 0 {
		return nil, ErrNoValidRestaurant
	}

	if err := s.repo.SaveUser(ctx, u, syncs...); err != nil {
		log.Error("failed to save checkout", zap.Error(err))
		return nil, err
	}

	s.propagator.Deliver(ctx, syncs...)

	for _, o := range result.Orders {
		s.metrics.OrderCreated(ctx, string(o.OrderType), o.TotalPrice)
		s.publish(ctx, events.EventOrderCreated, o.OrderID, events.OrderCreatedPayload{
			OrderID:      o.OrderID,
			OrderNumber:  o.OrderNumber,
			UserID:       u.ID,
			RestaurantID: o.RestaurantID,
			OrderType:    string(o.OrderType),
			TotalPrice:   o.TotalPrice,
		})
	}

	log.Info("checkout completed",
		zap.Int("orders", len(result.Orders)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// partition groups cart items by restaurant, keeping first-seen order.
func partition(items []CartItem) ([]string, map[string][]model.Item) {
	ids := make([]string, 0)
	groups := make(map[string][]model.Item)
	for _, ci := range items {
		if _, seen := groups[ci.RestaurantID]; !seen {
			ids = append(ids, ci.RestaurantID)
		}
		groups[ci.RestaurantID] = append(groups[ci.RestaurantID], ci.item())
	}
	return ids, groups
}

// checkEmailFree rejects a form email that already belongs to another user.
// Status updates find the user's copy by email, so two owners would split it.
func (s *service) checkEmailFree(ctx context.Context, u *model.User, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.EqualFold(email, u.Email) {
		return nil
	}
	owner, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if owner.ID != u.ID {
		return ErrEmailTaken
	}
	return nil
}

// refreshProfile copies every non-empty, changed field from the checkout form
// onto the user profile.
func refreshProfile(u *model.User, info UserInfo) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" && *dst != v {
			*dst = v
		}
	}
	set(&u.FirstName, info.FirstName)
	set(&u.LastName, info.LastName)
	set(&u.Email, info.Email)
	set(&u.PhoneNo, info.PhoneNo)
	set(&u.Address, info.Address)
}

func (s *service) ListUserOrders(ctx context.Context, userID string) ([]model.UserOrder, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.OrderHistory == nil {
		return []model.UserOrder{}, nil
	}
	return u.OrderHistory, nil
}

func (s *service) Cancel(ctx context.Context, userID, orderID string) (*model.UserOrder, error) {
	log := s.log(ctx, "Cancel").With(zap.String("user_id", userID), zap.String("order_id", orderID))

	if orderID == "" {
		return nil, ErrMissingOrderRef
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	o := u.FindOrder(orderID)
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if !model.CanTransition(o.Status, model.StatusCancelled) {
		log.Info("cancel rejected", zap.String("status", string(o.Status)))
		return nil, ErrCannotCancel
	}

	from := o.Status
	o.SetStatus(model.StatusCancelled, s.now().UTC())
	o.Revision++

	sync := s.newSync(model.SyncStatus, model.TargetRestaurant, o.OrderID)
	sync.RestaurantID = o.RestaurantID
	sync.Status = model.StatusCancelled
	sync.Record = o.Snapshot()

	if err := s.repo.SaveUser(ctx, u, sync); err != nil {
		log.Error("failed to save cancelled order", zap.Error(err))
		return nil, err
	}

	s.propagator.Deliver(ctx, sync)
	s.metrics.StatusChanged(ctx, string(model.RoleUser), string(from), string(model.StatusCancelled))
	s.publish(ctx, events.EventOrderStatusChanged, o.OrderID, events.OrderStatusChangedPayload{
		OrderID:      o.OrderID,
		RestaurantID: o.RestaurantID,
		From:         string(from),
		To:           string(model.StatusCancelled),
		Actor:        string(model.RoleUser),
	})

	log.Info("order cancelled")
	out := *o
	return &out, nil
}

func (s *service) Edit(ctx context.Context, userID string, in EditInput) (*model.UserOrder, error) {
	log := s.log(ctx, "Edit").With(zap.String("user_id", userID), zap.String("order_id", in.OrderID))

	if in.OrderID == "" {
		return nil, ErrMissingOrderRef
	}

	var address, phone string
	if in.Address != nil {
		address = strings.TrimSpace(*in.Address)
	}
	if in.PhoneNo != nil {
		phone = strings.TrimSpace(*in.PhoneNo)
	}
	if in.Items == nil && address == "" && phone == "" {
		return nil, ErrNothingToEdit
	}
	if in.Items != nil {
		if len(*in.Items) == 0 {
			return nil, ErrEmptyItems
		}
		for _, it := range *in.Items {
			if !validItem(it) {
				return nil, ErrInvalidItem
			}
		}
	}
	if phone != "" && !utils.ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	o := u.FindOrder(in.OrderID)
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if !model.CanTransition(o.Status, model.StatusPending) {
		log.Info("edit rejected", zap.String("status", string(o.Status)))
		return nil, ErrCannotEdit
	}

	from := o.Status
	sync := s.newSync(model.SyncEdit, model.TargetRestaurant, o.OrderID)
	sync.RestaurantID = o.RestaurantID
	sync.Address = address
	sync.Phone = phone
	if in.Items != nil {
		sync.Items = append([]model.Item(nil), (*in.Items)...)
	}

	applyEdit(&o.OrderRecord, sync)
	o.Revision++
	sync.Record = o.Snapshot()
	if address != "" {
		u.Address = address
	}
	if phone != "" {
		u.PhoneNo = phone
	}

	if err := s.repo.SaveUser(ctx, u, sync); err != nil {
		log.Error("failed to save edited order", zap.Error(err))
		return nil, err
	}

	s.propagator.Deliver(ctx, sync)
	s.metrics.StatusChanged(ctx, string(model.RoleUser), string(from), string(model.StatusPending))
	s.publish(ctx, events.EventOrderEdited, o.OrderID, events.OrderEditedPayload{
		OrderID:      o.OrderID,
		RestaurantID: o.RestaurantID,
		TotalPrice:   o.TotalPrice,
	})

	log.Info("order edited", zap.Float64("total_price", o.TotalPrice))
	out := *o
	return &out, nil
}

func (s *service) ListRestaurantOrders(ctx context.Context, restaurantID, status string) ([]model.OrderRecord, error) {
	st := model.Status(status)
	if st == "" {
		st = model.StatusPending
	}
	if !st.Valid() {
		return nil, ErrInvalidStatus
	}

	rest, err := s.repo.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return rest.OrdersByStatus(st), nil
}

// restaurantTargets are the statuses a restaurant may set directly.
var restaurantTargets = map[model.Status]bool{
	model.StatusAccepted:  true,
	model.StatusRejected:  true,
	model.StatusCompleted: true,
}

func (s *service) UpdateStatus(ctx context.Context, restaurantID string, in StatusInput) (*model.OrderRecord, error) {
	log := s.log(ctx, "UpdateStatus").With(
		zap.String("restaurant_id", restaurantID),
		zap.String("order_id", in.OrderID),
		zap.String("order_number", in.OrderNumber),
		zap.String("status", string(in.Status)),
	)

	if !restaurantTargets[in.Status] {
		return nil, ErrInvalidStatus
	}
	if in.OrderID == "" && in.OrderNumber == "" {
		return nil, ErrMissingOrderRef
	}

	rest, err := s.repo.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	var o *model.OrderRecord
	if in.OrderID != "" {
		o = rest.FindOrder(in.OrderID)
	} else {
		matches := rest.FindOrdersByNumber(in.OrderNumber)
		if len(matches) > 1 {
			log.Warn("order number collision", zap.Int("matches", len(matches)))
			return nil, ErrAmbiguousOrderNumber
		}
		if len(matches) == 1 {
			o = matches[0]
		}
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}

	// accepting twice is a no-op success
	if o.Status == model.StatusAccepted && in.Status == model.StatusAccepted {
		out := *o
		return &out, nil
	}
	if !model.CanTransition(o.Status, in.Status) {
		log.Info("status change rejected", zap.String("from", string(o.Status)))
		return nil, ErrInvalidTransition
	}

	from := o.Status
	o.SetStatus(in.Status, s.now().UTC())
	o.Revision++

	sync := s.newSync(model.SyncStatus, model.TargetUser, o.OrderID)
	sync.OrderNumber = o.OrderNumber
	sync.RestaurantID = rest.ID
	sync.UserEmail = o.Customer.Email
	sync.Status = o.Status
	sync.CompletionDate = o.CompletionDate
	sync.Record = o.Snapshot()

	if err := s.repo.SaveRestaurant(ctx, rest, sync); err != nil {
		log.Error("failed to save order status", zap.Error(err))
		return nil, err
	}

	s.propagator.Deliver(ctx, sync)
	s.metrics.StatusChanged(ctx, string(model.RoleRestaurant), string(from), string(o.Status))
	s.publish(ctx, events.EventOrderStatusChanged, o.OrderID, events.OrderStatusChangedPayload{
		OrderID:      o.OrderID,
		RestaurantID: rest.ID,
		From:         string(from),
		To:           string(o.Status),
		Actor:        string(model.RoleRestaurant),
	})

	log.Info("order status updated", zap.String("from", string(from)))
	out := *o
	return &out, nil
}
