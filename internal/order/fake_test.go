package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"foodorder-be/internal/model"

	"github.com/stretchr/testify/require"
)

// memRepo keeps aggregates as encoded documents so tests observe the same
// copy semantics as the JSONB store.
type memRepo struct {
	mu          sync.Mutex
	users       map[string][]byte
	restaurants map[string][]byte
	syncs       []model.TwinSync
	done        map[string]bool

	saveUserErr       error
	saveRestaurantErr error
	userSaves         int
	restaurantSaves   int
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:       map[string][]byte{},
		restaurants: map[string][]byte{},
		done:        map[string]bool{},
	}
}

func (m *memRepo) putUser(t *testing.T, u model.User) {
	t.Helper()
	b, err := json.Marshal(u)
	require.NoError(t, err)
	m.users[u.ID] = b
}

func (m *memRepo) putRestaurant(t *testing.T, r model.Restaurant) {
	t.Helper()
	b, err := json.Marshal(r)
	require.NoError(t, err)
	m.restaurants[r.ID] = b
}

func (m *memRepo) user(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := m.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (m *memRepo) restaurant(t *testing.T, id string) *model.Restaurant {
	t.Helper()
	r, err := m.GetRestaurant(context.Background(), id)
	require.NoError(t, err)
	return r
}

func (m *memRepo) pending() []model.TwinSync {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.TwinSync{}
	for _, s := range m.syncs {
		if !m.done[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

func (m *memRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	var u model.User
	err := json.Unmarshal(raw, &u)
	return &u, err
}

func (m *memRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	var id string
	for k, raw := range m.users {
		var u model.User
		_ = json.Unmarshal(raw, &u)
		if strings.EqualFold(u.Email, email) {
			id = k
		}
	}
	m.mu.Unlock()
	if id == "" {
		return nil, ErrUserNotFound
	}
	return m.GetUser(ctx, id)
}

func (m *memRepo) GetRestaurant(_ context.Context, id string) (*model.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.restaurants[id]
	if !ok {
		return nil, ErrRestaurantNotFound
	}
	var r model.Restaurant
	err := json.Unmarshal(raw, &r)
	return &r, err
}

func (m *memRepo) SaveUser(_ context.Context, u *model.User, syncs ...model.TwinSync) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveUserErr != nil {
		return m.saveUserErr
	}
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	m.users[u.ID] = b
	m.syncs = append(m.syncs, syncs...)
	m.userSaves++
	return nil
}

func (m *memRepo) SaveRestaurant(_ context.Context, r *model.Restaurant, syncs ...model.TwinSync) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveRestaurantErr != nil {
		return m.saveRestaurantErr
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	m.restaurants[r.ID] = b
	m.syncs = append(m.syncs, syncs...)
	m.restaurantSaves++
	return nil
}

func (m *memRepo) PendingSyncs(_ context.Context, limit, maxAttempts int) ([]model.TwinSync, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.TwinSync{}
	for _, s := range m.syncs {
		if m.done[s.ID] || s.Attempts >= maxAttempts {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// HasOlderPendingSync relies on m.syncs being in commit order.
func (m *memRepo) HasOlderPendingSync(_ context.Context, s model.TwinSync, maxAttempts int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.syncs {
		if p.ID == s.ID {
			return false, nil
		}
		if p.OrderID == s.OrderID && !m.done[p.ID] && p.Attempts < maxAttempts {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) sync(t *testing.T, id string) model.TwinSync {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.syncs {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("sync %s not recorded", id)
	return model.TwinSync{}
}

func (m *memRepo) MarkSyncDone(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[id] = true
	return nil
}

func (m *memRepo) MarkSyncRetry(_ context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.syncs {
		if m.syncs[i].ID == id {
			m.syncs[i].Attempts++
			m.syncs[i].LastError = reason
		}
	}
	return nil
}

const (
	restaurantA = "6f1c2b8e-3d4a-4c1b-9e2f-0a1b2c3d4e5f"
	restaurantB = "7a2d3c9f-4e5b-4d2c-8f3a-1b2c3d4e5f60"
	unknownRest = "8b3e4d0a-5f6c-4e3d-9a4b-2c3d4e5f6071"
)

var fixedNow = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func seed(t *testing.T) *memRepo {
	t.Helper()
	repo := newMemRepo()
	repo.putUser(t, model.User{
		ID:        "user-1",
		FirstName: "Asha",
		LastName:  "Khan",
		Email:     "asha@example.com",
		PhoneNo:   "+92 300 1234567",
		Address:   "12 Mall Road",
	})
	repo.putRestaurant(t, model.Restaurant{
		ID: restaurantA, Name: "Burger Barn", City: "Lahore",
		Status: model.RegistrationAccepted, TotalRevenue: 100, TotalOrders: 1,
	})
	repo.putRestaurant(t, model.Restaurant{
		ID: restaurantB, Name: "Pizza Point", City: "Karachi",
		Status: model.RegistrationAccepted,
	})
	return repo
}

func newTestService(repo Repository) *service {
	svc := NewService(repo, NewPropagator(repo, nil), nil, nil).(*service)
	svc.now = func() time.Time { return fixedNow }
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc
}
