//go:build integration

package order

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"foodorder-be/internal/model"
	"foodorder-be/internal/restaurant"
	"foodorder-be/internal/user"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(ctx context.Context, t *testing.T) *sql.DB {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("foodorder"),
		postgres.WithUsername("foodorder"),
		postgres.WithPassword("foodorder"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_, filename, _, _ := runtime.Caller(0)
	migrations := "file://" + filepath.Join(filepath.Dir(filename), "..", "..", "migrations")

	m, err := migrate.New(migrations, connStr)
	require.NoError(t, err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("failed to run migrations: %v", err)
	}
	_, _ = m.Close()

	conn, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOrderLifecycle_Postgres(t *testing.T) {
	ctx := context.Background()
	conn := setupPostgres(ctx, t)

	require.NoError(t, user.NewRepository(conn).Save(ctx, &model.User{
		ID: "user-1", FirstName: "Asha", LastName: "Khan",
		Email: "Asha@Example.com", PhoneNo: "+92 300 1234567", Address: "12 Mall Road",
	}))
	require.NoError(t, restaurant.NewRepository(conn).Save(ctx, &model.Restaurant{
		ID: restaurantA, Name: "Burger Barn", City: "Lahore", Status: model.RegistrationAccepted,
	}))

	repo := NewRepository(conn)
	propagator := NewPropagator(repo, nil)
	svc := NewService(repo, propagator, nil, nil)

	res, err := svc.Checkout(ctx, "user-1", burgerCart(2))
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	placed := res.Orders[0]

	rest, err := repo.GetRestaurant(ctx, restaurantA)
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Equal(t, placed.OrderID, rest.Orders[0].OrderID)
	assert.Equal(t, 1000.0, rest.TotalRevenue)
	assert.Equal(t, 1, rest.TotalOrders)

	updated, err := svc.UpdateStatus(ctx, restaurantA, StatusInput{
		OrderNumber: placed.OrderNumber,
		Status:      model.StatusAccepted,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, updated.Status)

	orders, err := svc.ListUserOrders(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.StatusAccepted, orders[0].Status)

	pending, err := repo.PendingSyncs(ctx, syncBatchSize, maxSyncAttempts)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var delivered int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT count(*) FROM twin_syncs WHERE done_at IS NOT NULL`).Scan(&delivered))
	assert.Equal(t, 2, delivered)
}

func TestReconcile_Postgres(t *testing.T) {
	ctx := context.Background()
	conn := setupPostgres(ctx, t)

	require.NoError(t, user.NewRepository(conn).Save(ctx, &model.User{ID: "user-1", Email: "asha@example.com"}))

	repo := NewRepository(conn)
	order := model.UserOrder{
		OrderRecord:    model.OrderRecord{OrderID: "o-1", OrderNumber: "ORD-1", Status: model.StatusPending, TotalPrice: 300},
		RestaurantID:   restaurantA,
		RestaurantName: "Burger Barn",
	}
	sync := model.TwinSync{
		ID: "s-1", Kind: model.SyncCreate, Target: model.TargetRestaurant,
		OrderID: "o-1", RestaurantID: restaurantA, Record: &order.OrderRecord,
		CreatedAt: time.Now().UTC(),
	}
	u, err := repo.GetUser(ctx, "user-1")
	require.NoError(t, err)
	u.OrderHistory = append(u.OrderHistory, order)
	require.NoError(t, repo.SaveUser(ctx, u, sync))

	// the restaurant row does not exist yet, so delivery fails and is retried
	n, err := NewPropagator(repo, nil).Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	pending, err := repo.PendingSyncs(ctx, syncBatchSize, maxSyncAttempts)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.NotEmpty(t, pending[0].LastError)
}

func TestUserEmailUnique_Postgres(t *testing.T) {
	ctx := context.Background()
	conn := setupPostgres(ctx, t)
	users := user.NewRepository(conn)

	require.NoError(t, users.Save(ctx, &model.User{ID: "user-1", Email: "asha@example.com"}))
	err := users.Save(ctx, &model.User{ID: "user-2", Email: "ASHA@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	u, err := users.FindByEmail(ctx, "Asha@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
}
