package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusAccepted, StatusCompleted, true},
		{StatusAccepted, StatusPending, true},
		{StatusAccepted, StatusCancelled, false},
		{StatusAccepted, StatusRejected, false},
		{StatusRejected, StatusAccepted, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{Status("bogus"), StatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("PENDING").Valid())
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusAccepted.Terminal())
}

func TestParseOrderType(t *testing.T) {
	ot, ok := ParseOrderType("")
	assert.True(t, ok)
	assert.Equal(t, OrderTypeDineIn, ot)

	ot, ok = ParseOrderType("delivery")
	assert.True(t, ok)
	assert.Equal(t, OrderTypeDelivery, ot)

	_, ok = ParseOrderType("takeaway")
	assert.False(t, ok)
}

func TestOrderRecord_SetItems(t *testing.T) {
	o := &OrderRecord{}
	o.SetItems([]Item{
		{Name: "Burger", Quantity: 3, Price: 500},
		{Name: "Fries", Quantity: 1, Price: 150},
	})

	assert.Equal(t, 1650.0, o.TotalPrice)
	assert.Len(t, o.Items, 2)
}

func TestOrderRecord_SetStatus(t *testing.T) {
	now := time.Now()
	o := &OrderRecord{Status: StatusPending}

	o.SetStatus(StatusAccepted, now)
	assert.Nil(t, o.CompletionDate)

	o.SetStatus(StatusCompleted, now)
	if assert.NotNil(t, o.CompletionDate) {
		assert.Equal(t, now, *o.CompletionDate)
	}
}

func TestOrderRecord_Snapshot(t *testing.T) {
	done := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	o := &OrderRecord{
		Items:          []Item{{Name: "Burger", Quantity: 1, Price: 500}},
		CompletionDate: &done,
		Revision:       4,
	}

	c := o.Snapshot()
	c.Items[0].Quantity = 9
	*c.CompletionDate = done.Add(time.Hour)

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, done, *o.CompletionDate)
	assert.Equal(t, 4, c.Revision)
}

func TestRestaurant_AddOrder(t *testing.T) {
	r := &Restaurant{}
	r.AddOrder(OrderRecord{OrderID: "a", TotalPrice: 1000, Status: StatusPending})
	r.AddOrder(OrderRecord{OrderID: "b", TotalPrice: 250, Status: StatusPending})

	assert.Equal(t, 1250.0, r.TotalRevenue)
	assert.Equal(t, 2, r.TotalOrders)

	r.FindOrder("a").Status = StatusCancelled
	assert.Equal(t, 1250.0, r.TotalRevenue, "counters are not corrected on cancel")
	assert.Len(t, r.OrdersByStatus(StatusPending), 1)
	assert.Nil(t, r.FindOrder("missing"))
}

func TestRestaurant_FindOrdersByNumber(t *testing.T) {
	r := &Restaurant{Orders: []OrderRecord{
		{OrderID: "a", OrderNumber: "ORD-1"},
		{OrderID: "b", OrderNumber: "ORD-1"},
		{OrderID: "c", OrderNumber: "ORD-2"},
	}}

	assert.Len(t, r.FindOrdersByNumber("ORD-1"), 2)
	assert.Len(t, r.FindOrdersByNumber("ORD-3"), 0)
}

func TestMenuItem_AverageRating(t *testing.T) {
	m := MenuItem{}
	assert.Equal(t, 0.0, m.AverageRating())

	m.Reviews = []Review{{Rating: 4}, {Rating: 5}}
	assert.Equal(t, 4.5, m.AverageRating())
}
