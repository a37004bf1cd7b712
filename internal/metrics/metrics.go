package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "foodorder-be"

// InitMeterProvider installs a Prometheus-backed global MeterProvider with Go
// runtime instruments and returns the /metrics handler plus its shutdown.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, nil, err
	}

	return promhttp.Handler(), mp.Shutdown, nil
}

// Recorder holds the domain instruments. The zero value is not usable; build
// one with NewRecorder.
type Recorder struct {
	ordersCreated metric.Int64Counter
	revenue       metric.Float64Counter
	transitions   metric.Int64Counter
	syncs         metric.Int64Counter
	chatReplies   metric.Int64Counter
}

func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter(meterName)

	var (
		r   Recorder
		err error
	)
	if r.ordersCreated, err = m.Int64Counter("orders_created_total",
		metric.WithDescription("Order records created at checkout")); err != nil {
		return nil, err
	}
	if r.revenue, err = m.Float64Counter("orders_revenue_total",
		metric.WithDescription("Sum of totalPrice over created orders")); err != nil {
		return nil, err
	}
	if r.transitions, err = m.Int64Counter("order_transitions_total",
		metric.WithDescription("Order status transitions by actor")); err != nil {
		return nil, err
	}
	if r.syncs, err = m.Int64Counter("twin_syncs_total",
		metric.WithDescription("Twin record propagation attempts by outcome")); err != nil {
		return nil, err
	}
	if r.chatReplies, err = m.Int64Counter("chat_replies_total",
		metric.WithDescription("Chat responder replies by branch")); err != nil {
		return nil, err
	}

	return &r, nil
}

func (r *Recorder) OrderCreated(ctx context.Context, orderType string, total float64) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("order_type", orderType))
	r.ordersCreated.Add(ctx, 1, attrs)
	r.revenue.Add(ctx, total, attrs)
}

func (r *Recorder) StatusChanged(ctx context.Context, actor, from, to string) {
	if r == nil {
		return
	}
	r.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("actor", actor),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (r *Recorder) SyncAttempted(ctx context.Context, kind, target string, ok bool) {
	if r == nil {
		return
	}
	outcome := "applied"
	if !ok {
		outcome = "deferred"
	}
	r.syncs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("target", target),
		attribute.String("outcome", outcome),
	))
}

func (r *Recorder) ChatReplied(ctx context.Context, branch string) {
	if r == nil {
		return
	}
	r.chatReplies.Add(ctx, 1, metric.WithAttributes(attribute.String("branch", branch)))
}
