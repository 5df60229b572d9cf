package natsbus

import (
	"context"

	nats "github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// SubjectIntelRefreshed is published after every successful feed refresh so
// downstream consumers (dashboards, correlators) can re-pull the graph.
const SubjectIntelRefreshed = "aegis.intel.refreshed"

var propagator = propagation.TraceContext{}

// newMsg builds a message with the caller's trace context injected into its
// headers as traceparent.
func newMsg(ctx context.Context, subject string, data []byte) *nats.Msg {
	hdr := nats.Header{}
	propagator.Inject(ctx, propagation.HeaderCarrier(hdr))
	return &nats.Msg{Subject: subject, Data: data, Header: hdr}
}

// Publish injects traceparent into headers and publishes.
func Publish(ctx context.Context, nc *nats.Conn, subject string, data []byte) error {
	return nc.PublishMsg(newMsg(ctx, subject, data))
}

// traced wraps a handler so each message runs inside a consumer span linked
// to the publisher's trace via the traceparent header.
func traced(handler func(context.Context, *nats.Msg)) nats.MsgHandler {
	return func(m *nats.Msg) {
		ctx := propagator.Extract(context.Background(), propagation.HeaderCarrier(m.Header))
		tr := otel.Tracer("aegis-nats")
		ctx, span := tr.Start(ctx, "nats.consume", trace.WithSpanKind(trace.SpanKindConsumer))
		defer span.End()
		handler(ctx, m)
	}
}

// Subscribe wraps nc.Subscribe so every delivery carries the publisher's
// trace context.
func Subscribe(nc *nats.Conn, subject string, handler func(context.Context, *nats.Msg)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, traced(handler))
}
