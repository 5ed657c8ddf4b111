// Package otel provides OpenTelemetry integration: the dispatch observer
// recording invocation metrics and spans, and the provider bootstrap used by
// the serve command.
package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/findata-labs/finmcp/tool"
)

// DispatchObserver records dispatch and probe signals into OpenTelemetry.
type DispatchObserver struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	probes      metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewDispatchObserver creates an observer bound to the provided meter/tracer.
func NewDispatchObserver(meter metric.Meter, tracer trace.Tracer) (*DispatchObserver, error) {
	invocations, err := meter.Int64Counter(
		"finmcp.dispatch.invocations",
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	probes, err := meter.Int64Counter(
		"finmcp.upstream.probes",
		metric.WithDescription("Number of background upstream probes"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"finmcp.dispatch.latency",
		metric.WithDescription("Dispatch latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &DispatchObserver{
		tracer:      tracer,
		invocations: invocations,
		probes:      probes,
		latency:     latency,
	}, nil
}

// ObserveInvoke records one dispatch outcome.
func (o *DispatchObserver) ObserveInvoke(observation tool.InvokeObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool_name", observation.ToolName),
		attribute.String("transport", observation.Transport),
		attribute.Bool("success", observation.Success),
	}
	if observation.ErrorCode != "" {
		attrs = append(attrs, attribute.String("error_code", observation.ErrorCode))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, float64(time.Duration(observation.DurationMS)*time.Millisecond)/float64(time.Second), options)

	if o.tracer == nil {
		return
	}
	_, span := o.tracer.Start(ctx, "dispatch.invoke", trace.WithAttributes(attrs...))
	if !observation.Success {
		span.SetStatus(codes.Error, observation.ErrorCode)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// ObserveProbe records one background upstream probe outcome.
func (o *DispatchObserver) ObserveProbe(observation tool.ProbeObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("success", observation.Success),
	}
	if observation.ErrorCode != "" {
		attrs = append(attrs, attribute.String("error_code", observation.ErrorCode))
	}
	o.probes.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

var _ tool.Observer = (*DispatchObserver)(nil)
