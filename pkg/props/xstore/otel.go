package xstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xprops/pkg/props/xstore"
	unknownDefinition          = "unknown"

	metricReloadTotal      = "xprops.reload.total"
	metricReloadDuration   = "xprops.reload.duration"
	metricListenerFailures = "xprops.listener.failures"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
}

// OTelOption 定义 OTel Observer 的配置选项。
type OTelOption func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) OTelOption {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider。
func WithTracerProvider(provider trace.TracerProvider) OTelOption {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider。
func WithMeterProvider(provider metric.MeterProvider) OTelOption {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer。
// 每次重载产生一个 span，并记录重载次数、耗时与监听器失败数。
func NewOTelObserver(opts ...OTelOption) (Observer, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	tracer := cfg.tracerProvider.Tracer(cfg.instrumentationName)
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	total, err := meter.Int64Counter(
		metricReloadTotal,
		metric.WithDescription("total config reloads"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xstore: create counter failed: %w", err)
	}

	duration, err := meter.Float64Histogram(
		metricReloadDuration,
		metric.WithDescription("config reload duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("xstore: create histogram failed: %w", err)
	}

	listenerFailures, err := meter.Int64Counter(
		metricListenerFailures,
		metric.WithDescription("reload listener panics"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xstore: create counter failed: %w", err)
	}

	return &otelObserver{
		tracer:           tracer,
		total:            total,
		duration:         duration,
		listenerFailures: listenerFailures,
	}, nil
}

type otelObserver struct {
	tracer           trace.Tracer
	total            metric.Int64Counter
	duration         metric.Float64Histogram
	listenerFailures metric.Int64Counter
}

// StartReload 实现 Observer。
func (o *otelObserver) StartReload(ctx context.Context, definition string) (context.Context, ReloadSpan) {
	if ctx == nil {
		ctx = context.Background()
	}
	if definition == "" {
		definition = unknownDefinition
	}

	ctx, span := o.tracer.Start(
		ctx,
		"config.reload",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("definition", definition)),
	)

	return ctx, &otelReloadSpan{
		span:       span,
		observer:   o,
		ctx:        ctx,
		definition: definition,
		start:      time.Now(),
	}
}

type otelReloadSpan struct {
	span       trace.Span
	observer   *otelObserver
	ctx        context.Context
	definition string
	start      time.Time
	endOnce    sync.Once // 保证 End 幂等，多次调用只记录一次 metrics
}

// End 结束观测并记录结果。End 是幂等的。
func (s *otelReloadSpan) End(err error) {
	if s == nil {
		return
	}
	s.endOnce.Do(func() {
		result := "ok"
		if err != nil {
			result = "error"
			s.span.RecordError(err)
			s.span.SetStatus(codes.Error, err.Error())
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		s.span.End()

		// 使用不可取消的 context 记录指标，请求 context 已取消时
		// 失败场景的指标仍能落地。
		metricsCtx := context.WithoutCancel(s.ctx)
		attrs := metric.WithAttributes(
			attribute.String("definition", s.definition),
			attribute.String("result", result),
		)
		s.observer.total.Add(metricsCtx, 1, attrs)
		s.observer.duration.Record(metricsCtx, time.Since(s.start).Seconds(), attrs)
	})
}

// ListenerPanic 记录一次监听器 panic。
func (s *otelReloadSpan) ListenerPanic() {
	if s == nil {
		return
	}
	s.observer.listenerFailures.Add(
		context.WithoutCancel(s.ctx),
		1,
		metric.WithAttributes(attribute.String("definition", s.definition)),
	)
}
