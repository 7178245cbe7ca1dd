package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	sessionsStarted  metric.Int64Counter
	sessionsFinished metric.Int64Counter
	ledgerEntries    metric.Int64Counter
	alarmFailures    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "cyberdesk"
	}
	meter := provider.Meter(name)

	sessionsStarted, err := meter.Int64Counter("cyberdesk_sessions_started_total",
		metric.WithDescription("Timed sessions opened at the desk."))
	if err != nil {
		return nil, err
	}
	sessionsFinished, err := meter.Int64Counter("cyberdesk_sessions_finished_total",
		metric.WithDescription("Timed sessions closed, by manual finish or expiry."))
	if err != nil {
		return nil, err
	}
	ledgerEntries, err := meter.Int64Counter("cyberdesk_ledger_entries_total",
		metric.WithDescription("Income transactions posted to the ledger."))
	if err != nil {
		return nil, err
	}
	alarmFailures, err := meter.Int64Counter("cyberdesk_alarm_failures_total",
		metric.WithDescription("Expiry alarms that could not be played."))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		sessionsStarted:  sessionsStarted,
		sessionsFinished: sessionsFinished,
		ledgerEntries:    ledgerEntries,
		alarmFailures:    alarmFailures,
	}, nil
}

// RecordSessionStarted increments session starts for the session type.
func (m *Metrics) RecordSessionStarted(ctx context.Context, sessionType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("type", strings.TrimSpace(sessionType)))
	m.sessionsStarted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSessionFinished increments session completions. Reason is either
// "manual" or "expired".
func (m *Metrics) RecordSessionFinished(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.sessionsFinished.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLedgerEntry increments ledger entry counts.
func (m *Metrics) RecordLedgerEntry(ctx context.Context, sourceType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source_type", strings.TrimSpace(sourceType)))
	m.ledgerEntries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordAlarmFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.alarmFailures.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"type":        {},
	"reason":      {},
	"source_type": {},
	"category":    {},
	"route":       {},
	"method":      {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
