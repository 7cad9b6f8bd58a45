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
}

// Metrics exposes application-level instruments.
type Metrics struct {
	vouchersPosted    metric.Int64Counter
	vouchersCancelled metric.Int64Counter
	propagationRuns   metric.Int64Counter
	balanceChanges    metric.Int64Counter
	allocations       metric.Int64Counter
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
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter protocol %q", protocol)
	}
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "ledgerd"
	}
	meter := provider.Meter(name)

	vouchersPosted, err := meter.Int64Counter("ledger_vouchers_posted_total")
	if err != nil {
		return nil, err
	}
	vouchersCancelled, err := meter.Int64Counter("ledger_vouchers_cancelled_total")
	if err != nil {
		return nil, err
	}
	propagationRuns, err := meter.Int64Counter("ledger_propagation_runs_total")
	if err != nil {
		return nil, err
	}
	balanceChanges, err := meter.Int64Counter("ledger_balance_changes_total")
	if err != nil {
		return nil, err
	}
	allocations, err := meter.Int64Counter("ledger_allocations_created_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		vouchersPosted:    vouchersPosted,
		vouchersCancelled: vouchersCancelled,
		propagationRuns:   propagationRuns,
		balanceChanges:    balanceChanges,
		allocations:       allocations,
	}, nil
}

func (m *Metrics) RecordVoucherPosted(ctx context.Context, voucherType string) {
	if m == nil {
		return
	}
	m.vouchersPosted.Add(ctx, 1, metric.WithAttributes(attribute.String("voucher_type", voucherType)))
}

func (m *Metrics) RecordVoucherCancelled(ctx context.Context, voucherType string) {
	if m == nil {
		return
	}
	m.vouchersCancelled.Add(ctx, 1, metric.WithAttributes(attribute.String("voucher_type", voucherType)))
}

func (m *Metrics) RecordPropagationRun(ctx context.Context, accounts int) {
	if m == nil {
		return
	}
	m.propagationRuns.Add(ctx, 1, metric.WithAttributes(attribute.Int("accounts", accounts)))
}

func (m *Metrics) RecordBalanceChange(ctx context.Context) {
	if m == nil {
		return
	}
	m.balanceChanges.Add(ctx, 1)
}

func (m *Metrics) RecordAllocation(ctx context.Context) {
	if m == nil {
		return
	}
	m.allocations.Add(ctx, 1)
}
