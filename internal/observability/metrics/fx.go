package metrics

import (
	"github.com/harborline/ledger/internal/config"
	"go.uber.org/fx"
)

func configFromApp(appCfg config.Config) Config {
	return Config{
		Enabled:          appCfg.Metrics.Enabled,
		ExporterEndpoint: appCfg.Metrics.Endpoint,
		ExporterProtocol: appCfg.Metrics.Exporter,
		ServiceName:      appCfg.AppName,
	}
}

// Module wires the meter provider and domain instruments.
var Module = fx.Module("observability.metrics",
	fx.Provide(configFromApp),
	fx.Provide(NewProvider),
	fx.Provide(New),
)
