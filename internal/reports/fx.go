package reports

import (
	"github.com/harborline/ledger/internal/reports/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reports.service",
	fx.Provide(service.New),
)
