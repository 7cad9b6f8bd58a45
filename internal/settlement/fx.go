package settlement

import (
	"github.com/harborline/ledger/internal/settlement/repository"
	"github.com/harborline/ledger/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
