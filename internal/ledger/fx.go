package ledger

import (
	"github.com/harborline/ledger/internal/ledger/repository"
	"github.com/harborline/ledger/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
