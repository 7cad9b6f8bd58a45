package account

import (
	"github.com/harborline/ledger/internal/account/repository"
	"github.com/harborline/ledger/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
