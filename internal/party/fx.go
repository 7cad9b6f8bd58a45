package party

import (
	"github.com/harborline/ledger/internal/party/repository"
	"github.com/harborline/ledger/internal/party/service"
	"go.uber.org/fx"
)

var Module = fx.Module("party.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
