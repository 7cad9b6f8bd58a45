package balance

import (
	"context"

	ledgerdomain "github.com/harborline/ledger/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func asPropagator(w *Worker) ledgerdomain.Propagator { return w }

func registerHooks(lc fx.Lifecycle, w *Worker, log *zap.Logger) {
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go w.RunForever(runCtx)
			log.Named("balance.worker").Info("propagation worker started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}

// Module provides the propagation worker and binds it as the posting
// engine's propagator.
var Module = fx.Module("balance.worker",
	fx.Provide(NewWorker),
	fx.Provide(asPropagator),
	fx.Invoke(registerHooks),
)
