package balance

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	"github.com/harborline/ledger/internal/events"
	ledgerdomain "github.com/harborline/ledger/internal/ledger/domain"
	obsmetrics "github.com/harborline/ledger/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config tunes the propagation worker.
type Config struct {
	// DrainInterval bounds how long a signal can sit in the queue when the
	// wake channel is missed.
	DrainInterval time.Duration
	RunTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.DrainInterval <= 0 {
		c.DrainInterval = 2 * time.Second
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 30 * time.Second
	}
	return c
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	AccountRepo accountdomain.Repository
	LedgerRepo  ledgerdomain.Repository
	Hub         *events.Hub
	Metrics     *obsmetrics.Metrics `optional:"true"`
	Config      Config              `optional:"true"`
}

// Worker keeps stored account balances consistent with the ledger facts. It
// owns an explicit deduplicating queue: concurrent signals for the same
// account collapse into one recomputation on the next drain.
type Worker struct {
	db          *gorm.DB
	log         *zap.Logger
	accountRepo accountdomain.Repository
	ledgerRepo  ledgerdomain.Repository
	hub         *events.Hub
	metrics     *obsmetrics.Metrics
	cfg         Config

	mu      sync.Mutex
	pending map[snowflake.ID]string
	wake    chan struct{}
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:          p.DB,
		log:         p.Log.Named("balance.worker"),
		accountRepo: p.AccountRepo,
		ledgerRepo:  p.LedgerRepo,
		hub:         p.Hub,
		metrics:     p.Metrics,
		cfg:         p.Config.withDefaults(),
		pending:     make(map[snowflake.ID]string),
		wake:        make(chan struct{}, 1),
	}
}

// Enqueue implements ledgerdomain.Propagator. It never blocks the caller.
func (w *Worker) Enqueue(reason string, accountIDs ...snowflake.ID) {
	if len(accountIDs) == 0 {
		return
	}
	w.mu.Lock()
	for _, id := range accountIDs {
		if id != 0 {
			w.pending[id] = reason
		}
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// RunForever drains the queue until ctx is cancelled. A single sequential
// worker serializes all recomputation.
func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		case <-ticker.C:
		}

		if _, err := w.DrainOnce(ctx); err != nil {
			w.log.Warn("propagation drain failed", zap.Error(err))
		}
	}
}

// DrainOnce recomputes every queued account and its ancestors, returning the
// number of accounts whose stored balance changed. Failed accounts are
// requeued for the next drain; recomputation from source facts makes retries
// idempotent.
func (w *Worker) DrainOnce(parentCtx context.Context) (int, error) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return 0, nil
	}
	batch := w.pending
	w.pending = make(map[snowflake.ID]string)
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	tree, err := w.loadTree(ctx)
	if err != nil {
		w.requeue(batch)
		return 0, err
	}

	changed := 0
	for id, reason := range batch {
		node := tree.Node(id)
		if node == nil {
			w.log.Warn("queued account no longer exists", zap.String("account_id", id.String()))
			continue
		}
		n, err := w.recompute(ctx, tree, node, reason)
		if err != nil {
			w.log.Warn("balance recomputation failed, requeued",
				zap.Error(err),
				zap.String("account_id", id.String()),
			)
			w.Enqueue(reason, id)
			continue
		}
		changed += n
	}

	if w.metrics != nil {
		w.metrics.RecordPropagationRun(ctx, len(batch))
	}
	return changed, nil
}

// recompute refreshes one account and walks its ancestor chain. Leaf
// balances come from the ledger facts; each group is the sum of its direct
// children's current balances.
func (w *Worker) recompute(ctx context.Context, tree *accountdomain.Tree, node *accountdomain.Node, reason string) (int, error) {
	changed := 0

	update := func(n *accountdomain.Node, value decimal.Decimal) error {
		old := n.Account.Balance
		if value.Sub(old).Abs().LessThanOrEqual(ledgerdomain.Tolerance) {
			return nil
		}
		if err := w.accountRepo.UpdateBalance(ctx, w.db, n.Account.ID, value); err != nil {
			return err
		}
		n.Account.Balance = value
		changed++
		w.publishChange(n.Account.ID, old, value, reason)
		return nil
	}

	var value decimal.Decimal
	var err error
	if node.Account.IsGroup {
		value = sumChildren(node)
	} else {
		value, err = w.leafBalance(ctx, node.Account)
		if err != nil {
			return changed, err
		}
	}
	if err := update(node, value); err != nil {
		return changed, err
	}

	for _, ancestor := range tree.Ancestors(node.Account.ID) {
		if err := update(ancestor, sumChildren(ancestor)); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// RecalculateAll rebuilds every leaf from scratch, then every group
// bottom-up by descending level. It reports how many stored values changed.
func (w *Worker) RecalculateAll(ctx context.Context) (int, error) {
	tree, err := w.loadTree(ctx)
	if err != nil {
		return 0, err
	}

	const reason = "full recalculation"
	changed := 0

	update := func(node *accountdomain.Node, value decimal.Decimal) error {
		old := node.Account.Balance
		if value.Sub(old).Abs().LessThanOrEqual(ledgerdomain.Tolerance) {
			return nil
		}
		if err := w.accountRepo.UpdateBalance(ctx, w.db, node.Account.ID, value); err != nil {
			return err
		}
		node.Account.Balance = value
		changed++
		w.publishChange(node.Account.ID, old, value, reason)
		return nil
	}

	for _, leaf := range tree.Leaves() {
		value, err := w.leafBalance(ctx, leaf.Account)
		if err != nil {
			return changed, err
		}
		if err := update(leaf, value); err != nil {
			return changed, err
		}
	}

	for _, group := range tree.GroupsByDescendingLevel() {
		if err := update(group, sumChildren(group)); err != nil {
			return changed, err
		}
	}

	w.log.Info("full balance recalculation finished", zap.Int("changed", changed))
	return changed, nil
}

func (w *Worker) leafBalance(ctx context.Context, account *accountdomain.Account) (decimal.Decimal, error) {
	debit, credit, err := w.ledgerRepo.SumByAccount(ctx, w.db, account.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if account.Type.DebitNormal() {
		return debit.Sub(credit), nil
	}
	return credit.Sub(debit), nil
}

func (w *Worker) loadTree(ctx context.Context) (*accountdomain.Tree, error) {
	accounts, err := w.accountRepo.FindAll(ctx, w.db)
	if err != nil {
		return nil, err
	}
	return accountdomain.BuildTree(accounts)
}

func (w *Worker) publishChange(id snowflake.ID, old, value decimal.Decimal, reason string) {
	if w.metrics != nil {
		w.metrics.RecordBalanceChange(context.Background())
	}
	if w.hub == nil {
		return
	}
	w.hub.Publish(events.BalanceChanged{
		AccountID:  id,
		OldBalance: old,
		NewBalance: value,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	})
}

func (w *Worker) requeue(batch map[snowflake.ID]string) {
	w.mu.Lock()
	for id, reason := range batch {
		if _, exists := w.pending[id]; !exists {
			w.pending[id] = reason
		}
	}
	w.mu.Unlock()
}

func sumChildren(node *accountdomain.Node) decimal.Decimal {
	sum := decimal.Zero
	for _, child := range node.Children {
		sum = sum.Add(child.Account.Balance)
	}
	return sum
}
