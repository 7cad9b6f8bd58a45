package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/harborline/ledger/internal/account"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	"github.com/harborline/ledger/internal/balance"
	"github.com/harborline/ledger/internal/config"
	"github.com/harborline/ledger/internal/events"
	"github.com/harborline/ledger/internal/ledger"
	ledgerdomain "github.com/harborline/ledger/internal/ledger/domain"
	"github.com/harborline/ledger/internal/party"
	partydomain "github.com/harborline/ledger/internal/party/domain"
	"github.com/harborline/ledger/internal/reports"
	reportsdomain "github.com/harborline/ledger/internal/reports/domain"
	"github.com/harborline/ledger/internal/settlement"
	settlementdomain "github.com/harborline/ledger/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	events.Module,
	account.Module,
	party.Module,
	ledger.Module,
	balance.Module,
	reports.Module,
	settlement.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log.Named("http")))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	genID         *snowflake.Node
	accountSvc    accountdomain.Service
	partySvc      partydomain.Service
	ledgerSvc     ledgerdomain.Service
	balanceWorker *balance.Worker
	reportsSvc    reportsdomain.Service
	settlementSvc settlementdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	GenID         *snowflake.Node
	AccountSvc    accountdomain.Service
	PartySvc      partydomain.Service
	LedgerSvc     ledgerdomain.Service
	BalanceWorker *balance.Worker
	ReportsSvc    reportsdomain.Service
	SettlementSvc settlementdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		genID:         p.GenID,
		accountSvc:    p.AccountSvc,
		partySvc:      p.PartySvc,
		ledgerSvc:     p.LedgerSvc,
		balanceWorker: p.BalanceWorker,
		reportsSvc:    p.ReportsSvc,
		settlementSvc: p.SettlementSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Vouchers --------
	v1.POST("/vouchers", s.PostVoucher)
	v1.GET("/vouchers/:type/:no", s.GetVoucher)
	v1.POST("/vouchers/:type/:no/cancel", s.CancelVoucher)

	// -------- Accounts & balances --------
	v1.POST("/accounts", s.CreateAccount)
	v1.GET("/accounts/:id", s.GetAccount)
	v1.GET("/accounts/:id/children", s.GetAccountChildren)
	v1.GET("/accounts/:id/balance", s.GetAccountBalance)
	v1.POST("/balances/recalculate", s.RecalculateBalances)

	// -------- Reports --------
	v1.GET("/reports/trial-balance", s.GetTrialBalance)
	v1.GET("/reports/balance-sheet", s.GetBalanceSheet)
	v1.GET("/reports/profit-and-loss", s.GetProfitAndLoss)
	v1.GET("/reports/receivables-aging", s.GetReceivablesAging)

	// -------- Parties --------
	v1.POST("/customers", s.CreateCustomer)
	v1.POST("/suppliers", s.CreateSupplier)
	v1.POST("/employees", s.CreateEmployee)
	v1.GET("/parties/:id", s.GetParty)

	// -------- Settlement --------
	v1.POST("/invoices", s.CreateInvoice)
	v1.GET("/invoices/:id", s.GetInvoiceByID)
	v1.POST("/payments", s.CreatePayment)
	v1.POST("/payments/:id/allocations", s.AllocatePayment)
	v1.POST("/payments/:id/reverse", s.ReversePayment)
}
