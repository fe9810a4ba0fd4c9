package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haulops/backoffice-go/internal/config"
	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/fixtures"
	appHTTP "github.com/haulops/backoffice-go/internal/handler/http"
	"github.com/haulops/backoffice-go/internal/pkg/cron"
	"github.com/haulops/backoffice-go/internal/pkg/database"
	"github.com/haulops/backoffice-go/internal/pkg/jwt"
	"github.com/haulops/backoffice-go/internal/repository/postgresql"
	payrollService "github.com/haulops/backoffice-go/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := appHTTP.NewLogger(os.Stdout, cfg.App)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	directory := postgresql.NewEmployeeDirectory(db)
	chargeRepo := postgresql.NewChargeRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)
	tripRepo := postgresql.NewTripRepository(db)
	tripRateRepo := postgresql.NewTripRateRepository(db)
	draftRepo := postgresql.NewDraftRepository(db)
	reportRepo := postgresql.NewReportRepository(db)
	thirteenthMonthRepo := postgresql.NewThirteenthMonthRepository(db)

	var bracketRepo payroll.BracketRepository = postgresql.NewBracketRepository(db)
	if cfg.Payroll.SeedTables {
		defaults, err := fixtures.DefaultContributionTables()
		if err != nil {
			logger.Error("failed to load default contribution tables", "error", err)
			os.Exit(1)
		}
		bracketRepo = fixtures.NewSeedingBracketRepository(bracketRepo, defaults, logger)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	ledger := payrollService.NewTripRateLedger(
		tripRepo,
		tripRateRepo,
		payrollService.NewTripGraphResolver(tripRepo),
		payrollService.NewStubSearchResolver(tripRepo),
		logger,
	)
	sessions := payrollService.NewSessionFactory(payrollService.SessionDeps{
		Directory:       directory,
		Brackets:        bracketRepo,
		Drafts:          draftRepo,
		Reports:         reportRepo,
		ThirteenthMonth: thirteenthMonthRepo,
		Adjustments:     payrollService.NewAdjustmentGateway(chargeRepo, leaveRepo, logger),
		Ledger:          ledger,
		Logger:          logger,
	})
	payrollSvc := payrollService.NewPayrollService(sessions, cfg.Payroll.SessionTTL, logger)

	scheduler := cron.NewScheduler(logger)
	cron.NewPayrollJobs(payrollSvc, logger).Register(scheduler, cfg.Payroll.SweepInterval)
	scheduler.Start()
	defer scheduler.Stop()

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(cfg.HTTP, logger, JWTService, payrollHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server running", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
