package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quality-desk/internal/analysis"
	"quality-desk/internal/areas"
	"quality-desk/internal/audit"
	"quality-desk/internal/auth"
	"quality-desk/internal/calls"
	"quality-desk/internal/campaign"
	"quality-desk/internal/complaints"
	"quality-desk/internal/config"
	"quality-desk/internal/httpapi"
	"quality-desk/internal/operators"
	"quality-desk/internal/platform"
	"quality-desk/internal/reporting"
	"quality-desk/internal/telephony"
	"quality-desk/pkg/logger"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// The runtime owns the pool and the redis client; nothing else holds them.
	rt := platform.Open(rootCtx, cfg, log)
	defer func() {
		if err := rt.Close(); err != nil {
			log.Error("runtime close failed", "err", err)
		}
	}()

	auditSvc := audit.NewService(audit.NewPostgresRepo(rt))
	areaSvc := areas.NewService(areas.NewPostgresRepo(rt), auditSvc, log)
	operatorSvc := operators.NewService(operators.NewPostgresRepo(rt), auditSvc, log)
	campaignRepo := campaign.NewPostgresRepo(rt)
	complaintRepo := complaints.NewPostgresRepo(rt)

	go func() {
		rt.KeepBinding(rootCtx, cfg.DB.RetryInterval)
		if !rt.Bound() {
			return
		}
		if _, err := operatorSvc.EnsureAdmin(rootCtx, cfg.Auth.BootstrapAdminPassword); err != nil {
			log.Error("bootstrap admin failed", "err", err)
		}
	}()

	hub := telephony.NewHub(log)
	stations := telephony.NewStations(trackerBuilder(rt, cfg, log), hub)

	var dialer telephony.Dialer
	if cfg.Telephony.GatewayURL != "" {
		dialer = telephony.NewGatewayDialer(cfg.Telephony.GatewayURL, cfg.Telephony.Domain)
	} else {
		log.Warn("SIP_GATEWAY_URL not set; dial requests will fail")
	}

	var analyzer analysis.Analyzer
	if cfg.Analysis.OpenAIKey != "" {
		analyzer = analysis.NewOpenAIAnalyzer(cfg.Analysis.OpenAIKey, cfg.Analysis.Model)
		log.Info("complaint analysis enabled", "model", cfg.Analysis.Model)
	}

	h := httpapi.Handlers{
		Health:          rt,
		Auth:            authManager,
		Operators:       operatorSvc,
		Complaints:      complaints.NewService(complaintRepo, areaSvc),
		Areas:           areaSvc,
		Campaign:        campaign.NewService(campaignRepo),
		Reports:         reporting.NewService(reporting.Sources{Complaints: complaintRepo, Campaign: campaignRepo}),
		Audit:           auditSvc,
		Analyzer:        analyzer,
		AnalysisTimeout: cfg.Analysis.Timeout,
		Stations:        stations,
		Hub:             hub,
		Dialer:          dialer,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, rt, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// trackerBuilder gives every operator a tracker. With redis bound the
// single-session rule also holds across API replicas.
func trackerBuilder(rt *platform.Runtime, cfg config.Config, log *slog.Logger) func(string) *calls.Tracker {
	return func(operatorID string) *calls.Tracker {
		opts := []calls.Option{
			calls.WithHistoryCap(cfg.Telephony.HistoryCap),
			calls.WithLogger(log.With("operator_id", operatorID)),
		}
		if rdb := rt.Redis(); rdb != nil {
			opts = append(opts, calls.WithGuard(calls.NewRedisGuard(rdb, operatorID, cfg.Telephony.LeaseTTL)))
		}
		return calls.NewTracker(opts...)
	}
}
