package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/kardianos/service"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ccdash/internal/config"
	"ccdash/internal/currency"
	"ccdash/internal/exchange"
	"ccdash/internal/pricing"
	"ccdash/internal/source"
	"ccdash/server/internal/auth"
	"ccdash/server/internal/database"
	"ccdash/server/internal/handlers"
	"ccdash/server/internal/middleware"
	"ccdash/server/internal/state"
)

const version = "0.1.0"

func main() {
	var svcCommand string
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "install", "start", "stop", "uninstall", "status", "run":
			svcCommand = args[0]
			args = args[1:]
		}
	}

	fs := flag.NewFlagSet("ccdash-server", flag.ExitOnError)
	cfgPath := fs.String("config", "ccdash-server.yaml", "Path to the server config file")
	hashPassword := fs.String("hash-password", "", "Print a bcrypt hash for the given password and exit")
	showVer := fs.Bool("version", false, "Show version")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `ccdash-server - Claude Code usage dashboard

Usage: ccdash-server [command] [options]

Commands:
  (none)      Run in the foreground
  install     Install as a background service
  start       Start the background service
  stop        Stop the background service
  uninstall   Remove the background service
  status      Show service status

Options:
`)
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *showVer {
		fmt.Printf("ccdash-server version %s\n", version)
		return
	}

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	svcConfig := &service.Config{
		Name:        "ccdash-server",
		DisplayName: "ccdash Dashboard Server",
		Description: "Serves the Claude Code usage dashboard",
		Arguments:   []string{"run", "--config=" + *cfgPath},
	}

	prg := &program{cfgPath: *cfgPath}
	svc, err := service.New(prg, svcConfig)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	switch svcCommand {
	case "install":
		if err := svc.Install(); err != nil {
			log.Fatalf("Failed to install service: %v", err)
		}
		if err := svc.Start(); err != nil {
			log.Fatalf("Service installed but failed to start: %v", err)
		}
		fmt.Println("Service installed and started.")

	case "start":
		if err := svc.Start(); err != nil {
			log.Fatalf("Failed to start service: %v", err)
		}
		fmt.Println("Service started.")

	case "stop":
		if err := svc.Stop(); err != nil {
			log.Fatalf("Failed to stop service: %v", err)
		}
		fmt.Println("Service stopped.")

	case "uninstall":
		svc.Stop()
		if err := svc.Uninstall(); err != nil {
			log.Fatalf("Failed to uninstall service: %v", err)
		}
		fmt.Println("Service uninstalled.")

	case "status":
		status, err := svc.Status()
		if err != nil {
			fmt.Printf("Service status: not installed or error (%v)\n", err)
			return
		}
		switch status {
		case service.StatusRunning:
			fmt.Println("Service status: running")
		case service.StatusStopped:
			fmt.Println("Service status: stopped")
		default:
			fmt.Println("Service status: unknown")
		}

	case "run":
		if err := svc.Run(); err != nil {
			log.Fatalf("Service run failed: %v", err)
		}

	default:
		// Foreground mode.
		if err := prg.serve(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}
}

// program adapts the server lifecycle to service.Interface.
type program struct {
	cfgPath string
	cancel  context.CancelFunc
	done    chan struct{}
}

func (p *program) Start(svc service.Service) error {
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		if err := p.serve(); err != nil {
			log.Printf("Server failed: %v", err)
		}
	}()
	return nil
}

func (p *program) Stop(svc service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		<-p.done
	}
	return nil
}

func (p *program) serve() error {
	cfg, err := config.LoadServer(p.cfgPath)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}

	sessions := scs.New()
	sessions.Store = sqlite3store.New(db.DB)
	sessions.Lifetime = 7 * 24 * time.Hour
	sessions.Cookie.SameSite = http.SameSiteLaxMode

	catalog := pricing.NewCatalog(false)
	src := &source.Fallback{
		Primary:   source.NewCLISource(),
		Secondary: source.NewLocalSource(cfg.TranscriptRoot, catalog),
	}
	store := state.New(src, exchange.NewClient(), currency.DefaultRate, logger)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	defer cancel()

	// A failed initial load is terminal no-data until POST /api/refresh
	// succeeds; there is no automatic retry.
	if err := store.Refresh(ctx); err != nil {
		logger.Warn("initial usage load failed, serving once a manual refresh succeeds", zap.Error(err))
	}

	authMgr := auth.New(cfg.PasswordHash, cfg.APIKey, sessions)
	h := handlers.New(store, cfg.PlanCeilings, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/login", authMgr.Login)
	mux.HandleFunc("/api/logout", authMgr.Logout)
	mux.Handle("/api/view", authMgr.Require(http.HandlerFunc(h.View)))
	mux.Handle("/api/rate", authMgr.Require(http.HandlerFunc(h.SetRate)))
	mux.Handle("/api/refresh", authMgr.Require(http.HandlerFunc(h.Refresh)))

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	handler := middleware.RequestLogger(logger)(
		middleware.SecurityHeaders(
			limiter.Limit(
				sessions.LoadAndSave(mux))))

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Listen), zap.Bool("auth", authMgr.Enabled()))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
