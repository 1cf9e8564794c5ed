package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/hospitality-auth/internal/authclient"
	"github.com/spec-kit/hospitality-auth/internal/clientstore"
	"github.com/spec-kit/hospitality-auth/internal/config"
	"github.com/spec-kit/hospitality-auth/internal/events"
	"github.com/spec-kit/hospitality-auth/internal/observability"
	"github.com/spec-kit/hospitality-auth/internal/persistence"
	"github.com/spec-kit/hospitality-auth/internal/session"
	"github.com/spec-kit/hospitality-auth/internal/worker"
)

func main() {
	cfg, err := config.LoadTerminal()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	flags := pflag.NewFlagSet("terminal", pflag.ExitOnError)
	apiURL := flags.String("api-url", cfg.APIURL, "base URL of the credential API")
	storeBackend := flags.StringP("store", "s", cfg.Store.Backend, "session store backend: file, redis or memory")
	storePath := flags.String("store-path", cfg.Store.Path, "session file for the file store")
	namespace := flags.String("terminal-id", cfg.Store.Namespace, "terminal id, used as the redis key namespace")
	idleTimeout := flags.Duration("idle-timeout", cfg.IdleTimeout(), "sign out after this long without input")
	_ = flags.Parse(os.Args[1:])

	cfg.APIURL = *apiURL
	cfg.Store = config.StoreConfig{Backend: *storeBackend, Path: *storePath, Namespace: *namespace}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}
	defer closeStore()

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartSessionAuditWorker(dispatcher, logger, cfg.Store.Namespace)

	client := authclient.New(cfg.APIURL, cfg.RequestTimeout())
	con := &console{staff: client, lines: readLines(os.Stdin), out: os.Stdout}

	manager, err := session.NewManager(session.Config{IdleTimeout: *idleTimeout}, session.Dependencies{
		API:        client,
		Store:      store,
		Navigator:  con,
		Dispatcher: dispatcher,
		Logger:     logger.Named("session"),
	})
	if err != nil {
		logger.Fatal("failed to create session manager", zap.Error(err))
	}
	defer manager.Close()
	con.session = manager

	manager.Bootstrap(ctx)
	go watchFocus(ctx, manager)

	if err := con.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("console stopped", zap.Error(err))
	}
	fmt.Fprintln(os.Stdout)
}

func openStore(ctx context.Context, cfg *config.TerminalConfig, logger *zap.Logger) (clientstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return clientstore.NewMemoryStore(), func() {}, nil
	case config.StoreRedis:
		r := persistence.NewRedis(cfg.Redis)
		if err := r.WaitReady(ctx, 3, 500*time.Millisecond); err != nil {
			r.Close()
			return nil, nil, err
		}
		logger.Debug("redis session store", zap.String("addr", cfg.Redis.Addr), zap.String("namespace", cfg.Store.Namespace))
		return clientstore.NewRedisStore(r.Client, cfg.Store.Namespace), r.Close, nil
	default:
		s, err := clientstore.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("file session store", zap.String("path", s.Path()))
		return s, func() {}, nil
	}
}

// watchFocus re-checks the stored session whenever the process returns to the foreground.
func watchFocus(ctx context.Context, m *session.Manager) {
	sigs := focusSignals()
	if len(sigs) == 0 {
		return
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			m.FocusRegained(ctx)
		}
	}
}
