package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/contentledger/notary/app/services/node/handlers"
	"github.com/contentledger/notary/business/sys/metrics"
	"github.com/contentledger/notary/foundation/blockchain/database"
	"github.com/contentledger/notary/foundation/blockchain/database/storage/disk"
	"github.com/contentledger/notary/foundation/blockchain/database/storage/memory"
	"github.com/contentledger/notary/foundation/blockchain/database/storage/postgres"
	"github.com/contentledger/notary/foundation/blockchain/genesis"
	"github.com/contentledger/notary/foundation/blockchain/proof"
	"github.com/contentledger/notary/foundation/blockchain/state"
	"github.com/contentledger/notary/foundation/blockchain/worker"
	"github.com/contentledger/notary/foundation/events"
	"github.com/contentledger/notary/foundation/logger"
	"github.com/ethereum/go-ethereum/crypto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
			CorsOrigins     []string      `conf:"default:*"`
			RateLimitRPS    float64       `conf:"default:50"`
			RateLimitBurst  int           `conf:"default:100"`
		}
		State struct {
			Beneficiary   string        `conf:"default:node1"`
			GenesisPath   string        `conf:"default:zblock/genesis.yaml"`
			Storage       string        `conf:"default:disk,help:disk|memory|postgres"`
			DBPath        string        `conf:"default:zblock/blocks"`
			DatabaseURL   string        `conf:"mask"`
			SealInterval  time.Duration `conf:"default:30s"`
			IssuerKeyPath string
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "content integrity ledger node",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// Continue traces started by callers that send a traceparent header.
	otel.SetTextMapPropagator(propagation.TraceContext{})

	// =========================================================================
	// Ledger Support

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}
	log.Infow("startup", "status", "genesis loaded", "difficulty", gen.Difficulty, "reward", gen.MiningReward, "issuer", gen.Issuer)

	storage, err := openStorage(cfg.State.Storage, cfg.State.DBPath, cfg.State.DatabaseURL)
	if err != nil {
		return err
	}

	// The issuer key is optional. Without it certificates carry only their
	// self referential signature.
	var issuerKey *ecdsa.PrivateKey
	if cfg.State.IssuerKeyPath != "" {
		issuerKey, err = crypto.LoadECDSA(cfg.State.IssuerKeyPath)
		if err != nil {
			return fmt.Errorf("unable to load issuer key: %w", err)
		}
	}

	// The ledger packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	st, err := state.New(state.Config{
		BeneficiaryID: cfg.State.Beneficiary,
		Genesis:       gen,
		Storage:       storage,
		EvHandler:     ev,
		Recorder:      metrics.Ledger{},
	})
	if err != nil {
		storage.Close()
		return err
	}
	defer st.Shutdown()

	// The worker seals pending transactions in the background. It registers
	// itself with the state.
	worker.Run(st, cfg.State.SealInterval, ev)

	builder := proof.NewBuilder(st, gen, issuerKey)
	if account := builder.IssuerAccount(); account != "" {
		log.Infow("startup", "status", "issuer key loaded", "account", account)
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, st)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	muxCfg := handlers.MuxConfig{
		Shutdown:       shutdown,
		Log:            log,
		State:          st,
		Builder:        builder,
		Evts:           evts,
		CorsOrigins:    cfg.Web.CorsOrigins,
		RateLimitRPS:   cfg.Web.RateLimitRPS,
		RateLimitBurst: cfg.Web.RateLimitBurst,
	}

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      handlers.PublicMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      handlers.PrivateMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// openStorage constructs the serializer the blocks are persisted with.
func openStorage(kind string, dbPath string, databaseURL string) (database.Serializer, error) {
	switch kind {
	case "disk":
		return disk.New(dbPath)

	case "memory":
		return memory.New()

	case "postgres":
		if databaseURL == "" {
			return nil, errors.New("postgres storage requires a database url")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return postgres.New(ctx, databaseURL)
	}

	return nil, fmt.Errorf("unknown storage %q", kind)
}
