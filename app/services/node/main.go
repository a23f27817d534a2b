package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/statechain/app/services/node/handlers"
	"github.com/ardanlabs/statechain/foundation/chain/gossip/wsbus"
	"github.com/ardanlabs/statechain/foundation/chain/mempool"
	"github.com/ardanlabs/statechain/foundation/chain/node"
	"github.com/ardanlabs/statechain/foundation/chain/peer"
	"github.com/ardanlabs/statechain/foundation/chain/runtime"
	"github.com/ardanlabs/statechain/foundation/chain/storage/pebbledb"
	"github.com/ardanlabs/statechain/foundation/events"
	"github.com/ardanlabs/statechain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It can be set at build time with -ldflags "-X main.build=...".
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
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			RPCHost         string        `conf:"default:0.0.0.0:8080"`
		}
		Chain struct {
			GossipHost      string   `conf:"default:0.0.0.0:9080"`
			Peers           []string
			DBPath          string   `conf:"default:zchain/data"`
			BlockLimit      int      `conf:"default:10"`
			MempoolCapacity int      `conf:"default:128"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "statechain node",
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

	// =========================================================================
	// Chain State Support

	// The events package is wired into the event handler so that anything
	// connected to the /events websocket sees what the log sees.
	evts := events.New()
	defer evts.Shutdown()

	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s)
		evts.Send(s)
	}

	store, err := pebbledb.Open(cfg.Chain.DBPath)
	if err != nil {
		return fmt.Errorf("opening chain database: %w", err)
	}
	defer store.Close()

	rt := runtime.New(store, ev)

	applied, err := rt.ApplyGenesis()
	if err != nil {
		return fmt.Errorf("applying genesis: %w", err)
	}
	if applied {
		log.Infow("startup", "status", "genesis block sealed")
	}

	selfID, err := node.Identity(store)
	if err != nil {
		return fmt.Errorf("loading node identity: %w", err)
	}
	log.Infow("startup", "status", "node identity", "id", selfID)

	// =========================================================================
	// Gossip Support

	bus, err := wsbus.New(wsbus.Config{
		SelfID:     selfID,
		ListenAddr: cfg.Chain.GossipHost,
		Peers:      cfg.Chain.Peers,
		EvHandler:  ev,
	})
	if err != nil {
		return fmt.Errorf("starting gossip bus: %w", err)
	}
	defer bus.Close()

	// =========================================================================
	// Node Support

	mp := mempool.New(cfg.Chain.MempoolCapacity)
	peers := peer.NewSet(selfID)

	nd, err := node.New(node.Config{
		Runtime:    rt,
		Mempool:    mp,
		Bus:        bus,
		Peers:      peers,
		BlockLimit: cfg.Chain.BlockLimit,
		EvHandler:  ev,
	})
	if err != nil {
		return fmt.Errorf("constructing node: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nodeErrors := make(chan error, 1)
	go func() {
		nodeErrors <- nd.Run(ctx)
	}()

	// =========================================================================
	// Start RPC Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	mux := handlers.RPCMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Node:     nd,
		Runtime:  rt,
		Mempool:  mp,
		Evts:     evts,
	})

	api := http.Server{
		Addr:         cfg.Web.RPCHost,
		Handler:      mux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Infow("startup", "status", "rpc router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case err := <-nodeErrors:
		if err != nil {
			return fmt.Errorf("node error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		cancel()
		if err := <-nodeErrors; err != nil {
			log.Errorw("shutdown", "status", "node stop", "ERROR", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
