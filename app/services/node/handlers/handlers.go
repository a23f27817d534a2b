// Package handlers manages the RPC API for the node.
package handlers

import (
	"net/http"
	"os"

	"github.com/ardanlabs/statechain/app/services/node/handlers/rpc"
	"github.com/ardanlabs/statechain/business/web/mid"
	"github.com/ardanlabs/statechain/foundation/chain/mempool"
	"github.com/ardanlabs/statechain/foundation/chain/node"
	"github.com/ardanlabs/statechain/foundation/chain/runtime"
	"github.com/ardanlabs/statechain/foundation/events"
	"github.com/ardanlabs/statechain/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	Node     *node.Node
	Runtime  *runtime.Runtime
	Mempool  *mempool.Mempool
	Evts     *events.Events
}

// RPCMux constructs a http.Handler with all the RPC routes defined.
func RPCMux(cfg MuxConfig) http.Handler {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Cors("*"),
		mid.Panics(),
	)

	h := rpc.Handlers{
		Log:     cfg.Log,
		Node:    cfg.Node,
		Runtime: cfg.Runtime,
		Mempool: cfg.Mempool,
		Evts:    cfg.Evts,
	}

	app.Handle(http.MethodPost, "/submit", h.Submit)
	app.Handle(http.MethodGet, "/nonce/:account", h.Nonce)
	app.Handle(http.MethodGet, "/state", h.State)
	app.Handle(http.MethodGet, "/events", h.Events)

	return app
}
