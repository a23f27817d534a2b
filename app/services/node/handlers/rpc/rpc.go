// Package rpc maintains the group of handlers for the node's RPC surface.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/statechain/business/web/errs"
	"github.com/ardanlabs/statechain/foundation/chain/mempool"
	"github.com/ardanlabs/statechain/foundation/chain/node"
	"github.com/ardanlabs/statechain/foundation/chain/runtime"
	"github.com/ardanlabs/statechain/foundation/chain/types"
	"github.com/ardanlabs/statechain/foundation/events"
	"github.com/ardanlabs/statechain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// maxBodyBytes bounds how much of a submit body is read.
const maxBodyBytes = 1 << 20

// Handlers manages the set of RPC endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Node    *node.Node
	Runtime *runtime.Runtime
	Mempool *mempool.Mempool
	Evts    *events.Events
	WS      websocket.Upgrader
}

// Submit accepts the canonical encoding of an extrinsic, pools it, and
// gossips it to the network.
func (h Handlers) Submit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("reading body: %w", err), http.StatusBadRequest)
	}

	ext, err := runtime.DecodeExtrinsic(body)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("decoding extrinsic: %w", err), http.StatusBadRequest)
	}

	if err := h.Node.SubmitExtrinsic(ext); err != nil {
		if errors.Is(err, mempool.ErrMempoolFull) {
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}
		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "extrinsic added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Nonce returns the account's pending nonce: the runtime nonce plus the
// number of extrinsics the account already has in the mempool. This is the
// nonce a client should sign its next extrinsic with.
func (h Handlers) Nonce(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account, err := types.ParseAccountID(web.Param(r, "account"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	base, err := h.Runtime.System.Nonce(account)
	if err != nil {
		return err
	}
	pending := h.Mempool.PendingCount(account)

	text := strconv.FormatUint(uint64(base)+uint64(pending), 10)
	return web.RespondText(ctx, w, text, http.StatusOK)
}

// State returns a snapshot of the chain state: block number, dev account
// nonces and balances, and all claims.
func (h Handlers) State(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	snap, err := h.Runtime.Snapshot()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, snap, http.StatusOK)
}

// Events handles a web socket to provide node events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
