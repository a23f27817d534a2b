package cmd

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ardanlabs/statechain/foundation/chain/runtime"
	"github.com/ardanlabs/statechain/foundation/chain/types"
)

// pendingNonce asks the node for the next nonce the account should sign
// with: its runtime nonce plus its pending mempool entries. This lets
// several extrinsics be submitted back to back without waiting for blocks.
func pendingNonce(account types.AccountID) (types.Nonce, error) {
	resp, err := http.Get(fmt.Sprintf("%s/nonce/%s", nodeURL, account))
	if err != nil {
		return 0, fmt.Errorf("querying nonce: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading nonce response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("nonce query failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	n, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing nonce %q: %w", body, err)
	}
	return types.Nonce(n), nil
}

// submit posts the canonical encoding of the extrinsic to the node.
func submit(ext runtime.UncheckedExtrinsic) error {
	data, err := ext.Encode()
	if err != nil {
		return fmt.Errorf("encoding extrinsic: %w", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/submit", nodeURL), "application/octet-stream", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("submitting extrinsic: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading submit response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return nil
}
