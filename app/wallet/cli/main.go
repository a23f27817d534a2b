// This program provides the wallet and admin front-end for the chain:
// signing and submitting extrinsics against a running node, and inspecting
// or resetting a chain database directly.
package main

import "github.com/ardanlabs/statechain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
