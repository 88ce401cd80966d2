// This program is a wallet for signing petitions on a ledger node.
package main

import "github.com/ardanlabs/petition/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
