// This program performs administrative tasks for the content ledger.
package main

import (
	"os"

	"github.com/contentledger/notary/app/tooling/admin/cmd"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {
	if err := cmd.NewRootCmd(build).Execute(); err != nil {
		os.Exit(1)
	}
}
