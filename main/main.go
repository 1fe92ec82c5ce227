// (c) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/iotstorevm/iotstorevm"
)

func main() {
	p, err := getParams(os.Args[1:])
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if p.version {
		fmt.Printf("%s@%s\n", iotstorevm.Name, iotstorevm.Version)
		os.Exit(0)
	}

	lvl, err := log.LvlFromString(p.logLevel)
	if err != nil {
		fmt.Printf("invalid log level: %s\n", err)
		os.Exit(1)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	n, err := newNode(p)
	if err != nil {
		log.Error("couldn't start node", "err", err)
		os.Exit(1)
	}
	if err := n.run(ctx); err != nil {
		log.Error("node returned an error", "err", err)
		os.Exit(1)
	}
}
