// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/snow/engine/common"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/iotstorevm/iotstorevm"
)

const (
	shutdownTimeout = 5 * time.Second
	toEngineSize    = 1
)

// node runs a single validator chain: every block it builds is
// immediately verified and accepted.
type node struct {
	log log.Logger

	db       database.Database
	vm       *iotstorevm.VM
	toEngine chan common.Message
	registry *prometheus.Registry
	server   *http.Server

	buildInterval time.Duration
}

func newNode(p *params) (*node, error) {
	genesisBytes, err := readOptionalFile(p.genesisFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't read genesis: %w", err)
	}
	configBytes, err := readOptionalFile(p.vmConfigFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't read vm config: %w", err)
	}

	db, err := openDB(p.dbDir)
	if err != nil {
		return nil, fmt.Errorf("couldn't open database: %w", err)
	}

	n := &node{
		log:           log.New("module", "node"),
		db:            db,
		vm:            &iotstorevm.VM{},
		toEngine:      make(chan common.Message, toEngineSize),
		registry:      prometheus.NewRegistry(),
		buildInterval: p.buildInterval,
	}
	if err := n.vm.Initialize(context.Background(), db, genesisBytes, configBytes, n.toEngine, n.registry); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("couldn't initialize vm: %w", err)
	}

	handlers, err := n.vm.CreateHandlers()
	if err != nil {
		_ = n.close(context.Background())
		return nil, err
	}
	staticHandlers, err := iotstorevm.CreateStaticHandlers()
	if err != nil {
		_ = n.close(context.Background())
		return nil, err
	}

	mux := http.NewServeMux()
	base := "/ext/" + iotstorevm.ServiceName
	for ext, h := range handlers {
		mux.Handle(base+ext, h.Handler)
	}
	for ext, h := range staticHandlers {
		mux.Handle(base+"/static"+ext, h.Handler)
	}
	mux.Handle("/metrics", promhttp.HandlerFor(n.registry, promhttp.HandlerOpts{}))

	n.server = &http.Server{
		Addr:              net.JoinHostPort(p.httpHost, strconv.Itoa(int(p.httpPort))),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return n, nil
}

func (n *node) run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		n.log.Info("serving", "addr", n.server.Addr)
		if err := n.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ticker := time.NewTicker(n.buildInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return n.shutdown()
		case err := <-serverErr:
			_ = n.close(context.Background())
			return err
		case msg := <-n.toEngine:
			if msg == common.PendingTxs {
				n.buildAndAccept(ctx)
			}
		case <-ticker.C:
			n.buildAndAccept(ctx)
		}
	}
}

// buildAndAccept builds a block on the last accepted block and accepts it.
func (n *node) buildAndAccept(ctx context.Context) {
	blk, err := n.vm.BuildBlock(ctx)
	if err != nil {
		// No block can be built when every pending tx was dropped.
		n.log.Debug("didn't build block", "err", err)
		return
	}
	if err := n.vm.Verify(ctx, blk); err != nil {
		n.log.Error("built block failed verification", "blkID", blk.ID(), "err", err)
		_ = n.vm.Reject(ctx, blk)
		return
	}
	if err := n.vm.SetPreference(ctx, blk.ID()); err != nil {
		n.log.Error("couldn't set preference", "blkID", blk.ID(), "err", err)
		return
	}
	if err := n.vm.Accept(ctx, blk); err != nil {
		n.log.Error("couldn't accept block", "blkID", blk.ID(), "err", err)
		_ = n.vm.Reject(ctx, blk)
	}
}

func (n *node) shutdown() error {
	n.log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	serverErr := n.server.Shutdown(ctx)
	closeErr := n.close(ctx)
	if serverErr != nil {
		return serverErr
	}
	return closeErr
}

// close shuts the vm down, then closes its database.
func (n *node) close(ctx context.Context) error {
	vmErr := n.vm.Shutdown(ctx)
	dbErr := n.db.Close()
	if vmErr != nil {
		return vmErr
	}
	return dbErr
}

// openDB opens the leveldb database in [dir], or an in-memory one if [dir]
// is empty.
func openDB(dir string) (database.Database, error) {
	if dir == "" {
		return memdb.New(), nil
	}
	return leveldb.New(dir, nil, logging.NoLog{})
}
