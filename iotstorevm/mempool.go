// (c) 2023-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow/engine/common"
)

const (
	defaultMempoolSize = 1024
)

var (
	errEmptyMempool = errors.New("empty mempool")
	errDuplicateTx  = errors.New("tx is already pending")
)

type pendingTx struct {
	id ids.ID
	tx Tx
}

// mempool is a bounded FIFO of transactions waiting to be built into a
// block. Adding a tx notifies the engine.
type mempool struct {
	toEngine chan<- common.Message
	txs      chan pendingTx

	lock    sync.Mutex
	pending map[ids.ID]struct{}
}

func newMempool(size int, toEngine chan<- common.Message) *mempool {
	if size <= 0 {
		size = defaultMempoolSize
	}
	return &mempool{
		toEngine: toEngine,
		txs:      make(chan pendingTx, size),
		pending:  make(map[ids.ID]struct{}, size),
	}
}

func (m *mempool) Add(txID ids.ID, tx Tx) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.pending[txID]; ok {
		return fmt.Errorf("%w: %s", errDuplicateTx, txID)
	}

	select {
	case m.txs <- pendingTx{id: txID, tx: tx}:
	default:
		return fmt.Errorf("failed to add tx %s to mempool due to full at size (%d)", txID, cap(m.txs))
	}
	m.pending[txID] = struct{}{}

	select {
	case m.toEngine <- common.PendingTxs:
	default:
	}
	return nil
}

func (m *mempool) Next() (ids.ID, Tx, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	select {
	case next := <-m.txs:
		delete(m.pending, next.id)
		return next.id, next.tx, nil
	default:
		return ids.Empty, nil, errEmptyMempool
	}
}

func (m *mempool) Has(txID ids.ID) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	_, ok := m.pending[txID]
	return ok
}

func (m *mempool) Len() int {
	return len(m.txs)
}
