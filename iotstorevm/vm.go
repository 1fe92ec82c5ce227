// (c) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow/engine/common"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
)

const (
	Name = "iotstorevm"

	defaultMaxBlockTxs = 256
	droppedCacheSize   = 4096

	futureBlockLimit = time.Minute // Maximum amount of time that a block can be in the future
)

var (
	Version = "v0.1.0"

	errNoPendingTxs      = errors.New("there is no tx to build a block from")
	errGenesisMismatch   = errors.New("genesis config doesn't match the initialized chain")
	errNotInitialized    = errors.New("vm is not initialized")
	errUnknownParent     = errors.New("parent block is neither processing nor last accepted")
	errNotVerified       = errors.New("block has not been verified")
	errAcceptOutOfOrder  = errors.New("block's parent is not the last accepted block")
	errTimestampTooEarly = errors.New("block's timestamp is earlier than its parent's timestamp")
	errTimestampTooLate  = errors.New("block's timestamp is too far in the future")
	errTxAlreadyAccepted = errors.New("tx was already accepted")
	errTxProcessing      = errors.New("tx is in a processing block")
	errBlockRejected     = errors.New("block carrying the tx was rejected")
)

// VMConfig holds node-local settings. Unlike the genesis Config they may
// differ between nodes and across restarts.
type VMConfig struct {
	MempoolSize      int    `yaml:"mempoolSize"`
	MaxBlockTxs      int    `yaml:"maxBlockTxs"`
	MetricsNamespace string `yaml:"metricsNamespace"`
}

func defaultVMConfig() VMConfig {
	return VMConfig{
		MempoolSize:      defaultMempoolSize,
		MaxBlockTxs:      defaultMaxBlockTxs,
		MetricsNamespace: Name,
	}
}

// VM is a chain whose blocks carry vehicle registry transitions.
//
// Transitions are serialized by [lock]: BuildBlock, Verify, Accept, Reject
// and SetPreference take it exclusively, reads of the accepted registry
// share it.
type VM struct {
	// last nonce handed out by NextNonce, first for 64-bit alignment
	nonce uint64

	lock sync.RWMutex

	log   log.Logger
	clock mockable.Clock

	config  VMConfig
	genesis *Genesis

	state   State
	mempool *mempool
	metrics *metrics

	// txID -> TxStatus of txs dropped while building a block
	dropped cache.Cacher

	// blocks that passed Verify and are neither accepted nor rejected
	verifiedBlocks map[ids.ID]*Block
	lastAccepted   *Block
	preferred      ids.ID
}

// Initialize this vm
// [db] is the database this vm persists to
// [genesisBytes] fixes the chain's limits, see ParseGenesis
// [configBytes] holds node-local settings as YAML, may be empty
// [toEngine] is used to notify the consensus engine that new blocks are
// ready to be built
// [registerer] receives the vm's metrics
func (vm *VM) Initialize(
	ctx context.Context,
	db database.Database,
	genesisBytes []byte,
	configBytes []byte,
	toEngine chan<- common.Message,
	registerer prometheus.Registerer,
) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	vm.log = log.New("vm", Name)
	vm.log.Info("Initializing vehicle registry VM", "Version", Version)

	vm.config = defaultVMConfig()
	if len(configBytes) > 0 {
		if err := yaml.Unmarshal(configBytes, &vm.config); err != nil {
			return fmt.Errorf("failed to parse vm config: %w", err)
		}
	}

	genesis, err := ParseGenesis(genesisBytes)
	if err != nil {
		return err
	}
	vm.genesis = genesis

	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	vm.metrics, err = newMetrics(vm.config.MetricsNamespace, registerer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	vm.state = NewState(db, genesis.Config)
	vm.mempool = newMempool(vm.config.MempoolSize, toEngine)
	vm.dropped = &cache.LRU{Size: droppedCacheSize}
	vm.verifiedBlocks = make(map[ids.ID]*Block)

	if err := vm.initGenesis(); err != nil {
		return err
	}

	lastAcceptedID, err := vm.state.GetLastAccepted()
	if err != nil {
		return fmt.Errorf("failed to get last accepted block: %w", err)
	}
	vm.lastAccepted, err = vm.state.GetBlock(lastAcceptedID)
	if err != nil {
		return fmt.Errorf("failed to get last accepted block %s: %w", lastAcceptedID, err)
	}
	vm.preferred = lastAcceptedID
	atomic.StoreUint64(&vm.nonce, uint64(vm.clock.Time().UnixNano()))

	count, err := vm.state.Vehicles().VehicleCount()
	if err != nil {
		return err
	}
	vm.metrics.vehicles.Set(float64(count))

	vm.log.Info("initialized vm",
		"lastAccepted", lastAcceptedID,
		"height", vm.lastAccepted.Height(),
		"vehicles", count,
	)
	return nil
}

func (vm *VM) initGenesis() error {
	genesisBlock, err := newBlock(ids.Empty, 0, vm.genesis.Timestamp, nil)
	if err != nil {
		return fmt.Errorf("failed to build genesis block: %w", err)
	}

	initialized, err := vm.state.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		storedConfig, err := vm.state.GetConfig()
		if err != nil {
			return fmt.Errorf("failed to get genesis config: %w", err)
		}
		if storedConfig != vm.genesis.Config {
			return errGenesisMismatch
		}
		genesisBlkID, err := vm.state.GetBlockIDAtHeight(0)
		if err != nil {
			return fmt.Errorf("failed to get blockID for genesis: %w", err)
		}
		if genesisBlkID != genesisBlock.ID() {
			return fmt.Errorf("%w: stored genesis block %s, expected %s", errGenesisMismatch, genesisBlkID, genesisBlock.ID())
		}
		return nil
	}

	defer vm.state.Abort()

	if err := vm.state.PutConfig(vm.genesis.Config); err != nil {
		return fmt.Errorf("failed to put genesis config: %w", err)
	}
	if err := vm.state.PutBlock(genesisBlock); err != nil {
		return fmt.Errorf("failed to put genesis block: %w", err)
	}
	if err := vm.state.SetLastAccepted(genesisBlock.ID()); err != nil {
		return fmt.Errorf("failed to set genesis as last accepted: %w", err)
	}
	if err := vm.state.SetInitialized(); err != nil {
		return fmt.Errorf("error while setting db to initialized: %w", err)
	}
	if err := vm.state.Commit(); err != nil {
		return fmt.Errorf("failed to commit genesis: %w", err)
	}
	return nil
}

// Config returns the limits fixed at genesis.
func (vm *VM) Config() Config {
	return vm.genesis.Config
}

// NextNonce returns a nonce no earlier call returned. Txs built with it get
// a fresh ID even when they repeat an earlier transition.
func (vm *VM) NextNonce() uint64 {
	return atomic.AddUint64(&vm.nonce, 1)
}

// SubmitTx checks [tx] against the genesis limits and queues it for the
// next block. Failures that depend on registry state surface later through
// GetTxStatus.
func (vm *VM) SubmitTx(tx Tx) (ids.ID, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	if vm.state == nil {
		return ids.Empty, errNotInitialized
	}
	if err := tx.SyntacticVerify(vm.genesis.Config); err != nil {
		return ids.Empty, err
	}
	txID, err := TxID(tx)
	if err != nil {
		return ids.Empty, err
	}
	if err := vm.checkNotIssued(txID, nil); err != nil {
		return ids.Empty, err
	}

	if err := vm.mempool.Add(txID, tx); err != nil {
		return ids.Empty, err
	}
	vm.dropped.Evict(txID)
	vm.metrics.mempoolSize.Set(float64(vm.mempool.Len()))
	vm.log.Debug("tx submitted", "txID", txID, "kind", tx.Kind())
	return txID, nil
}

// BuildBlock returns a block on top of the preferred block holding the
// pending txs that apply cleanly. Txs that fail are dropped and their error
// is kept for GetTxStatus.
func (vm *VM) BuildBlock(ctx context.Context) (*Block, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	parent, err := vm.getBlock(vm.preferred)
	if err != nil {
		return nil, fmt.Errorf("couldn't get preferred block: %w", err)
	}
	parentDB, processingParent, err := vm.layerFor(parent)
	if err != nil {
		return nil, err
	}
	issued, err := processingTxIDs(processingParent)
	if err != nil {
		return nil, err
	}

	scratch := versiondb.New(parentDB)
	defer scratch.Abort()
	registry := NewRegistry(vm.genesis.Config, NewVehicleState(scratch, vm.genesis.Config), nil)

	txs := []Tx{}
	for len(txs) < vm.config.MaxBlockTxs {
		txID, tx, err := vm.mempool.Next()
		if err == errEmptyMempool {
			break
		}
		if err := vm.checkNotIssued(txID, issued); err != nil {
			// already carried by an ancestor or accepted
			vm.log.Debug("skipping tx", "txID", txID, "err", err)
			continue
		}
		if err := tx.Execute(registry); err != nil {
			vm.log.Debug("dropping tx", "txID", txID, "kind", tx.Kind(), "err", err)
			vm.dropped.Put(txID, TxStatus{Status: Dropped, Error: err.Error()})
			vm.metrics.txsDropped.WithLabelValues(tx.Kind()).Inc()
			continue
		}
		issued.Add(txID)
		txs = append(txs, tx)
	}
	vm.metrics.mempoolSize.Set(float64(vm.mempool.Len()))

	// Notify consensus engine that there are more pending txs for blocks
	// (if that is the case) when done building this block
	if vm.mempool.Len() > 0 {
		defer vm.notifyBlockReady()
	}

	if len(txs) == 0 {
		return nil, errNoPendingTxs
	}

	timestamp := vm.clock.Time().Unix()
	if timestamp < parent.Tmstmp {
		timestamp = parent.Tmstmp
	}
	blk, err := newBlock(parent.ID(), parent.Height()+1, timestamp, txs)
	if err != nil {
		return nil, fmt.Errorf("couldn't build block: %w", err)
	}
	vm.log.Debug("built block", "blkID", blk.ID(), "height", blk.Height(), "txs", len(txs))
	return blk, nil
}

func (vm *VM) notifyBlockReady() {
	select {
	case vm.mempool.toEngine <- common.PendingTxs:
	default:
	}
}

// ParseBlock parses [b] to a Block. If the block is already known, the
// known instance is returned.
func (vm *VM) ParseBlock(ctx context.Context, b []byte) (*Block, error) {
	blk, err := ParseBlock(b)
	if err != nil {
		return nil, err
	}

	vm.lock.RLock()
	defer vm.lock.RUnlock()

	if known, err := vm.getBlock(blk.ID()); err == nil {
		return known, nil
	}
	return blk, nil
}

// GetBlock returns the processing or accepted block with ID [blkID].
func (vm *VM) GetBlock(ctx context.Context, blkID ids.ID) (*Block, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	return vm.getBlock(blkID)
}

func (vm *VM) getBlock(blkID ids.ID) (*Block, error) {
	if blk, ok := vm.verifiedBlocks[blkID]; ok {
		return blk, nil
	}
	if vm.lastAccepted != nil && vm.lastAccepted.ID() == blkID {
		return vm.lastAccepted, nil
	}
	return vm.state.GetBlock(blkID)
}

// GetBlockIDAtHeight returns the ID of the accepted block at [height].
func (vm *VM) GetBlockIDAtHeight(ctx context.Context, height uint64) (ids.ID, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	return vm.state.GetBlockIDAtHeight(height)
}

// LastAccepted returns the ID of the last accepted block.
func (vm *VM) LastAccepted(ctx context.Context) (ids.ID, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	if vm.lastAccepted == nil {
		return ids.Empty, errNotInitialized
	}
	return vm.lastAccepted.ID(), nil
}

// SetPreference sets the block BuildBlock builds on.
func (vm *VM) SetPreference(ctx context.Context, blkID ids.ID) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if _, err := vm.getBlock(blkID); err != nil {
		return fmt.Errorf("failed to get preferred block %s: %w", blkID, err)
	}
	vm.preferred = blkID
	return nil
}

// layerFor returns the registry database a child of [parent] builds on,
// and [parent] itself when it is still processing.
func (vm *VM) layerFor(parent *Block) (database.Database, *Block, error) {
	if parent.ID() == vm.lastAccepted.ID() {
		return vm.state.VehicleDB(), nil, nil
	}
	if verified, ok := vm.verifiedBlocks[parent.ID()]; ok {
		return verified.onAccept, verified, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", errUnknownParent, parent.ID())
}

// Verify returns nil iff [blk] is valid on top of its parent.
// To be valid, it must be that:
// parent.Height + 1 == blk.Height
// parent.Timestamp <= blk.Timestamp < [local time] + futureBlockLimit
// every tx in blk applies, in order, to the registry as of the parent
func (vm *VM) Verify(ctx context.Context, blk *Block) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if _, ok := vm.verifiedBlocks[blk.ID()]; ok {
		return nil
	}

	parent, err := vm.getBlock(blk.Parent())
	if err != nil {
		return fmt.Errorf("failed to get parent of %s for verification: %w", blk.ID(), err)
	}
	if expectedHeight := parent.Height() + 1; expectedHeight != blk.Height() {
		return fmt.Errorf(
			"expected block to have height %d, but found %d",
			expectedHeight,
			blk.Height(),
		)
	}
	if blk.Tmstmp < parent.Tmstmp {
		return fmt.Errorf("%w: %s < %s", errTimestampTooEarly, blk.Timestamp(), parent.Timestamp())
	}
	if blk.Timestamp().Unix() >= vm.clock.Time().Add(futureBlockLimit).Unix() {
		return fmt.Errorf("%w: %s is more than %s past local time", errTimestampTooLate, blk.Timestamp(), futureBlockLimit)
	}

	parentDB, processingParent, err := vm.layerFor(parent)
	if err != nil {
		return err
	}
	issued, err := processingTxIDs(processingParent)
	if err != nil {
		return err
	}

	onAccept := versiondb.New(parentDB)
	recorder := &EventRecorder{}
	registry := NewRegistry(vm.genesis.Config, NewVehicleState(onAccept, vm.genesis.Config), recorder)

	events := []Event{}
	for i, tx := range blk.Txs {
		if err := tx.SyntacticVerify(vm.genesis.Config); err != nil {
			onAccept.Abort()
			return fmt.Errorf("tx %d (%s) of block %s is malformed: %w", i, tx.Kind(), blk.ID(), err)
		}
		txID, err := TxID(tx)
		if err != nil {
			onAccept.Abort()
			return err
		}
		if err := vm.checkNotIssued(txID, issued); err != nil {
			onAccept.Abort()
			return fmt.Errorf("tx %d (%s) of block %s: %w", i, tx.Kind(), blk.ID(), err)
		}
		issued.Add(txID)
		if err := tx.Execute(registry); err != nil {
			onAccept.Abort()
			return fmt.Errorf("tx %d (%s) of block %s failed: %w", i, tx.Kind(), blk.ID(), err)
		}
		for _, e := range recorder.Events {
			e.Height = blk.Height()
			e.TxID = txID
			events = append(events, e)
		}
		recorder.Reset()
	}

	blk.parent = processingParent
	blk.onAccept = onAccept
	blk.events = events
	vm.verifiedBlocks[blk.ID()] = blk
	return nil
}

// Accept marks [blk] as accepted and performs all DB IO necessary on accept.
func (vm *VM) Accept(ctx context.Context, blk *Block) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if _, ok := vm.verifiedBlocks[blk.ID()]; !ok {
		return fmt.Errorf("%w: %s", errNotVerified, blk.ID())
	}
	if blk.Parent() != vm.lastAccepted.ID() {
		return fmt.Errorf("%w: %s", errAcceptOutOfOrder, blk.ID())
	}

	defer vm.state.Abort()

	// Push the registry writes down to the accepted state. Ancestors that
	// were processing when [blk] was verified have since been accepted, so
	// their layers only forward what we commit into them.
	for layer := blk; layer != nil; layer = layer.parent {
		if err := layer.onAccept.Commit(); err != nil {
			vm.state.Vehicles().ClearCache()
			return fmt.Errorf("failed to commit registry writes of block %s: %w", blk.ID(), err)
		}
	}

	if err := vm.state.PutBlock(blk); err != nil {
		return err
	}
	if err := vm.state.SetLastAccepted(blk.ID()); err != nil {
		return fmt.Errorf("failed to update last accepted block to %s: %w", blk.ID(), err)
	}
	for _, e := range blk.events {
		if _, err := vm.state.AppendEvent(e); err != nil {
			return err
		}
		vm.state.Vehicles().EvictVehicle(e.Key)
	}

	txIDs, err := blk.TxIDs()
	if err != nil {
		return err
	}
	for _, txID := range txIDs {
		status := TxStatus{
			Status:  Accepted,
			BlockID: blk.ID(),
			Height:  blk.Height(),
		}
		if err := vm.state.PutTxStatus(txID, status); err != nil {
			return fmt.Errorf("failed to put status of tx %s: %w", txID, err)
		}
	}

	if err := vm.state.Commit(); err != nil {
		vm.state.Vehicles().ClearCache()
		return fmt.Errorf("failed to commit database accepting block %s: %w", blk.ID(), err)
	}

	delete(vm.verifiedBlocks, blk.ID())
	blk.parent = nil
	vm.lastAccepted = blk

	for _, tx := range blk.Txs {
		vm.metrics.txsAccepted.WithLabelValues(tx.Kind()).Inc()
	}
	vm.metrics.blocksAccepted.Inc()
	if count, err := vm.state.Vehicles().VehicleCount(); err == nil {
		vm.metrics.vehicles.Set(float64(count))
	}

	vm.log.Info("accepted block",
		"blkID", blk.ID(),
		"height", blk.Height(),
		"txs", len(blk.Txs),
		"events", len(blk.events),
	)
	return nil
}

// Reject is called by the engine when a block is marked as rejected.
// The block's pending registry writes are discarded. Txs of a verified
// block go back to the mempool, those of a block that never verified are
// dropped.
func (vm *VM) Reject(ctx context.Context, blk *Block) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	verified, ok := vm.verifiedBlocks[blk.ID()]
	if ok {
		verified.onAccept.Abort()
		delete(vm.verifiedBlocks, blk.ID())
	}
	if vm.preferred == blk.ID() {
		vm.preferred = vm.lastAccepted.ID()
	}
	if err := vm.reissue(blk, ok); err != nil {
		return err
	}
	vm.metrics.blocksRejected.Inc()
	vm.log.Debug("rejected block", "blkID", blk.ID(), "height", blk.Height())
	return nil
}

// GetVehicle returns the accepted record at [key].
func (vm *VM) GetVehicle(key VehicleKey) (*Vehicle, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	return vm.acceptedRegistry().Get(key)
}

// VehicleCount returns the number of accepted records.
func (vm *VM) VehicleCount() (uint64, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	return vm.acceptedRegistry().Count()
}

// VehicleIdentifiers queries the accepted registry, see
// Registry.VehicleIdentifiers.
func (vm *VM) VehicleIdentifiers(manufacturer, model, vinPrefix string) ([]IdentifierMatch, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	return vm.acceptedRegistry().VehicleIdentifiers(manufacturer, model, vinPrefix)
}

// GetEvents returns at most [limit] events of the log starting at [start],
// and the total number of events.
func (vm *VM) GetEvents(start uint64, limit int) ([]Event, uint64, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	events, err := vm.state.GetEvents(start, limit)
	if err != nil {
		return nil, 0, err
	}
	count, err := vm.state.EventCount()
	return events, count, err
}

// GetTxStatus returns the status of [txID]. A tx is processing while it is
// in the mempool or in a verified block.
func (vm *VM) GetTxStatus(txID ids.ID) (TxStatus, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	if vm.mempool.Has(txID) {
		return TxStatus{Status: Processing}, nil
	}
	status, err := vm.state.GetTxStatus(txID)
	switch {
	case err == nil:
		return status, nil
	case err != database.ErrNotFound:
		return TxStatus{}, err
	}
	for _, blk := range vm.verifiedBlocks {
		txIDs, err := blk.TxIDs()
		if err != nil {
			return TxStatus{}, err
		}
		for _, id := range txIDs {
			if id == txID {
				return TxStatus{Status: Processing}, nil
			}
		}
	}
	if status, ok := vm.dropped.Get(txID); ok {
		return status.(TxStatus), nil
	}
	return TxStatus{Status: Unknown}, nil
}

// checkNotIssued fails if [txID] was accepted or is in [issued].
func (vm *VM) checkNotIssued(txID ids.ID, issued ids.Set) error {
	if issued.Contains(txID) {
		return fmt.Errorf("%w: %s", errTxProcessing, txID)
	}
	status, err := vm.state.GetTxStatus(txID)
	switch {
	case err == database.ErrNotFound:
		return nil
	case err != nil:
		return err
	case status.Status == Accepted:
		return fmt.Errorf("%w: %s", errTxAlreadyAccepted, txID)
	}
	return nil
}

// processingTxIDs returns the IDs of the txs in [blk] and its processing
// ancestors. [blk] may be nil.
func processingTxIDs(blk *Block) (ids.Set, error) {
	issued := ids.Set{}
	for ; blk != nil; blk = blk.parent {
		txIDs, err := blk.TxIDs()
		if err != nil {
			return nil, err
		}
		issued.Add(txIDs...)
	}
	return issued, nil
}

// reissue returns the txs of the rejected [blk] to the mempool when the
// block had verified, and marks them dropped otherwise. Accepted txs are
// left alone.
func (vm *VM) reissue(blk *Block, verified bool) error {
	for _, tx := range blk.Txs {
		txID, err := TxID(tx)
		if err != nil {
			return err
		}
		if err := vm.checkNotIssued(txID, nil); err != nil {
			continue
		}
		if !verified {
			if !vm.mempool.Has(txID) {
				vm.dropped.Put(txID, TxStatus{Status: Dropped, Error: errBlockRejected.Error()})
			}
			continue
		}
		if err := vm.mempool.Add(txID, tx); err != nil && !errors.Is(err, errDuplicateTx) {
			vm.dropped.Put(txID, TxStatus{Status: Dropped, Error: err.Error()})
		}
	}
	vm.metrics.mempoolSize.Set(float64(vm.mempool.Len()))
	return nil
}

func (vm *VM) acceptedRegistry() *Registry {
	return NewRegistry(vm.genesis.Config, vm.state.Vehicles(), nil)
}

// HealthCheck reports the size of the mempool and the processing set.
func (vm *VM) HealthCheck(ctx context.Context) (interface{}, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	return map[string]interface{}{
		"mempool":    vm.mempool.Len(),
		"processing": len(vm.verifiedBlocks),
		"height":     vm.lastAccepted.Height(),
	}, nil
}

// Version returns the version of the VM.
func (vm *VM) Version(ctx context.Context) (string, error) {
	return Version, nil
}

// Shutdown is called when the node is shutting down.
func (vm *VM) Shutdown(ctx context.Context) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.state == nil {
		return nil
	}
	for _, blk := range vm.verifiedBlocks {
		blk.onAccept.Abort()
	}
	vm.verifiedBlocks = map[ids.ID]*Block{}
	return vm.state.Close()
}
