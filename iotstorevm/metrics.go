// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	txsAccepted    *prometheus.CounterVec
	txsDropped     *prometheus.CounterVec
	blocksAccepted prometheus.Counter
	blocksRejected prometheus.Counter
	vehicles       prometheus.Gauge
	mempoolSize    prometheus.Gauge
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		txsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_accepted",
			Help:      "Number of accepted transactions by kind",
		}, []string{"kind"}),
		txsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_dropped",
			Help:      "Number of transactions dropped during block building by kind",
		}, []string{"kind"}),
		blocksAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_accepted",
			Help:      "Number of accepted blocks",
		}),
		blocksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_rejected",
			Help:      "Number of rejected blocks",
		}),
		vehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vehicles",
			Help:      "Number of vehicles in the accepted registry",
		}),
		mempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mempool_size",
			Help:      "Number of transactions waiting in the mempool",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.txsAccepted),
		registerer.Register(m.txsDropped),
		registerer.Register(m.blocksAccepted),
		registerer.Register(m.blocksRejected),
		registerer.Register(m.vehicles),
		registerer.Register(m.mempoolSize),
	)
	return m, errs.Err
}
