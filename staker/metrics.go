// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/staker/reverts"
)

var (
	metricOperations   = metrics.LazyLoadCounterVec("staker_operations_count", []string{"op", "result"})
	metricSlashedNodes = metrics.LazyLoadCounter("staker_slashed_nodes_count")
	metricActiveNodes  = metrics.LazyLoadGauge("staker_active_nodes")
)

func recordOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if reverts.IsRevertErr(err) {
			result = "revert"
		}
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result})
}

func (s *Staker) refreshActiveNodes() {
	count, err := s.nodeService.ActiveCount()
	if err != nil {
		logger.Warn("failed to count active nodes", "error", err)
		return
	}
	metricActiveNodes().Set(int64(count))
}
