// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package budget

// methodCosts maps a JSON-RPC method name to its compute-unit cost.
// Unknown methods fall back to defaultCost, a conservative estimate.
var methodCosts = map[string]int{
	"eth_blockNumber":             10,
	"eth_getLogs":                 75,
	"eth_getTransactionReceipt":   15,
	"eth_getTransactionByHash":    15,
	"eth_getBlockByNumber":        15,
	"eth_call":                    26,
	"eth_getBalance":              10,
	"eth_getTransactionCount":     10,
}

const defaultCost = 20

// CostOf returns the configured cost for method, or the conservative
// default if the method is not in the table.
func CostOf(method string) int {
	if c, ok := methodCosts[method]; ok {
		return c
	}
	return defaultCost
}
