// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package chain

import "github.com/ethereum/go-ethereum/common"

// Canonical topic0 hashes for the three events the indexer filters on.
// Declared as constants rather than computed from an ABI JSON at
// runtime: they never change and every scanner needs them at startup.
var (
	// TransferTopic is keccak256("Transfer(address,address,uint256)"),
	// used both for identity-registry mints (ERC-721 shape) and USDC
	// ERC-20 transfers.
	TransferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

	// NewFeedbackTopic is keccak256 of the reputation registry's
	// NewFeedback event signature.
	NewFeedbackTopic = common.HexToHash("0x3512671112f032bf38a60da1f53ab4b7bc42a01c4202a217fb286ca3beb78436")

	// AuthorizationUsedTopic is keccak256 of
	// AuthorizationUsed(address,bytes32) on the USDC contract.
	AuthorizationUsedTopic = common.HexToHash("0x98de503528ee59b575ef0c0a2576a82497bfc029a5685b209e9ec333479b10a5")

	// ZeroAddress is the canonical mint-from address.
	ZeroAddress = common.Address{}
)
