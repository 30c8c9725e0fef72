// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import "strconv"

// AgentIDKey renders an erc8004 identity token id as the string form
// used to join Feedback.AgentID against Wallet.Erc8004ID.
func AgentIDKey(erc8004ID int64) string {
	return strconv.FormatInt(erc8004ID, 10)
}
