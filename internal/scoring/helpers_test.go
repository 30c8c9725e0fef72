// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package scoring

import "time"

func timeNow() time.Time { return time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC) }

func timeDaysAgo(days int) time.Time {
	return timeNow().Add(-time.Duration(days) * 24 * time.Hour)
}
