// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package aggregator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wallettrust/core/internal/store"
)

type fakeQueryer struct {
	counterparties []store.CounterpartyRow
	volumes        []store.VolumeRow
	feedback       []store.FeedbackRow
	roles          []store.RoleRow
}

func (f fakeQueryer) CounterpartyStats() ([]store.CounterpartyRow, error) { return f.counterparties, nil }
func (f fakeQueryer) VolumeStats() ([]store.VolumeRow, error)             { return f.volumes, nil }
func (f fakeQueryer) FeedbackStats() ([]store.FeedbackRow, error)        { return f.feedback, nil }
func (f fakeQueryer) RoleStats() ([]store.RoleRow, error)                { return f.roles, nil }

func TestRunMergesAllFourPasses(t *testing.T) {
	q := fakeQueryer{
		counterparties: []store.CounterpartyRow{{Address: "0xabc", UniqueCounterparties: 5}},
		volumes:        []store.VolumeRow{{Address: "0xabc", TotalVolumeUSDC: "1000.000000", VolumeCounterparties: 5}},
		feedback:       []store.FeedbackRow{{AgentID: "7", FeedbackCount: 10, AvgValue: 4.0}},
		roles:          []store.RoleRow{{Address: "0xabc", EverPayer: true, EverRecipient: false}},
	}

	agg, err := Run(q)
	require.NoError(t, err)

	sig := agg.ByAddress["0xabc"]
	require.Equal(t, 5, sig.UniqueCounterparties)
	require.Equal(t, 5, sig.VolumeCounterparties)
	require.InDelta(t, 1000.0, sig.TotalVolumeUSDC, 0.001)
	require.True(t, sig.EverPayer)
	require.False(t, sig.EverRecipient)

	role := sig.Role()
	require.NotNil(t, role)
	require.Equal(t, store.RoleBuyer, *role)

	fb := agg.ByAgentID["7"]
	require.Equal(t, 10, fb.FeedbackCount)
	require.NotNil(t, fb.AvgFeedback)
	require.InDelta(t, 4.0, *fb.AvgFeedback, 0.001)
}

func TestRoleBothWhenPayerAndRecipient(t *testing.T) {
	s := Signals{EverPayer: true, EverRecipient: true}
	role := s.Role()
	require.NotNil(t, role)
	require.Equal(t, store.RoleBoth, *role)
}

func TestRoleNilWhenNeither(t *testing.T) {
	s := Signals{}
	require.Nil(t, s.Role())
}
