// Copyright 2023 The ColBase Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package block

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSingleMapBlockSeekKey(t *testing.T) {
	mb := makeMapFixture(t)

	row0, err := mb.RowView(0)
	require.NoError(t, err)
	require.Equal(t, 1, row0.EntryCount())
	require.Equal(t, 0, row0.EntryOffset())
	require.Equal(t, int64(1), valueAt(t, row0.Values(), seek(t, row0, "a")))
	require.Equal(t, -1, seek(t, row0, "b"))

	row2, err := mb.RowView(2)
	require.NoError(t, err)
	require.Equal(t, 2, row2.EntryCount())
	require.Equal(t, 1, row2.EntryOffset())
	require.Equal(t, int64(2), valueAt(t, row2.Values(), seek(t, row2, "b")))
	require.Equal(t, int64(3), valueAt(t, row2.Values(), seek(t, row2, "c")))
	require.Equal(t, -1, seek(t, row2, "z"))
}

func TestSingleMapBlockEmptyRow(t *testing.T) {
	mb := makeMapFixture(t)

	row1, err := mb.RowView(1)
	require.NoError(t, err)
	require.Equal(t, 0, row1.EntryCount())

	// An empty row answers without touching the index at all.
	require.Equal(t, -1, seek(t, row1, "a"))
	require.False(t, mb.IsHashTablesPresent())
}

func TestSingleMapBlockLazyBuild(t *testing.T) {
	mb := makeMapFixture(t)
	require.False(t, mb.IsHashTablesPresent())

	row0, err := mb.RowView(0)
	require.NoError(t, err)
	seek(t, row0, "a")
	require.True(t, mb.IsHashTablesPresent())

	// Repeated lookups reuse the published table and stay stable.
	for i := 0; i < 100; i++ {
		require.Equal(t, int64(1), valueAt(t, row0.Values(), seek(t, row0, "a")))
		require.Equal(t, -1, seek(t, row0, "c"))
	}
}

func TestSingleMapBlockSeekThroughRegion(t *testing.T) {
	mb := makeMapFixture(t)

	r, err := mb.Region(2, 1)
	require.NoError(t, err)
	region := r.(*MapBlock)

	row, err := region.RowView(0)
	require.NoError(t, err)
	require.Equal(t, int64(2), valueAt(t, row.Values(), seek(t, row, "b")))

	// The view built through the shared cell; the base sees it too.
	require.True(t, mb.IsHashTablesPresent())
	brow, err := mb.RowView(2)
	require.NoError(t, err)
	require.Equal(t, int64(3), valueAt(t, brow.Values(), seek(t, brow, "c")))
}

func TestLinearProbeHashBuilderLayout(t *testing.T) {
	mb := makeMapFixture(t)
	table := LinearProbeHashBuilder(mb.keyOps)(mb.keys, mb.offsets, 0, 3)
	require.Len(t, table, mb.keys.PositionCount()*HashMultiplier)

	// Row 0 owns slots [0, 2) and holds exactly entry 0.
	counts := map[int32]int{}
	for _, v := range table[0:2] {
		counts[v]++
	}
	require.Equal(t, map[int32]int{-1: 1, 0: 1}, counts)

	// Row 2 owns slots [2, 6) and holds its two entries row-relative.
	counts = map[int32]int{}
	for _, v := range table[2:6] {
		counts[v]++
	}
	require.Equal(t, map[int32]int{-1: 2, 0: 1, 1: 1}, counts)
}
