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
	"sync/atomic"
	"unsafe"

	"github.com/colbase/colbase/pkg/common/cberr"
	"github.com/colbase/colbase/pkg/logutil"
	"go.uber.org/zap"
)

// HashMultiplier is the inverse of the hash fill ratio, must be an integer.
// Every per-row hash table is sized at HashMultiplier times the row's entry
// count.
const HashMultiplier = 2

// HashTables is the lazily built per-row hash index of a map block.  It is
// shared by reference across every view derived by Region, so the single
// absent-to-present transition must publish the table atomically: a reader
// that observes a non-nil table sees it fully formed.  Blocks still owned by
// a single-writer builder get no contention and pay only the atomic store.
type HashTables struct {
	tables atomic.Pointer[[]int32]

	// buildBase is the offset-table index the constructing block starts at;
	// build routines resolve rows through it.
	buildBase int

	// expectedRowCount is the number of rows the index logically covers.
	expectedRowCount int

	// expectedEntryCount is the table length as if always built.  It feeds
	// retained-size accounting even while the table is absent.
	expectedEntryCount int
}

// newHashTables seeds the cell.  tables may be nil (absent).  A non-nil
// table whose length mismatches expectedEntryCount is an upstream defect.
func newHashTables(tables []int32, buildBase, expectedRowCount, expectedEntryCount int) (*HashTables, error) {
	if tables != nil && len(tables) != expectedEntryCount {
		logutil.Error("hash tables size does not match expected entry count",
			zap.Int("got", len(tables)), zap.Int("want", expectedEntryCount))
		return nil, cberr.NewInvalidStateNoCtx(
			"hash tables size %d does not match expected entry count %d",
			len(tables), expectedEntryCount)
	}
	ht := &HashTables{
		buildBase:          buildBase,
		expectedRowCount:   expectedRowCount,
		expectedEntryCount: expectedEntryCount,
	}
	if tables != nil {
		ht.tables.Store(&tables)
	}
	return ht, nil
}

// Get returns the table, or nil while the index is absent.  Safe from any
// thread at any time.
func (ht *HashTables) Get() []int32 {
	p := ht.tables.Load()
	if p == nil {
		return nil
	}
	return *p
}

// ExpectedRowCount returns the number of rows the index logically covers.
func (ht *HashTables) ExpectedRowCount() int {
	return ht.expectedRowCount
}

// EnsureBuilt runs build once if the index is absent and publishes the
// result.  Concurrent callers may each run build redundantly; building is a
// pure function of the immutable block state, so publishing an equivalent
// table twice is harmless.  The built table must be exactly
// expectedEntryCount long.
func (ht *HashTables) EnsureBuilt(build func() []int32) error {
	if ht.tables.Load() != nil {
		return nil
	}
	tables := build()
	if len(tables) != ht.expectedEntryCount {
		logutil.Error("built hash tables have wrong length",
			zap.Int("got", len(tables)), zap.Int("want", ht.expectedEntryCount))
		return cberr.NewInvalidStateNoCtx(
			"built hash tables length %d, expected %d",
			len(tables), ht.expectedEntryCount)
	}
	ht.tables.Store(&tables)
	return nil
}

// Set seeds the index with a table an independent copy operation already
// derived.  The table is always sized as if fully built, so the expected
// entry count is adopted from it.
func (ht *HashTables) Set(tables []int32) {
	ht.expectedEntryCount = len(tables)
	ht.tables.Store(&tables)
}

// InstanceSizeInBytes is the fixed overhead of the cell itself.
func (ht *HashTables) InstanceSizeInBytes() int64 {
	return int64(unsafe.Sizeof(HashTables{}))
}

// RetainedSizeInBytes accounts the table at its expected size whether or not
// it has been built, so memory-limit enforcement never under-reports.
func (ht *HashTables) RetainedSizeInBytes() int64 {
	return ht.InstanceSizeInBytes() + int64(ht.expectedEntryCount)*4
}
