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

// Package block holds the columnar containers handed between execution
// operators.  A Block is an immutable column of values; Region produces
// zero-copy views over shared storage, while CopyRegion, CopyPositions and
// GetSingleValueBlock always produce exclusively-owned storage.
package block

import (
	"github.com/colbase/colbase/pkg/common/cberr"
)

// Encoding tags.  The serialization layer selects a (de)serializer by this
// name; the wire formats themselves live outside this package.
const (
	MapEncodingName           = "MAP"
	Int64ArrayEncodingName    = "INT64_ARRAY"
	VariableWidthEncodingName = "VARIABLE_WIDTH"
)

// Block is the capability every column-shaped value implements.
type Block interface {
	// PositionCount returns the number of rows visible through this block.
	PositionCount() int

	// MayHaveNull returns true iff a null map is present.  A false return
	// guarantees no row is null.
	MayHaveNull() bool

	// IsNull reports whether the row at position is null.
	IsNull(position int) (bool, error)

	// Region returns a zero-copy view of [position, position+length).
	Region(position, length int) (Block, error)

	// CopyRegion returns a compacted copy of [position, position+length)
	// backed by fresh storage.  When nothing would change it may return
	// the receiver itself.
	CopyRegion(position, length int) (Block, error)

	// CopyPositions gathers the rows selected by positions[offset:offset+length]
	// (arbitrary order, duplicates allowed) into a new block.
	CopyPositions(positions []int, offset, length int) (Block, error)

	// GetSingleValueBlock extracts one row into a new one-row block that is
	// independent of the receiver's storage.
	GetSingleValueBlock(position int) (Block, error)

	// RegionSizeInBytes approximates the retained memory cost of a region.
	// It must never under-report.
	RegionSizeInBytes(position, length int) (int64, error)

	// PositionsSizeInBytes approximates the retained memory cost of the
	// rows selected by the mask, which must have PositionCount entries.
	PositionsSizeInBytes(mask []bool) (int64, error)

	// EstimatedDataSizeForStats returns the logical data size of one row,
	// used for cardinality statistics rather than memory accounting.
	EstimatedDataSizeForStats(position int) (int64, error)

	// Encoding returns the tag identifying the block's serialized form.
	Encoding() string
}

// RowTarget is the row-builder collaborator a block row can be written to.
// Builders live outside this package; only the boundary is specified here.
type RowTarget interface {
	AppendStructure(b Block, position int) error
}

func checkReadablePosition(b Block, position int) error {
	if position < 0 || position >= b.PositionCount() {
		return cberr.NewInvalidArgNoCtx("block position", position)
	}
	return nil
}

func checkValidRegion(positionCount, position, length int) error {
	if position < 0 || length < 0 || position+length > positionCount {
		return cberr.NewInvalidArgNoCtx("block region",
			[2]int{position, length})
	}
	return nil
}

func checkArrayRange(n, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > n {
		return cberr.NewInvalidArgNoCtx("array range", [2]int{offset, length})
	}
	return nil
}

func checkValidPositions(mask []bool, positionCount int) error {
	if len(mask) != positionCount {
		return cberr.NewInvalidArgNoCtx("positions mask length", len(mask))
	}
	return nil
}

// compactSlice copies a[index : index+length] into fresh storage, or returns
// a itself when the range already spans the whole slice.  Returning the
// input unchanged is what lets CopyRegion short-circuit to the receiver.
func compactSlice[T any](a []T, index, length int) []T {
	if index == 0 && length == len(a) {
		return a
	}
	out := make([]T, length)
	copy(out, a[index:index+length])
	return out
}

// compactOffsets re-bases offsets[index : index+length+1] at zero, or
// returns offsets itself when it is already zero-based and fully used.
func compactOffsets(offsets []int32, index, length int) []int32 {
	if index == 0 && len(offsets) == length+1 && offsets[0] == 0 {
		return offsets
	}
	out := make([]int32, length+1)
	base := offsets[index]
	for i := 1; i <= length; i++ {
		out[i] = offsets[index+i] - base
	}
	return out
}

// sameSlice reports whether two slices share the same backing range.
func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
