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
	"github.com/colbase/colbase/pkg/common/cberr"
	"github.com/colbase/colbase/pkg/container/nulls"
	"github.com/colbase/colbase/pkg/logutil"
	"go.uber.org/zap"
)

// KeyOps is the key-type capability injected at construction.  The map
// block never interprets key bytes itself; hashing and equality are only
// invoked by the hash-table build routine and the row-view seek path.
type KeyOps struct {
	// Hash hashes the key at position in a key block.
	Hash func(keys Block, position int) uint64

	// Equal compares the key at position in keys against the key at
	// otherPosition in other.
	Equal func(keys Block, position int, other Block, otherPosition int) bool
}

// HashBuildFn computes the open-addressing tables for every row of the raw
// key block.  offsets[buildBase : buildBase+rowCount+1] delimits the rows;
// the result must be keys.PositionCount()*HashMultiplier long, with unused
// slots set to -1.  The tie-break policy for duplicate keys within a row
// belongs to the build routine; producers guarantee pairwise-distinct keys,
// so the core never depends on it.
type HashBuildFn func(keys Block, offsets []int32, buildBase, rowCount int) []int32

// MapBlock is the columnar container for a MAP-typed column.  Offsets are
// entry-based: if offsets[1] is 6, the first map has 6 key-value pairs, not
// 6 key/values.  Instances are immutable values except for the hash index's
// single absent-to-present transition; zero-copy views produced by Region
// share every backing array, including the hash index.
type MapBlock struct {
	offsetBase    int
	positionCount int

	// offsets is shared and absolute; this instance's rows start at
	// offsetBase.  len(offsets) >= offsetBase+positionCount+1.
	offsets []int32

	// mapIsNull is shared and indexed absolutely like offsets.
	// nil means no row can be null.
	mapIsNull *nulls.Nulls

	keys   Block
	values Block

	hashTables *HashTables

	keyOps  KeyOps
	buildFn HashBuildFn
}

// NewMapBlock assembles a finalized map block from builder output.  The
// builder guarantees offset monotonicity and the null-implies-empty
// invariant; only cheap structural checks happen here.
func NewMapBlock(
	offsetBase, positionCount int,
	mapIsNull *nulls.Nulls,
	offsets []int32,
	keys, values Block,
	keyOps KeyOps,
	buildFn HashBuildFn,
) (*MapBlock, error) {
	if positionCount < 0 || offsetBase < 0 {
		return nil, cberr.NewInvalidArgNoCtx("map block position count", positionCount)
	}
	if len(offsets) < offsetBase+positionCount+1 {
		return nil, cberr.NewInvalidArgNoCtx("map block offsets length", len(offsets))
	}
	if keys == nil || values == nil {
		return nil, cberr.NewInvalidArgNoCtx("map block child", nil)
	}
	if keys.PositionCount() != values.PositionCount() {
		return nil, cberr.NewInvalidStateNoCtx(
			"key count %d does not match value count %d",
			keys.PositionCount(), values.PositionCount())
	}
	ht, err := newHashTables(nil, offsetBase, positionCount,
		keys.PositionCount()*HashMultiplier)
	if err != nil {
		return nil, err
	}
	return newMapBlockInternal(offsetBase, positionCount, mapIsNull, offsets,
		keys, values, ht, keyOps, buildFn), nil
}

func newMapBlockInternal(
	offsetBase, positionCount int,
	mapIsNull *nulls.Nulls,
	offsets []int32,
	keys, values Block,
	hashTables *HashTables,
	keyOps KeyOps,
	buildFn HashBuildFn,
) *MapBlock {
	return &MapBlock{
		offsetBase:    offsetBase,
		positionCount: positionCount,
		offsets:       offsets,
		mapIsNull:     mapIsNull,
		keys:          keys,
		values:        values,
		hashTables:    hashTables,
		keyOps:        keyOps,
		buildFn:       buildFn,
	}
}

func (m *MapBlock) PositionCount() int {
	return m.positionCount
}

func (m *MapBlock) OffsetBase() int {
	return m.offsetBase
}

// RawKeys returns the shared, flattened key column.
func (m *MapBlock) RawKeys() Block {
	return m.keys
}

// RawValues returns the shared, flattened value column.
func (m *MapBlock) RawValues() Block {
	return m.values
}

func (m *MapBlock) Encoding() string {
	return MapEncodingName
}

// GetOffset returns the entry-based offset of row position.  position may be
// positionCount, addressing the end of the last row.
func (m *MapBlock) GetOffset(position int) (int32, error) {
	if position < 0 || position > m.positionCount {
		return 0, cberr.NewInvalidArgNoCtx("map block position", position)
	}
	return m.getOffset(position), nil
}

func (m *MapBlock) getOffset(position int) int32 {
	return m.offsets[position+m.offsetBase]
}

func (m *MapBlock) MayHaveNull() bool {
	return m.mapIsNull != nil
}

func (m *MapBlock) IsNull(position int) (bool, error) {
	if err := checkReadablePosition(m, position); err != nil {
		return false, err
	}
	return nulls.Contains(m.mapIsNull, uint64(position+m.offsetBase)), nil
}

// IsNullUnchecked is the fast-path null check.  internalPosition is
// absolute (offsetBase already applied) and must be in range; violating the
// precondition is undefined behavior, not a recoverable error.
func (m *MapBlock) IsNullUnchecked(internalPosition int) bool {
	return nulls.Contains(m.mapIsNull, uint64(internalPosition))
}

// Region returns a zero-copy view: all backing arrays are shared, only the
// offset base and row count change.  The hash index reference is shared
// unchanged since it addresses the full entry space by absolute index.
func (m *MapBlock) Region(position, length int) (Block, error) {
	if err := checkValidRegion(m.positionCount, position, length); err != nil {
		return nil, err
	}
	return newMapBlockInternal(m.offsetBase+position, length, m.mapIsNull,
		m.offsets, m.keys, m.values, m.hashTables, m.keyOps, m.buildFn), nil
}

// CopyRegion physically compacts [position, position+length) into fresh,
// exclusively-owned storage.  When nothing would change it returns the
// receiver itself.
func (m *MapBlock) CopyRegion(position, length int) (Block, error) {
	if err := checkValidRegion(m.positionCount, position, length); err != nil {
		return nil, err
	}

	startEntry := int(m.getOffset(position))
	endEntry := int(m.getOffset(position + length))
	entryCount := endEntry - startEntry

	newKeys, err := m.keys.CopyRegion(startEntry, entryCount)
	if err != nil {
		return nil, err
	}
	newValues, err := m.values.CopyRegion(startEntry, entryCount)
	if err != nil {
		return nil, err
	}

	base := position + m.offsetBase
	newOffsets := compactOffsets(m.offsets, base, length)

	newNulls := m.mapIsNull
	if m.mapIsNull != nil && !(base == 0 && length+1 == len(m.offsets)) {
		newNulls = nulls.Range(m.mapIsNull, uint64(base), uint64(base+length),
			uint64(base), &nulls.Nulls{})
	}

	raw := m.hashTables.Get()
	expectedEntries := entryCount * HashMultiplier
	var newRaw []int32
	if raw != nil {
		newRaw = compactSlice(raw, startEntry*HashMultiplier, expectedEntries)
	}

	if newKeys == m.keys && newValues == m.values &&
		sameSlice(newOffsets, m.offsets) && newNulls == m.mapIsNull &&
		sameSlice(newRaw, raw) {
		return m, nil
	}

	ht, err := newHashTables(newRaw, 0, length, expectedEntries)
	if err != nil {
		return nil, err
	}
	return newMapBlockInternal(0, length, newNulls, newOffsets,
		newKeys, newValues, ht, m.keyOps, m.buildFn), nil
}

// CopyPositions gathers the selected rows, in order, duplicates allowed.
// Cost is O(length + total selected entries); this is the operation for
// reordering, deduplicating or filtering rows, a superset of CopyRegion.
func (m *MapBlock) CopyPositions(positions []int, offset, length int) (Block, error) {
	if err := checkArrayRange(len(positions), offset, length); err != nil {
		return nil, err
	}

	newOffsets := make([]int32, length+1)
	newNulls := nulls.New()
	var entriesPositions []int

	newPosition := 0
	for i := offset; i < offset+length; i++ {
		position := positions[i]
		isNull, err := m.IsNull(position)
		if err != nil {
			return nil, err
		}
		if isNull {
			nulls.Add(newNulls, uint64(newPosition))
			newOffsets[newPosition+1] = newOffsets[newPosition]
		} else {
			startEntry := m.getOffset(position)
			endEntry := m.getOffset(position + 1)
			newOffsets[newPosition+1] = newOffsets[newPosition] + endEntry - startEntry
			for e := startEntry; e < endEntry; e++ {
				entriesPositions = append(entriesPositions, int(e))
			}
		}
		newPosition++
	}

	raw := m.hashTables.Get()
	newEntries := int(newOffsets[length]) * HashMultiplier
	var newRaw []int32
	if raw != nil {
		newRaw = make([]int32, newEntries)
		idx := 0
		for i := offset; i < offset+length; i++ {
			position := positions[i]
			startEntry := int(m.getOffset(position))
			endEntry := int(m.getOffset(position + 1))
			for h := startEntry * HashMultiplier; h < endEntry*HashMultiplier; h++ {
				newRaw[idx] = raw[h]
				idx++
			}
		}
	}

	newKeys, err := m.keys.CopyPositions(entriesPositions, 0, len(entriesPositions))
	if err != nil {
		return nil, err
	}
	newValues, err := m.values.CopyPositions(entriesPositions, 0, len(entriesPositions))
	if err != nil {
		return nil, err
	}
	ht, err := newHashTables(newRaw, 0, length, newEntries)
	if err != nil {
		return nil, err
	}
	return newMapBlockInternal(0, length, newNulls, newOffsets,
		newKeys, newValues, ht, m.keyOps, m.buildFn), nil
}

// GetSingleValueBlock extracts one row into a new, independent one-row map
// block, used when a scalar consumer needs a standalone map value detached
// from the batch.
func (m *MapBlock) GetSingleValueBlock(position int) (Block, error) {
	if err := checkReadablePosition(m, position); err != nil {
		return nil, err
	}

	startEntry := int(m.getOffset(position))
	endEntry := int(m.getOffset(position + 1))
	entryCount := endEntry - startEntry

	newKeys, err := m.keys.CopyRegion(startEntry, entryCount)
	if err != nil {
		return nil, err
	}
	newValues, err := m.values.CopyRegion(startEntry, entryCount)
	if err != nil {
		return nil, err
	}

	raw := m.hashTables.Get()
	expectedEntries := entryCount * HashMultiplier
	var newRaw []int32
	if raw != nil {
		newRaw = make([]int32, expectedEntries)
		copy(newRaw, raw[startEntry*HashMultiplier:endEntry*HashMultiplier])
	}

	newNulls := nulls.New()
	if nulls.Contains(m.mapIsNull, uint64(position+m.offsetBase)) {
		nulls.Add(newNulls, 0)
	}

	ht, err := newHashTables(newRaw, 0, 1, expectedEntries)
	if err != nil {
		return nil, err
	}
	return newMapBlockInternal(0, 1, newNulls, []int32{0, int32(entryCount)},
		newKeys, newValues, ht, m.keyOps, m.buildFn), nil
}

// EstimatedDataSizeForStats sums the children's per-entry estimates over
// the row's entry range; null rows cost zero.
func (m *MapBlock) EstimatedDataSizeForStats(position int) (int64, error) {
	isNull, err := m.IsNull(position)
	if err != nil {
		return 0, err
	}
	if isNull {
		return 0, nil
	}

	startEntry := int(m.getOffset(position))
	endEntry := int(m.getOffset(position + 1))

	var size int64
	for i := startEntry; i < endEntry; i++ {
		ks, err := m.keys.EstimatedDataSizeForStats(i)
		if err != nil {
			return 0, err
		}
		vs, err := m.values.EstimatedDataSizeForStats(i)
		if err != nil {
			return 0, err
		}
		size += ks + vs
	}
	return size, nil
}

// RegionSizeInBytes accounts one offset integer and one null-flag byte per
// row, and HashMultiplier index integers per entry whether or not the hash
// table is currently built, since it may be built later.
func (m *MapBlock) RegionSizeInBytes(position, length int) (int64, error) {
	if err := checkValidRegion(m.positionCount, position, length); err != nil {
		return 0, err
	}

	startEntry := int(m.offsets[m.offsetBase+position])
	endEntry := int(m.offsets[m.offsetBase+position+length])
	entryCount := endEntry - startEntry

	ks, err := m.keys.RegionSizeInBytes(startEntry, entryCount)
	if err != nil {
		return 0, err
	}
	vs, err := m.values.RegionSizeInBytes(startEntry, entryCount)
	if err != nil {
		return 0, err
	}
	return ks + vs +
		(4+1)*int64(length) +
		4*HashMultiplier*int64(entryCount) +
		m.hashTables.InstanceSizeInBytes(), nil
}

// PositionsSizeInBytes resolves the row mask into an entry mask and defers
// to the children's own positions-size queries.
func (m *MapBlock) PositionsSizeInBytes(mask []bool) (int64, error) {
	if err := checkValidPositions(mask, m.positionCount); err != nil {
		return 0, err
	}

	entryMask := make([]bool, m.keys.PositionCount())
	usedEntryCount := 0
	usedPositionCount := 0
	for i, selected := range mask {
		if !selected {
			continue
		}
		usedPositionCount++
		startEntry := int(m.offsets[m.offsetBase+i])
		endEntry := int(m.offsets[m.offsetBase+i+1])
		for j := startEntry; j < endEntry; j++ {
			entryMask[j] = true
		}
		usedEntryCount += endEntry - startEntry
	}

	ks, err := m.keys.PositionsSizeInBytes(entryMask)
	if err != nil {
		return 0, err
	}
	vs, err := m.values.PositionsSizeInBytes(entryMask)
	if err != nil {
		return 0, err
	}
	return ks + vs +
		(4+1)*int64(usedPositionCount) +
		4*HashMultiplier*int64(usedEntryCount) +
		m.hashTables.InstanceSizeInBytes(), nil
}

// RowView exposes row position as a standalone single-map container over
// the doubled entry range; keys and values each occupy one logical slot per
// entry, hence the factor of two.
func (m *MapBlock) RowView(position int) (*SingleMapBlock, error) {
	if err := checkReadablePosition(m, position); err != nil {
		return nil, err
	}
	startEntry := int(m.getOffset(position))
	endEntry := int(m.getOffset(position + 1))
	return &SingleMapBlock{
		base:        m,
		entryStart:  startEntry * 2,
		entryLength: (endEntry - startEntry) * 2,
	}, nil
}

// RowViewUnchecked is the fast-path variant of RowView.  internalPosition
// is absolute (offsetBase already applied) and must be in range; violating
// the precondition is undefined behavior, not a recoverable error.
func (m *MapBlock) RowViewUnchecked(internalPosition int) *SingleMapBlock {
	startEntry := int(m.offsets[internalPosition])
	endEntry := int(m.offsets[internalPosition+1])
	return &SingleMapBlock{
		base:        m,
		entryStart:  startEntry * 2,
		entryLength: (endEntry - startEntry) * 2,
	}
}

// WriteRowTo serializes the row's structure into a row-builder collaborator.
func (m *MapBlock) WriteRowTo(position int, target RowTarget) error {
	if err := checkReadablePosition(m, position); err != nil {
		return err
	}
	return target.AppendStructure(m, position)
}

// IsHashTablesPresent reports whether the lazy hash index has been built or
// seeded.
func (m *MapBlock) IsHashTablesPresent() bool {
	return m.hashTables.Get() != nil
}

// HashTables returns the shared hash-index cell.
func (m *MapBlock) HashTables() *HashTables {
	return m.hashTables
}

func (m *MapBlock) ensureHashTablesBuilt() error {
	if m.hashTables.Get() != nil {
		return nil
	}
	if m.buildFn == nil {
		return cberr.NewInvalidStateNoCtx("no hash build routine bound to map block")
	}
	return m.hashTables.EnsureBuilt(func() []int32 {
		logutil.Debug("building map hash tables",
			zap.Int("rows", m.hashTables.expectedRowCount),
			zap.Int("entries", m.hashTables.expectedEntryCount))
		return m.buildFn(m.keys, m.offsets,
			m.hashTables.buildBase, m.hashTables.expectedRowCount)
	})
}
