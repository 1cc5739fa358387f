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

// SingleMapBlock is a zero-allocation view of one map row.  entryStart and
// entryLength use doubled indexing: keys and values each occupy one logical
// slot per entry.  The view shares its backing block and has no lifecycle
// of its own.
type SingleMapBlock struct {
	base        *MapBlock
	entryStart  int
	entryLength int
}

// EntryCount returns the number of key-value pairs in the row.
func (s *SingleMapBlock) EntryCount() int {
	return s.entryLength / 2
}

// EntryOffset returns the absolute entry index the row starts at in the
// backing key/value columns.
func (s *SingleMapBlock) EntryOffset() int {
	return s.entryStart / 2
}

// Keys returns the shared, flattened key column of the backing block.
func (s *SingleMapBlock) Keys() Block {
	return s.base.keys
}

// Values returns the shared, flattened value column of the backing block.
func (s *SingleMapBlock) Values() Block {
	return s.base.values
}

// SeekKey looks up the key at keyPos in key within this row.  The first
// lookup on a backing block triggers the lazy hash-table build; later
// lookups reuse the published table.  Returns the absolute entry index into
// the backing value column, or -1 when the key is absent.
func (s *SingleMapBlock) SeekKey(key Block, keyPos int) (int, error) {
	if s.entryLength == 0 {
		return -1, nil
	}
	if err := s.base.ensureHashTablesBuilt(); err != nil {
		return -1, err
	}
	table := s.base.hashTables.Get()

	entryOffset := s.entryStart / 2
	tableStart := entryOffset * HashMultiplier
	tableSize := (s.entryLength / 2) * HashMultiplier

	ops := s.base.keyOps
	pos := int(ops.Hash(key, keyPos) % uint64(tableSize))
	for i := 0; i < tableSize; i++ {
		slot := table[tableStart+pos]
		if slot == -1 {
			return -1, nil
		}
		entry := entryOffset + int(slot)
		if ops.Equal(s.base.keys, entry, key, keyPos) {
			return entry, nil
		}
		pos++
		if pos == tableSize {
			pos = 0
		}
	}
	return -1, nil
}

// LinearProbeHashBuilder returns a build routine that fills each row's
// table by linear probing, storing row-relative entry indices.  When a row
// holds duplicate keys every duplicate gets its own slot and probing finds
// the one inserted first; producers guarantee distinct keys per row, so
// callers must not rely on that ordering.
func LinearProbeHashBuilder(ops KeyOps) HashBuildFn {
	return func(keys Block, offsets []int32, buildBase, rowCount int) []int32 {
		table := make([]int32, keys.PositionCount()*HashMultiplier)
		for i := range table {
			table[i] = -1
		}
		for row := 0; row < rowCount; row++ {
			startEntry := int(offsets[buildBase+row])
			endEntry := int(offsets[buildBase+row+1])
			tableStart := startEntry * HashMultiplier
			tableSize := (endEntry - startEntry) * HashMultiplier
			if tableSize == 0 {
				continue
			}
			for entry := startEntry; entry < endEntry; entry++ {
				pos := int(ops.Hash(keys, entry) % uint64(tableSize))
				for table[tableStart+pos] != -1 {
					pos++
					if pos == tableSize {
						pos = 0
					}
				}
				table[tableStart+pos] = int32(entry - startEntry)
			}
		}
		return table
	}
}
