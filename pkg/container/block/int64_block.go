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
	"github.com/colbase/colbase/pkg/container/nulls"
)

// Int64Block is a fixed-width column of 64-bit integers.
type Int64Block struct {
	arrayOffset   int
	positionCount int
	values        []int64
	nsp           *nulls.Nulls
}

func NewInt64Block(values []int64, nsp *nulls.Nulls) *Int64Block {
	return &Int64Block{
		positionCount: len(values),
		values:        values,
		nsp:           nsp,
	}
}

func (b *Int64Block) PositionCount() int {
	return b.positionCount
}

func (b *Int64Block) Encoding() string {
	return Int64ArrayEncodingName
}

func (b *Int64Block) MayHaveNull() bool {
	return b.nsp != nil
}

func (b *Int64Block) IsNull(position int) (bool, error) {
	if err := checkReadablePosition(b, position); err != nil {
		return false, err
	}
	return nulls.Contains(b.nsp, uint64(position+b.arrayOffset)), nil
}

func (b *Int64Block) Int64At(position int) (int64, error) {
	if err := checkReadablePosition(b, position); err != nil {
		return 0, err
	}
	return b.values[position+b.arrayOffset], nil
}

func (b *Int64Block) Region(position, length int) (Block, error) {
	if err := checkValidRegion(b.positionCount, position, length); err != nil {
		return nil, err
	}
	return &Int64Block{
		arrayOffset:   b.arrayOffset + position,
		positionCount: length,
		values:        b.values,
		nsp:           b.nsp,
	}, nil
}

func (b *Int64Block) CopyRegion(position, length int) (Block, error) {
	if err := checkValidRegion(b.positionCount, position, length); err != nil {
		return nil, err
	}
	base := position + b.arrayOffset
	newValues := compactSlice(b.values, base, length)

	newNulls := b.nsp
	if b.nsp != nil && !(base == 0 && length == len(b.values)) {
		newNulls = nulls.Range(b.nsp, uint64(base), uint64(base+length),
			uint64(base), &nulls.Nulls{})
	}

	if sameSlice(newValues, b.values) && newNulls == b.nsp {
		return b, nil
	}
	return &Int64Block{
		positionCount: length,
		values:        newValues,
		nsp:           newNulls,
	}, nil
}

func (b *Int64Block) CopyPositions(positions []int, offset, length int) (Block, error) {
	if err := checkArrayRange(len(positions), offset, length); err != nil {
		return nil, err
	}
	newValues := make([]int64, length)
	newNulls := nulls.New()
	for i := 0; i < length; i++ {
		position := positions[offset+i]
		isNull, err := b.IsNull(position)
		if err != nil {
			return nil, err
		}
		if isNull {
			nulls.Add(newNulls, uint64(i))
		} else {
			newValues[i] = b.values[position+b.arrayOffset]
		}
	}
	return &Int64Block{
		positionCount: length,
		values:        newValues,
		nsp:           newNulls,
	}, nil
}

func (b *Int64Block) GetSingleValueBlock(position int) (Block, error) {
	return b.CopyPositions([]int{position}, 0, 1)
}

func (b *Int64Block) RegionSizeInBytes(position, length int) (int64, error) {
	if err := checkValidRegion(b.positionCount, position, length); err != nil {
		return 0, err
	}
	return (8 + 1) * int64(length), nil
}

func (b *Int64Block) PositionsSizeInBytes(mask []bool) (int64, error) {
	if err := checkValidPositions(mask, b.positionCount); err != nil {
		return 0, err
	}
	used := 0
	for _, selected := range mask {
		if selected {
			used++
		}
	}
	return (8 + 1) * int64(used), nil
}

func (b *Int64Block) EstimatedDataSizeForStats(position int) (int64, error) {
	isNull, err := b.IsNull(position)
	if err != nil {
		return 0, err
	}
	if isNull {
		return 0, nil
	}
	return 8, nil
}
