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
)

// BytesBlock is a variable-width column.  Values are flattened into data;
// offsets is byte-based with positionCount+1 used entries, so value i spans
// data[offsets[arrayOffset+i] : offsets[arrayOffset+i+1]].
type BytesBlock struct {
	arrayOffset   int
	positionCount int
	offsets       []int32
	data          []byte
	nsp           *nulls.Nulls
}

func NewBytesBlock(data []byte, offsets []int32, nsp *nulls.Nulls) (*BytesBlock, error) {
	if len(offsets) == 0 {
		return nil, cberr.NewInvalidArgNoCtx("bytes block offsets length", 0)
	}
	return &BytesBlock{
		positionCount: len(offsets) - 1,
		offsets:       offsets,
		data:          data,
		nsp:           nsp,
	}, nil
}

// NewBytesBlockFromValues flattens discrete values into a fresh block.
// A nil element marks a null row.
func NewBytesBlockFromValues(values [][]byte) *BytesBlock {
	offsets := make([]int32, len(values)+1)
	var data []byte
	var nsp *nulls.Nulls
	for i, v := range values {
		if v == nil {
			if nsp == nil {
				nsp = nulls.New()
			}
			nulls.Add(nsp, uint64(i))
		}
		data = append(data, v...)
		offsets[i+1] = int32(len(data))
	}
	return &BytesBlock{
		positionCount: len(values),
		offsets:       offsets,
		data:          data,
		nsp:           nsp,
	}
}

func (b *BytesBlock) PositionCount() int {
	return b.positionCount
}

func (b *BytesBlock) Encoding() string {
	return VariableWidthEncodingName
}

func (b *BytesBlock) MayHaveNull() bool {
	return b.nsp != nil
}

func (b *BytesBlock) IsNull(position int) (bool, error) {
	if err := checkReadablePosition(b, position); err != nil {
		return false, err
	}
	return nulls.Contains(b.nsp, uint64(position+b.arrayOffset)), nil
}

// BytesAt returns the value at position without copying; callers must not
// mutate the result.
func (b *BytesBlock) BytesAt(position int) ([]byte, error) {
	if err := checkReadablePosition(b, position); err != nil {
		return nil, err
	}
	start := b.offsets[position+b.arrayOffset]
	end := b.offsets[position+b.arrayOffset+1]
	return b.data[start:end], nil
}

func (b *BytesBlock) Region(position, length int) (Block, error) {
	if err := checkValidRegion(b.positionCount, position, length); err != nil {
		return nil, err
	}
	return &BytesBlock{
		arrayOffset:   b.arrayOffset + position,
		positionCount: length,
		offsets:       b.offsets,
		data:          b.data,
		nsp:           b.nsp,
	}, nil
}

func (b *BytesBlock) CopyRegion(position, length int) (Block, error) {
	if err := checkValidRegion(b.positionCount, position, length); err != nil {
		return nil, err
	}
	base := position + b.arrayOffset
	dataStart := int(b.offsets[base])
	dataEnd := int(b.offsets[base+length])

	newData := compactSlice(b.data, dataStart, dataEnd-dataStart)
	newOffsets := compactOffsets(b.offsets, base, length)

	newNulls := b.nsp
	if b.nsp != nil && !(base == 0 && length+1 == len(b.offsets)) {
		newNulls = nulls.Range(b.nsp, uint64(base), uint64(base+length),
			uint64(base), &nulls.Nulls{})
	}

	if sameSlice(newData, b.data) && sameSlice(newOffsets, b.offsets) &&
		newNulls == b.nsp {
		return b, nil
	}
	return &BytesBlock{
		positionCount: length,
		offsets:       newOffsets,
		data:          newData,
		nsp:           newNulls,
	}, nil
}

func (b *BytesBlock) CopyPositions(positions []int, offset, length int) (Block, error) {
	if err := checkArrayRange(len(positions), offset, length); err != nil {
		return nil, err
	}
	newOffsets := make([]int32, length+1)
	var newData []byte
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
			start := b.offsets[position+b.arrayOffset]
			end := b.offsets[position+b.arrayOffset+1]
			newData = append(newData, b.data[start:end]...)
		}
		newOffsets[i+1] = int32(len(newData))
	}
	return &BytesBlock{
		positionCount: length,
		offsets:       newOffsets,
		data:          newData,
		nsp:           newNulls,
	}, nil
}

func (b *BytesBlock) GetSingleValueBlock(position int) (Block, error) {
	return b.CopyPositions([]int{position}, 0, 1)
}

func (b *BytesBlock) RegionSizeInBytes(position, length int) (int64, error) {
	if err := checkValidRegion(b.positionCount, position, length); err != nil {
		return 0, err
	}
	base := position + b.arrayOffset
	byteCount := int64(b.offsets[base+length] - b.offsets[base])
	return byteCount + (4+1)*int64(length), nil
}

func (b *BytesBlock) PositionsSizeInBytes(mask []bool) (int64, error) {
	if err := checkValidPositions(mask, b.positionCount); err != nil {
		return 0, err
	}
	var byteCount int64
	used := 0
	for i, selected := range mask {
		if !selected {
			continue
		}
		used++
		base := i + b.arrayOffset
		byteCount += int64(b.offsets[base+1] - b.offsets[base])
	}
	return byteCount + (4+1)*int64(used), nil
}

func (b *BytesBlock) EstimatedDataSizeForStats(position int) (int64, error) {
	isNull, err := b.IsNull(position)
	if err != nil {
		return 0, err
	}
	if isNull {
		return 0, nil
	}
	base := position + b.arrayOffset
	return int64(b.offsets[base+1] - b.offsets[base]), nil
}
