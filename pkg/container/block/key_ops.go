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
	"bytes"

	"github.com/colbase/colbase/pkg/container/hashtable"
)

// bytesReader is implemented by variable-width blocks.
type bytesReader interface {
	BytesAt(position int) ([]byte, error)
}

// int64Reader is implemented by fixed-width integer blocks.
type int64Reader interface {
	Int64At(position int) (int64, error)
}

// BytesKeyOps hashes and compares variable-width keys by content.  Blocks
// handed to it must implement BytesAt; anything else hashes as empty and
// never compares equal, which surfaces the miswiring in tests immediately.
func BytesKeyOps() KeyOps {
	at := func(b Block, position int) ([]byte, bool) {
		r, ok := b.(bytesReader)
		if !ok {
			return nil, false
		}
		v, err := r.BytesAt(position)
		if err != nil {
			return nil, false
		}
		return v, true
	}
	return KeyOps{
		Hash: func(keys Block, position int) uint64 {
			v, _ := at(keys, position)
			return hashtable.BytesHash(v)
		},
		Equal: func(keys Block, position int, other Block, otherPosition int) bool {
			a, ok1 := at(keys, position)
			b, ok2 := at(other, otherPosition)
			return ok1 && ok2 && bytes.Equal(a, b)
		},
	}
}

// Int64KeyOps hashes and compares fixed-width integer keys.
func Int64KeyOps() KeyOps {
	at := func(b Block, position int) (int64, bool) {
		r, ok := b.(int64Reader)
		if !ok {
			return 0, false
		}
		v, err := r.Int64At(position)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return KeyOps{
		Hash: func(keys Block, position int) uint64 {
			v, _ := at(keys, position)
			return hashtable.Int64Hash(uint64(v))
		},
		Equal: func(keys Block, position int, other Block, otherPosition int) bool {
			a, ok1 := at(keys, position)
			b, ok2 := at(other, otherPosition)
			return ok1 && ok2 && a == b
		},
	}
}
