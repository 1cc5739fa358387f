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

package nulls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNullsBasics(t *testing.T) {
	var nsp *Nulls
	require.False(t, Any(nsp))
	require.False(t, Contains(nsp, 0))
	require.Equal(t, 0, Count(nsp))
	require.Equal(t, "[]", String(nsp))

	nsp = Build(1, 3)
	require.True(t, Any(nsp))
	require.True(t, Contains(nsp, 1))
	require.False(t, Contains(nsp, 2))
	require.Equal(t, 2, Count(nsp))
	require.Equal(t, []uint64{1, 3}, nsp.ToArray())

	Del(nsp, 3)
	require.Equal(t, []uint64{1}, nsp.ToArray())

	nsp.Set(7)
	require.True(t, nsp.Contains(7))
}

func TestNullsRange(t *testing.T) {
	nsp := Build(1, 4, 5)

	// Rows in [4, 6) shifted down by 4.
	m := Range(nsp, 4, 6, 4, &Nulls{})
	require.Equal(t, []uint64{0, 1}, m.ToArray())

	// An empty window yields an empty map, not nil.
	m = Range(nsp, 2, 4, 2, &Nulls{})
	require.Equal(t, 0, Count(m))

	m = Range(nil, 0, 10, 0, New())
	require.Equal(t, 0, Count(m))
}

func TestNullsFilter(t *testing.T) {
	nsp := Build(1)

	m := Filter(nsp, []int64{2, 1, 0, 1})
	require.Equal(t, []uint64{1, 3}, m.ToArray())

	// The source is untouched.
	require.Equal(t, []uint64{1}, nsp.ToArray())

	require.Equal(t, 0, Count(Filter(nil, []int64{0, 1})))
}

func TestNullsOr(t *testing.T) {
	r := &Nulls{}
	Or(Build(1), Build(2), r)
	require.Equal(t, []uint64{1, 2}, r.ToArray())

	Or(nil, nil, r)
	require.False(t, Any(r))
}

func TestNullsCloneAndIsSame(t *testing.T) {
	nsp := Build(2, 9)
	clone := nsp.Clone()
	require.True(t, nsp.IsSame(clone))

	Add(clone, 3)
	require.False(t, nsp.IsSame(clone))

	var nilNulls *Nulls
	require.True(t, nilNulls.IsSame(New()))
	require.Nil(t, nilNulls.Clone())
}
