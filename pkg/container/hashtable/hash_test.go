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

package hashtable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesHash(t *testing.T) {
	require.Equal(t, BytesHash([]byte("abc")), BytesHash([]byte("abc")))
	require.NotEqual(t, BytesHash([]byte("abc")), BytesHash([]byte("abd")))
	require.NotEqual(t, BytesHash(nil), BytesHash([]byte{0}))

	// Content equality, not backing-array identity.
	a := []byte("hello world")
	require.Equal(t, BytesHash(a), BytesHash(append([]byte(nil), a...)))
}

func TestInt64Hash(t *testing.T) {
	require.Equal(t, Int64Hash(42), Int64Hash(42))
	require.NotEqual(t, Int64Hash(1), Int64Hash(2))
}
