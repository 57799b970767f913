/*
 * This file is part of Loqa Narrator (https://github.com/loqalabs/loqa-narrator).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package storage

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStore_PutGetRelease(t *testing.T) {
	store, err := NewBlobStore(4)
	require.NoError(t, err)

	id := store.Put(&Blob{DocumentID: "doc-1", Data: []byte("RIFF")})
	require.NotEmpty(t, id)

	blob, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, []byte("RIFF"), blob.Data)
	assert.Equal(t, "audio/wav", blob.ContentType)
	assert.False(t, blob.CreatedAt.IsZero())

	assert.True(t, store.Release(id))
	assert.False(t, store.Release(id))

	_, ok = store.Get(id)
	assert.False(t, ok)
}

func TestBlobStore_Bounded(t *testing.T) {
	store, err := NewBlobStore(2)
	require.NoError(t, err)

	first := store.Put(&Blob{Data: []byte{1}})
	second := store.Put(&Blob{Data: []byte{2}})

	// touch the first so the second becomes least recently used
	_, _ = store.Get(first)
	third := store.Put(&Blob{Data: []byte{3}})

	assert.Equal(t, 2, store.Len())
	_, ok := store.Get(second)
	assert.False(t, ok, "least recently used blob should be evicted")
	_, ok = store.Get(first)
	assert.True(t, ok)
	_, ok = store.Get(third)
	assert.True(t, ok)
}

func TestBlobStore_ReleaseDocument(t *testing.T) {
	store, err := NewBlobStore(10)
	require.NoError(t, err)

	store.Put(&Blob{DocumentID: "doc-1"})
	store.Put(&Blob{DocumentID: "doc-1"})
	kept := store.Put(&Blob{DocumentID: "doc-2"})

	assert.Equal(t, 2, store.ReleaseDocument("doc-1"))
	assert.Equal(t, 1, store.Len())
	_, ok := store.Get(kept)
	assert.True(t, ok)
}

func TestBlobStore_InvalidSize(t *testing.T) {
	_, err := NewBlobStore(0)
	assert.Error(t, err)
}

func TestBlobStore_Concurrent(t *testing.T) {
	store, err := NewBlobStore(1000)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := store.Put(&Blob{DocumentID: fmt.Sprintf("doc-%d", i%5)})
			_, _ = store.Get(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}
