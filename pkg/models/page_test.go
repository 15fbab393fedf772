/*
 * Copyright 2025 the EdgeFleet Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedInts serves n sequential ints in pages, counting fetches.
func pagedInts(n int) (PageFunc[int], *int) {
	fetches := new(int)

	return func(link PageLink) (PageData[int], error) {
		*fetches++

		start := link.Offset()
		if start > n {
			start = n
		}

		end := start + link.PageSize
		if end > n {
			end = n
		}

		data := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			data = append(data, i)
		}

		return PageData[int]{Data: data, TotalElements: int64(n), HasNext: end < n}, nil
	}, fetches
}

func TestPaginate_WalksAllPagesInOrder(t *testing.T) {
	t.Parallel()

	fetch, fetches := pagedInts(25)

	var got []int

	for item, err := range Paginate(10, fetch) {
		require.NoError(t, err)

		got = append(got, item)
	}

	require.Len(t, got, 25)

	for i, item := range got {
		assert.Equal(t, i, item)
	}

	assert.Equal(t, 3, *fetches)
}

func TestPaginate_IsLazy(t *testing.T) {
	t.Parallel()

	fetch, fetches := pagedInts(100)

	count := 0

	for _, err := range Paginate(10, fetch) {
		require.NoError(t, err)

		count++
		if count == 5 {
			break
		}
	}

	assert.Equal(t, 1, *fetches, "breaking early must not fetch further pages")
}

func TestPaginate_IsRestartable(t *testing.T) {
	t.Parallel()

	fetch, _ := pagedInts(7)
	seq := Paginate(3, fetch)

	for range 2 {
		var got []int

		for item, err := range seq {
			require.NoError(t, err)

			got = append(got, item)
		}

		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, got)
	}
}

func TestPaginate_StopsOnFetchError(t *testing.T) {
	t.Parallel()

	calls := 0
	fetch := func(link PageLink) (PageData[int], error) {
		calls++

		if link.Page == 1 {
			return PageData[int]{}, assert.AnError
		}

		return PageData[int]{Data: []int{1, 2}, HasNext: true}, nil
	}

	var (
		got     []int
		lastErr error
	)

	for item, err := range Paginate(2, fetch) {
		if err != nil {
			lastErr = err
			break
		}

		got = append(got, item)
	}

	assert.Equal(t, []int{1, 2}, got)
	require.ErrorIs(t, lastErr, assert.AnError)
	assert.Equal(t, 2, calls)
}

func TestPaginate_EmptyResult(t *testing.T) {
	t.Parallel()

	fetch, fetches := pagedInts(0)

	for range Paginate(10, fetch) {
		t.Fatal("no items expected")
	}

	assert.Equal(t, 1, *fetches)
}

func TestPageLink(t *testing.T) {
	t.Parallel()

	link := NewPageLink(0)
	assert.Equal(t, DefaultPageSize, link.PageSize)
	assert.Equal(t, 0, link.Offset())

	link = NewPageLink(25).Next().Next()
	assert.Equal(t, 2, link.Page)
	assert.Equal(t, 50, link.Offset())
}
