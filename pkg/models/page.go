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

import "iter"

const DefaultPageSize = 100

// PageLink addresses one page of a paginated query.
type PageLink struct {
	PageSize int `json:"page_size"`
	Page     int `json:"page"`
}

func NewPageLink(pageSize int) PageLink {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return PageLink{PageSize: pageSize}
}

// Next returns the link addressing the following page.
func (p PageLink) Next() PageLink {
	return PageLink{PageSize: p.PageSize, Page: p.Page + 1}
}

// Offset returns the row offset this link addresses.
func (p PageLink) Offset() int {
	return p.PageSize * p.Page
}

// PageData is one page of query results.
type PageData[T any] struct {
	Data          []T   `json:"data"`
	TotalElements int64 `json:"total_elements"`
	HasNext       bool  `json:"has_next"`
}

// PageFunc fetches one page of results for a page link.
type PageFunc[T any] func(PageLink) (PageData[T], error)

// Paginate walks a paginated query lazily, yielding items in page
// order. Iteration stops on the first fetch error, which is yielded
// with a zero item. The sequence is restartable; each range starts
// from the first page.
func Paginate[T any](pageSize int, fetch PageFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		link := NewPageLink(pageSize)

		for {
			page, err := fetch(link)
			if err != nil {
				var zero T

				yield(zero, err)

				return
			}

			for _, item := range page.Data {
				if !yield(item, nil) {
					return
				}
			}

			if !page.HasNext {
				return
			}

			link = link.Next()
		}
	}
}
