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

package document

import (
	"fmt"
	"sync"
)

// StaticDocument is an in-memory Document, used in tests and fixtures
type StaticDocument struct {
	// Pages holds the fragments of each page, Pages[0] being page 1
	Pages [][]string

	// PageErrors makes TextContent of the given page fail
	PageErrors map[int]error

	mu        sync.Mutex
	requested []int
}

// NewStaticDocument creates a document whose pages contain the given fragments
func NewStaticDocument(pages ...[]string) *StaticDocument {
	return &StaticDocument{Pages: pages}
}

// NumPages returns the total page count
func (d *StaticDocument) NumPages() int {
	return len(d.Pages)
}

// Page returns the 1-based page n
func (d *StaticDocument) Page(n int) (Page, error) {
	if n < 1 || n > len(d.Pages) {
		return nil, fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, n, len(d.Pages))
	}

	d.mu.Lock()
	d.requested = append(d.requested, n)
	d.mu.Unlock()

	return staticPage{fragments: d.Pages[n-1], err: d.PageErrors[n]}, nil
}

// Requested returns the page numbers fetched so far, in call order
func (d *StaticDocument) Requested() []int {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]int, len(d.requested))
	copy(out, d.requested)
	return out
}

type staticPage struct {
	fragments []string
	err       error
}

func (p staticPage) TextContent() ([]Fragment, error) {
	if p.err != nil {
		return nil, p.err
	}

	out := make([]Fragment, len(p.fragments))
	for i, s := range p.fragments {
		out[i] = Fragment{Str: s}
	}
	return out, nil
}
