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
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrInvalidPage is returned for page numbers outside 1..NumPages
var ErrInvalidPage = errors.New("invalid page number")

// pdfDocument implements Document on top of github.com/ledongthuc/pdf
type pdfDocument struct {
	reader *pdf.Reader
}

type pdfPage struct {
	page   pdf.Page
	number int
}

// Load parses a PDF held in memory. The returned handle keeps a reference to
// data, which must not be modified afterwards.
func Load(data []byte) (doc Document, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty PDF data")
	}

	// The parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	if reader.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	return &pdfDocument{reader: reader}, nil
}

// NumPages returns the total page count
func (d *pdfDocument) NumPages() int {
	return d.reader.NumPage()
}

// Page returns the 1-based page n
func (d *pdfDocument) Page(n int) (Page, error) {
	if n < 1 || n > d.reader.NumPage() {
		return nil, fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, n, d.reader.NumPage())
	}

	p := d.reader.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d has no content object", n)
	}

	return &pdfPage{page: p, number: n}, nil
}

// TextContent returns one fragment per text row, rows in the order the
// parser reports them.
func (p *pdfPage) TextContent() (fragments []Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			fragments = nil
			err = fmt.Errorf("corrupt page %d: %v", p.number, r)
		}
	}()

	rows, err := p.page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("failed to read text rows: %w", err)
	}

	fragments = make([]Fragment, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		for _, t := range row.Content {
			b.WriteString(t.S)
		}
		fragments = append(fragments, Fragment{Str: b.String()})
	}

	return fragments, nil
}
