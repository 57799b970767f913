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
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/loqalabs/loqa-narrator/internal/logging"
	"go.uber.org/zap"
)

// PageMarker returns the delimiter block written before the text of page n
func PageMarker(n int) string {
	return "\n\n--- Page " + strconv.Itoa(n) + " ---\n\n"
}

// ClampRange limits a 1-based page range to the pages of a document with
// numPages pages. The result may be empty (start > end).
func ClampRange(numPages, startPage, endPage int) (start, end int) {
	return max(1, startPage), min(numPages, endPage)
}

// Extract concatenates the text of pages startPage..endPage of doc, each
// preceded by its page marker. Out-of-range bounds are clamped silently and
// an empty range yields an empty string. Pages are read one at a time in
// ascending order; the first page failure is returned.
func Extract(ctx context.Context, doc Document, startPage, endPage int) (string, error) {
	start, end := ClampRange(doc.NumPages(), startPage, endPage)
	startTime := time.Now()

	var b strings.Builder
	for n := start; n <= end; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := PageText(doc, n)
		if err != nil {
			return "", err
		}

		b.WriteString(PageMarker(n))
		b.WriteString(text)
	}

	logging.LogExtraction("extract_complete",
		zap.Int("requested_start", startPage),
		zap.Int("requested_end", endPage),
		zap.Int("start_page", start),
		zap.Int("end_page", end),
		zap.Int("text_length", b.Len()),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	return b.String(), nil
}

// PageText returns the fragments of page n joined with a single space
func PageText(doc Document, n int) (string, error) {
	page, err := doc.Page(n)
	if err != nil {
		return "", fmt.Errorf("failed to load page %d: %w", n, err)
	}

	fragments, err := page.TextContent()
	if err != nil {
		return "", fmt.Errorf("failed to read text of page %d: %w", n, err)
	}

	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = f.Str
	}
	return strings.Join(parts, " "), nil
}
