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

// Fragment is a single run of text as reported by the parser
type Fragment struct {
	Str string
}

// Page gives access to the text of one page
type Page interface {
	// TextContent returns the page's text fragments in parser order
	TextContent() ([]Fragment, error)
}

// Document is an opaque handle to a parsed document
type Document interface {
	// NumPages returns the total page count
	NumPages() int

	// Page returns the 1-based page n
	Page(n int) (Page, error)
}
