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
	"errors"
	"testing"
)

func TestLoad_PageCount(t *testing.T) {
	data := BuildPDF(
		"BT /F1 12 Tf 72 720 Td (First page) Tj ET",
		"BT /F1 12 Tf 72 720 Td (Second page) Tj ET",
	)

	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if doc.NumPages() != 2 {
		t.Errorf("NumPages() = %d, want %d", doc.NumPages(), 2)
	}

	if _, err := doc.Page(1); err != nil {
		t.Errorf("Page(1) returned error: %v", err)
	}
}

func TestLoad_InvalidPageNumber(t *testing.T) {
	doc, err := Load(BuildPDF("BT /F1 12 Tf 72 720 Td (Only page) Tj ET"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	for _, n := range []int{0, 2, -1} {
		if _, err := doc.Page(n); !errors.Is(err, ErrInvalidPage) {
			t.Errorf("Page(%d) error = %v, want ErrInvalidPage", n, err)
		}
	}
}

func TestLoad_Garbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("this is definitely not a PDF document")},
		{"truncated", BuildPDF("BT ET")[:40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Load(tt.data)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if doc != nil {
				t.Error("Expected nil document on error")
			}
		})
	}
}
