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

package narration

// promptTemplate directs the model to narrate and to skip page markers
const promptTemplate = `Task: Read the following text as a professional audiobook narrator.
    Style: Clear, engaging, and well-paced.
    Instructions:
    - Do NOT read page numbers (e.g., "--- Page 5 ---").
    - Do NOT read visual formatting markers.
    - Transition smoothly between sections.
    
    Text to read:
    "`

// BuildPrompt substitutes text verbatim into the narration directive
func BuildPrompt(text string) string {
	return promptTemplate + text + `"`
}
