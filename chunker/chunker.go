// Copyright 2026 Pellego Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chunker splits plain text into overlapping, boundary-aware segments.
package chunker

import (
	"fmt"
	"strings"
)

// Default window parameters, in characters.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Chunker splits text into overlapping windows, preferring to cut on sentence
// or word boundaries near the end of each window.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker with the given window size and overlap, in characters.
// overlap >= size is a caller error: the scan pointer advances by size-overlap
// each step, so forward progress requires size-overlap >= 1.
func New(size, overlap int) (*Chunker, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap cannot be negative, got %d", overlap)
	}
	if size-overlap < 1 {
		return nil, fmt.Errorf("size (%d) must exceed overlap (%d) to guarantee progress", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Default returns a chunker with the default window parameters.
func Default() *Chunker {
	c, _ := New(DefaultSize, DefaultOverlap)
	return c
}

// Chunk splits text into an ordered list of trimmed, non-empty segments.
//
// The scanner takes windows of size characters, advancing by size-overlap
// each step. Within a full window it prefers to cut at the last period found
// in the trailing 20% of the window; failing that, at the last space in the
// same region; otherwise at the raw window boundary. The scan pointer always
// advances by size-overlap regardless of where the cut landed, so windows can
// overlap inconsistently near cut points; that is accepted behavior.
//
// Returns an empty list for empty input.
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return []string{}
	}

	runes := []rune(text)
	step := c.size - c.overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		tail := end >= len(runes)
		if tail {
			// Tail window: take everything, a cut here would drop text.
			end = len(runes)
		} else {
			end = c.cut(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if tail {
			// The scan is done once a window reaches the end of the input;
			// stepping again would re-emit the trailing overlap region.
			break
		}
	}

	return chunks
}

// cut picks the cut position for a full window runes[start:end], searching
// the trailing 20% of the window back to front.
func (c *Chunker) cut(runes []rune, start, end int) int {
	floor := end - c.size/5
	if floor < start {
		floor = start
	}

	// Prefer a sentence-terminating period, cut just after it.
	for i := end - 1; i >= floor; i-- {
		if runes[i] == '.' {
			return i + 1
		}
	}

	// Fall back to the last space.
	for i := end - 1; i >= floor; i-- {
		if runes[i] == ' ' {
			return i
		}
	}

	// Raw window boundary.
	return end
}

// Size returns the configured window size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured window overlap.
func (c *Chunker) Overlap() int { return c.overlap }
