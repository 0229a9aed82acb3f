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

// Package extract converts raw file bytes into plain text.
//
// Supported formats are application/pdf and any text/* subtype. Extraction is
// side-effect-free; a corrupt input fails with ErrExtractionFailed rather than
// crashing the caller.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/dslipak/pdf"
)

var (
	// ErrUnsupportedFormat indicates a MIME type this extractor cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtractionFailed indicates the input could not be parsed (e.g. a
	// corrupt PDF).
	ErrExtractionFailed = errors.New("extraction failed")
)

// MaxFileSize is a hard limit for text extraction (50MB).
const MaxFileSize = 50 * 1024 * 1024

// Extract converts file bytes plus a declared MIME type into plain text.
// text/* subtypes are decoded as UTF-8; application/pdf goes through a binary
// parse. Any other MIME type fails with ErrUnsupportedFormat.
func Extract(data []byte, mimeType string) (string, error) {
	if int64(len(data)) > MaxFileSize {
		return "", fmt.Errorf("%w: file exceeds size limit of 50MB", ErrExtractionFailed)
	}

	mediaType := mimeType
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mediaType = parsed
	}
	mediaType = strings.ToLower(mediaType)

	switch {
	case mediaType == "application/pdf":
		return extractPDF(data)
	case strings.HasPrefix(mediaType, "text/"):
		return extractText(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
}

// extractText decodes bytes as UTF-8, dropping invalid sequences.
func extractText(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}

// extractPDF parses PDF bytes into plain text. The underlying parser panics
// on some malformed inputs; those are converted into ErrExtractionFailed so a
// bad upload cannot take the invocation down.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: pdf parse panic: %v", ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return buf.String(), nil
}
