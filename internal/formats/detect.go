/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package formats converts screenplay files from and to the formats of other writing
// tools. Importers return plain screenplay text ready for script.Parse.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"goscreenplay/internal/domain"
	applog "goscreenplay/internal/log"
	"goscreenplay/internal/script"
)

var (
	// ErrInvalidInput is returned for empty or undecodable input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoContent is returned when an importer recovered no screenplay text, fallback included.
	ErrNoContent = errors.New("no screenplay content")
)

// Format identifies a screenplay file format.
type Format string

const (
	FormatText   Format = "text"
	FormatFDX    Format = "fdx"
	FormatTrelby Format = "trelby"
)

// ParseFormat maps a user supplied name ("txt", "fdx", "trelby", ...) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt", "plain", "fountain":
		return FormatText, nil
	case "fdx", "finaldraft":
		return FormatFDX, nil
	case "trelby":
		return FormatTrelby, nil
	default:
		return "", fmt.Errorf("unknown format %q: %w", s, ErrInvalidInput)
	}
}

// Detect picks a format from the file extension and falls back to sniffing the content.
// ".fdx.trelby" files are Trelby.
func Detect(name string, data []byte) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".trelby"):
		return FormatTrelby
	case filepath.Ext(lower) == ".fdx":
		return FormatFDX
	case filepath.Ext(lower) == ".txt", filepath.Ext(lower) == ".fountain":
		return FormatText
	}
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	switch {
	case bytes.Contains(head, []byte("<FinalDraft")):
		return FormatFDX
	case bytes.Contains(data, []byte("#Start-Script")):
		return FormatTrelby
	default:
		return FormatText
	}
}

// Decode turns raw file bytes into normalized text: a UTF-8 or UTF-16 BOM selects the
// encoding (UTF-8 otherwise), line endings become LF and the result is NFC normalized.
// Input without a UTF-16 BOM must be valid UTF-8.
func Decode(data []byte) (string, error) {
	if !hasUTF16BOM(data) && !utf8.Valid(data) {
		return "", fmt.Errorf("decode: not valid UTF-8: %w", ErrInvalidInput)
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode: %v: %w", err, ErrInvalidInput)
	}
	s := strings.ReplaceAll(string(out), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s), nil
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFE, 0xFF}) || bytes.HasPrefix(data, []byte{0xFF, 0xFE})
}

// Import decodes data and converts it to plain screenplay text.
func Import(format Format, data []byte) (string, error) {
	text, err := Decode(data)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatFDX:
		return ImportFDX(text)
	case FormatTrelby:
		return ImportTrelby(text)
	case FormatText:
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("empty text: %w", ErrInvalidInput)
		}
		return text, nil
	default:
		return "", fmt.Errorf("unsupported format %q: %w", format, ErrInvalidInput)
	}
}

// Load detects the format of a named file, imports it and parses the result.
func Load(name string, data []byte) (domain.Screenplay, error) {
	return LoadWithOptions(name, data, script.DefaultOptions())
}

// LoadWithOptions is Load with explicit parser options.
func LoadWithOptions(name string, data []byte, opts script.Options) (domain.Screenplay, error) {
	format := Detect(name, data)
	text, err := Import(format, data)
	if err != nil {
		return domain.Screenplay{}, fmt.Errorf("load %s: %w", filepath.Base(name), err)
	}
	applog.WithOperation(applog.WithComponent("formats"), "load").Debug("imported",
		"file", filepath.Base(name), "format", string(format), "bytes", len(data))
	return script.ParseWithOptions(text, opts), nil
}
