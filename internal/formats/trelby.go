/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package formats

import (
	"fmt"
	"strings"

	applog "goscreenplay/internal/log"
	"goscreenplay/internal/script"
)

const trelbySentinel = "#Start-Script"

// Trelby element codes: the character following the line-break marker ('.' or '>').
const (
	trelbyHeading       = '='
	trelbyCharacter     = '_'
	trelbyTransition    = '/'
	trelbySpecial       = '\\'
	trelbyAction        = '.'
	trelbyDialogue      = ':'
	trelbyParenthetical = '('
)

// ImportTrelby converts a Trelby script into plain screenplay text. Character cues are
// indented with script.CharacterIndent and dialogue with script.DialogueIndent so the
// classifier's indentation rules apply. Only content after "#Start-Script" is read;
// without the sentinel (or without content after it) every line is mapped ungated.
func ImportTrelby(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("trelby: empty document: %w", ErrInvalidInput)
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")

	start := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == trelbySentinel {
			start = i + 1
			break
		}
	}
	var out []string
	if start >= 0 {
		out = mapTrelbyLines(lines[start:])
	}
	if !hasContent(out) {
		applog.WithOperation(applog.WithComponent("formats"), "import_trelby").Warn("no script section, mapping all lines",
			"sentinel", start >= 0)
		out = mapTrelbyLines(lines)
	}
	if !hasContent(out) {
		return "", fmt.Errorf("trelby: %w", ErrNoContent)
	}
	return strings.Trim(strings.Join(out, "\n"), "\n"), nil
}

func hasContent(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

// mapTrelbyLines never trims a line before looking at it: leading whitespace and a bare
// ':' both mark wrapped dialogue.
func mapTrelbyLines(lines []string) []string {
	var out []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch line[0] {
		case '.', '>':
			out = append(out, trelbyElement(line)...)
		case ':':
			out = append(out, script.DialogueIndent+unescapeTrelby(line[1:]))
		default:
			out = append(out, unescapeTrelby(line))
		}
	}
	return out
}

func trelbyElement(line string) []string {
	if len(line) < 2 {
		return []string{""}
	}
	text := unescapeTrelby(line[2:])
	switch line[1] {
	case trelbyHeading:
		return []string{text}
	case trelbyCharacter:
		return []string{"", script.CharacterIndent + strings.ToUpper(strings.TrimSpace(text))}
	case trelbyTransition:
		return []string{text}
	case trelbySpecial:
		return []string{text}
	case trelbyAction:
		if strings.TrimSpace(text) == "" {
			return []string{""}
		}
		return []string{text}
	case trelbyDialogue, trelbyParenthetical:
		return []string{script.DialogueIndent + text}
	}
	// '>' without a code is a forced break inside an action paragraph; an unknown
	// code after '.' is kept as action text as well.
	return []string{unescapeTrelby(line[1:])}
}

func unescapeTrelby(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
