/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package formats

import (
	"strings"

	"goscreenplay/internal/domain"
	"goscreenplay/internal/script"
)

const trelbyHeader = "#Title-String\n" + trelbySentinel + "\n\n"

// ExportTrelby converts plain screenplay text into Trelby markup using the same line
// classification as the parser. The first dialogue or parenthetical line after a cue opens
// with ">:", later ones continue with ".:". A run of blank lines becomes one empty ".."
// element so blank-line event breaks survive a round trip. Empty input yields "".
func ExportTrelby(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	kinds := script.ClassifyLines(lines)

	var b strings.Builder
	b.WriteString(trelbyHeader)
	pendingBlank := false
	afterCue := false
	wrote := false
	emit := func(code, s string) {
		if pendingBlank && wrote {
			b.WriteString("..\n")
		}
		pendingBlank = false
		wrote = true
		b.WriteString(code)
		b.WriteString(s)
		b.WriteByte('\n')
	}
	for i, line := range lines {
		t := strings.TrimSpace(line)
		switch kinds[i] {
		case script.LinePageNumber:
			continue
		case script.LineBlank:
			pendingBlank = true
			afterCue = false
		case script.LineSceneHeading:
			emit(".=", t)
			afterCue = false
		case script.LineTransition:
			emit("./", strings.TrimPrefix(t, "./"))
			afterCue = false
		case script.LineCharacter:
			emit("._", t)
			afterCue = true
		case script.LineDialogue, script.LineParenthetical:
			if afterCue {
				emit(">:", t)
				afterCue = false
			} else {
				emit(".:", t)
			}
		default:
			emit("..", t)
			afterCue = false
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// ExportScreenplay exports the full text of a parsed screenplay.
func ExportScreenplay(sp domain.Screenplay) string {
	return ExportTrelby(sp.FullText)
}
