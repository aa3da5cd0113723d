/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reCharacterCharset = regexp.MustCompile(`^[A-Z0-9 '’\-.]+$`)
	reCueExtension     = regexp.MustCompile(`\s*\([A-Z0-9 .'’\-]+\)$`)
	reHeadingWord      = regexp.MustCompile(`^(INT|EXT|INT/EXT|I/E|EST)\b`)
	reDayPart          = regexp.MustCompile(`\b(DAY|NIGHT|NOON|MORNING|EVENING|AFTERNOON|DAWN|DUSK|MIDNIGHT)\b`)
	reSingleCapsToken  = regexp.MustCompile(`^[A-Z0-9'’\-.]+$`)
	curlyQuotes        = strings.NewReplacer("“", "", "”", "")
)

// ParseCharacterName returns the normalized character name of a cue line such as
// "            JOHN (V.O.)" -> "JOHN". It reports false for content that fails the
// character heuristics: lowercase text, more than four words, numeric-only or
// punctuation-only tokens, sluglines, day-part words and transitions.
func ParseCharacterName(line string) (string, bool) {
	t := strings.TrimSpace(line)
	t = strings.TrimSpace(strings.TrimSuffix(t, ":"))
	for {
		stripped := reCueExtension.ReplaceAllString(t, "")
		if stripped == t {
			break
		}
		t = strings.TrimSpace(stripped)
	}
	if t == "" || !reCharacterCharset.MatchString(t) {
		return "", false
	}
	if !strings.ContainsFunc(t, unicode.IsLetter) {
		return "", false
	}
	words := strings.Fields(t)
	if len(words) > 4 {
		return "", false
	}
	cleaned := strings.TrimRight(strings.Join(words, " "), ".")
	if cleaned == "" {
		return "", false
	}
	if reHeadingWord.MatchString(cleaned) || reDayPart.MatchString(cleaned) || reTransitionAny.MatchString(cleaned) {
		return "", false
	}
	return cleaned, true
}

// ParseDialogueLine returns the cleaned dialogue text of a line, or "" when the line is an
// ellipsis artifact or a lone ALL-CAPS token that is more likely a trailing character cue.
func ParseDialogueLine(line string) string {
	t := strings.TrimSpace(line)
	if t == ".." || t == "..." {
		return ""
	}
	if !strings.ContainsAny(t, " \t") && reSingleCapsToken.MatchString(t) && strings.ContainsFunc(t, unicode.IsLetter) {
		return ""
	}
	return strings.TrimSpace(curlyQuotes.Replace(t))
}
