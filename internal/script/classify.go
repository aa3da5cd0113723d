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

	"goscreenplay/internal/domain"
)

// LineKind is the classification of a single physical line.
type LineKind int

const (
	// LineBlank is also the context used for the first line of a document.
	LineBlank LineKind = iota
	LinePageNumber
	LineSceneHeading
	LineTransition
	LineCharacter
	LineParenthetical
	LineDialogue
	// LineDescription is the canonical fallback for lines matching no other rule.
	LineDescription
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LinePageNumber:
		return "page-number"
	case LineSceneHeading:
		return "scene-heading"
	case LineTransition:
		return "transition"
	case LineCharacter:
		return "character"
	case LineParenthetical:
		return "parenthetical"
	case LineDialogue:
		return "dialogue"
	default:
		return "description"
	}
}

// Fixed-width indentation used by the indentation-based variant (Trelby import output).
const (
	CharacterIndent = "            " // 12 spaces
	DialogueIndent  = "        "     // 8 spaces
)

var (
	rePageNumber = regexp.MustCompile(`^\d+\.$`)
	// INT/EXT must be tried before INT so the longer prefix wins.
	reHeadingPrefix = regexp.MustCompile(`(?i)^(INT\.?\s?/\s?EXT|EXT\.?\s?/\s?INT|I/E|INT|EXT|EST)([.\s-]|$)`)
	reHeadingSplit  = regexp.MustCompile(`\s+[-–—]+\s+|\s*[–—]\s*`)
	reCapsColon     = regexp.MustCompile(`^[A-Z][A-Z0-9 .'’\-]*:$`)
	reTransitionKW  = regexp.MustCompile(`^(FADE IN|FADE OUT|FADE TO BLACK|FADE TO|CUT TO|SMASH CUT(?: TO)?|MATCH CUT(?: TO)?|JUMP CUT(?: TO)?|DISSOLVE TO|WIPE TO|INTERCUT)[.:]?$`)
	reTransitionAny = regexp.MustCompile(`\b(CUT TO|FADE IN|FADE OUT|DISSOLVE TO)\b`)
)

var timeWords = map[string]domain.TimeType{
	"DAY":       domain.TimeDay,
	"NIGHT":     domain.TimeNight,
	"DAWN":      domain.TimeDawn,
	"DUSK":      domain.TimeDusk,
	"MORNING":   domain.TimeMorning,
	"NOON":      domain.TimeNoon,
	"AFTERNOON": domain.TimeAfternoon,
	"EVENING":   domain.TimeEvening,
	"MIDNIGHT":  domain.TimeMidnight,
	"SUNRISE":   domain.TimeSunrise,
	"SUNSET":    domain.TimeSunset,
	// relative markers keep the predecessor's time
	"CONTINUOUS": domain.TimeUnknown,
	"LATER":      domain.TimeUnknown,
	"SAME":       domain.TimeUnknown,
	"MOMENTS":    domain.TimeUnknown,
}

// LineAnalysis is the slugline/transition breakdown of a single line.
type LineAnalysis struct {
	IsSceneHeading bool
	IsTransition   bool
	TransitionType string
	LocationType   domain.LocationType
	LocationName   string
	TimeType       domain.TimeType
}

// IsPageNumber reports whether the line is a lone page number such as "42.".
func IsPageNumber(line string) bool {
	return rePageNumber.MatchString(strings.TrimSpace(line))
}

// IsSceneHeading accepts INT./EXT./INT/EXT./I/E./EST. prefixes in any case, with or
// without the period ("INT - HOUSE - DAY").
func IsSceneHeading(line string) bool {
	return reHeadingPrefix.MatchString(strings.TrimSpace(line)) && len(strings.TrimSpace(line)) > 3
}

// IsTransition reports an ALL-CAPS line ending in ':' (under 50 chars), a well-known
// transition keyword, or a raw Trelby "./" transition line.
func IsTransition(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	if strings.HasPrefix(t, "./") {
		return true
	}
	if len(t) < 50 && reCapsColon.MatchString(t) {
		return true
	}
	return reTransitionKW.MatchString(t)
}

// TransitionType normalizes a transition line: "CUT TO:" -> "CUT TO".
func TransitionType(line string) string {
	t := strings.TrimSpace(line)
	t = strings.TrimPrefix(t, "./")
	t = strings.TrimRight(t, ":. ")
	return strings.ToUpper(strings.TrimSpace(t))
}

// AnalyzeLine breaks a line down into heading and transition parts.
func AnalyzeLine(line string) LineAnalysis {
	a := LineAnalysis{LocationType: domain.LocationUnknown, TimeType: domain.TimeUnknown}
	t := strings.TrimSpace(line)
	m := reHeadingPrefix.FindStringSubmatch(t)
	if m == nil || len(t) <= 3 {
		if IsTransition(line) {
			a.IsTransition = true
			a.TransitionType = TransitionType(line)
		}
		return a
	}
	a.IsSceneHeading = true
	a.LocationType = locationTypeOf(m[1])

	rest := strings.Trim(t[len(m[1]):], " .:-–—\t")
	if rest == "" {
		return a
	}
	var parts []string
	for _, p := range reHeadingSplit.Split(rest, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		if tt, ok := timeOf(parts[len(parts)-1]); ok {
			a.TimeType = tt
			parts = parts[:len(parts)-1]
		}
	}
	a.LocationName = strings.Join(parts, " - ")
	return a
}

func locationTypeOf(prefix string) domain.LocationType {
	p := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(prefix, ".", "")), ""))
	switch p {
	case "INT":
		return domain.LocationInterior
	case "EXT", "EST":
		return domain.LocationExterior
	case "INT/EXT", "EXT/INT", "I/E":
		return domain.LocationInteriorExterior
	default:
		return domain.LocationUnknown
	}
}

func timeOf(part string) (domain.TimeType, bool) {
	fields := strings.Fields(strings.ToUpper(part))
	if len(fields) == 0 {
		return domain.TimeUnknown, false
	}
	tt, ok := timeWords[strings.Trim(fields[0], ".,:()")]
	return tt, ok
}

func hasCharacterIndent(line string) bool { return strings.HasPrefix(line, CharacterIndent) }

func hasDialogueIndent(line string) bool {
	return strings.HasPrefix(line, DialogueIndent) || strings.HasPrefix(line, "\t")
}

// IsParenthetical reports a line wrapped in "( … )".
func IsParenthetical(line string) bool {
	t := strings.TrimSpace(line)
	return len(t) >= 2 && strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")")
}

// IsCharacterCue reports whether line is a character name given the previous line's kind.
// A 12-space indent is authoritative; otherwise the case rules of ParseCharacterName apply
// and the cue must open a block (document start, after a blank line, heading or transition).
func IsCharacterCue(line string, prev LineKind) bool {
	if _, ok := ParseCharacterName(line); !ok {
		return false
	}
	if hasCharacterIndent(line) {
		return true
	}
	switch prev {
	case LineBlank, LineSceneHeading, LineTransition:
		return true
	default:
		return false
	}
}

// IsDialogueLine never trims leading whitespace: indentation is the signal.
// A line directly after a character cue is dialogue even when unindented.
func IsDialogueLine(line string, previousLineWasCharacter bool) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	if previousLineWasCharacter {
		return true
	}
	if IsParenthetical(line) && (hasDialogueIndent(line) || strings.HasPrefix(line, " ")) {
		return true
	}
	return hasDialogueIndent(line)
}

// Classify assigns a LineKind to a raw line. prev is the kind of the previous non-page-number
// line (LineBlank for the first line).
func Classify(line string, prev LineKind) LineKind {
	line = strings.TrimRight(line, "\r")
	t := strings.TrimSpace(line)
	inBlock := prev == LineCharacter || prev == LineParenthetical || prev == LineDialogue
	switch {
	case t == "":
		return LineBlank
	case IsPageNumber(t):
		return LinePageNumber
	case IsSceneHeading(line):
		return LineSceneHeading
	case hasCharacterIndent(line) && IsCharacterCue(line, prev):
		return LineCharacter
	case IsTransition(line):
		return LineTransition
	case IsCharacterCue(line, prev):
		return LineCharacter
	case strings.HasPrefix(t, "(") && (inBlock || hasDialogueIndent(line)):
		return LineParenthetical
	case inBlock:
		return LineDialogue
	case IsDialogueLine(line, false) && ParseDialogueLine(line) != "":
		return LineDialogue
	default:
		return LineDescription
	}
}

// ClassifyLines classifies every line of text, threading the previous-kind context.
// Page numbers do not change the context.
func ClassifyLines(lines []string) []LineKind {
	out := make([]LineKind, len(lines))
	prev := LineBlank
	for i, l := range lines {
		k := Classify(l, prev)
		out[i] = k
		if k != LinePageNumber {
			prev = k
		}
	}
	return out
}
