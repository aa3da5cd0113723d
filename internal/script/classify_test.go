/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"testing"

	"goscreenplay/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		line string
		prev LineKind
		want LineKind
	}{
		{"blank", "   ", LineDescription, LineBlank},
		{"page number", "42.", LineDescription, LinePageNumber},
		{"heading", "INT. HOUSE - DAY", LineBlank, LineSceneHeading},
		{"heading without period", "EXT - GARDEN - NIGHT", LineDescription, LineSceneHeading},
		{"transition colon", "CUT TO:", LineBlank, LineTransition},
		{"transition keyword", "FADE IN", LineBlank, LineTransition},
		{"cue after blank", "JOHN", LineBlank, LineCharacter},
		{"cue at heading", "MARY (V.O.)", LineSceneHeading, LineCharacter},
		{"caps inside action", "JOHN", LineDescription, LineDescription},
		{"indented cue", CharacterIndent + "JOHN", LineDescription, LineCharacter},
		{"parenthetical in block", "(quietly)", LineCharacter, LineParenthetical},
		{"dialogue after cue", "Hello there", LineCharacter, LineDialogue},
		{"dialogue continues", "and then some.", LineDialogue, LineDialogue},
		{"indented dialogue", DialogueIndent + "Hello there", LineDescription, LineDialogue},
		{"action", "He walks in.", LineBlank, LineDescription},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.line, c.prev); got != c.want {
				t.Fatalf("Classify(%q, %v) = %v, want %v", c.line, c.prev, got, c.want)
			}
		})
	}
}

func TestClassifyLinesSkipsPageNumbersAsContext(t *testing.T) {
	got := ClassifyLines([]string{"JOHN", "1.", "Hello", "", "He leaves."})
	want := []LineKind{LineCharacter, LinePageNumber, LineDialogue, LineBlank, LineDescription}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAnalyzeLineHeadingVariants(t *testing.T) {
	for _, line := range []string{"INT. HOUSE - DAY", "INT HOUSE - DAY", "INT - HOUSE - DAY", "int. house - day"} {
		a := AnalyzeLine(line)
		if !a.IsSceneHeading {
			t.Fatalf("%q: expected a scene heading", line)
		}
		if a.LocationType != domain.LocationInterior {
			t.Fatalf("%q: location type = %s", line, a.LocationType)
		}
		if a.TimeType != domain.TimeDay {
			t.Fatalf("%q: time = %s", line, a.TimeType)
		}
		if a.LocationName != "HOUSE" && a.LocationName != "house" {
			t.Fatalf("%q: location = %q", line, a.LocationName)
		}
	}
}

func TestAnalyzeLineLocationTypes(t *testing.T) {
	cases := map[string]domain.LocationType{
		"EXT. STREET - NIGHT":  domain.LocationExterior,
		"EST. CITY - DAWN":     domain.LocationExterior,
		"INT./EXT. CAR - DAY":  domain.LocationInteriorExterior,
		"I/E PICKUP - DUSK":    domain.LocationInteriorExterior,
		"EXT/INT SHED - NIGHT": domain.LocationInteriorExterior,
	}
	for line, want := range cases {
		if got := AnalyzeLine(line).LocationType; got != want {
			t.Fatalf("%q: got %s, want %s", line, got, want)
		}
	}
}

func TestAnalyzeLineRelativeTimeIsUnknown(t *testing.T) {
	a := AnalyzeLine("EXT. GARDEN - CONTINUOUS")
	if a.TimeType != domain.TimeUnknown {
		t.Fatalf("time = %s, want UNKNOWN", a.TimeType)
	}
	if a.LocationName != "GARDEN" {
		t.Fatalf("location = %q", a.LocationName)
	}
}

func TestAnalyzeLineTransition(t *testing.T) {
	a := AnalyzeLine("DISSOLVE TO:")
	if !a.IsTransition || a.TransitionType != "DISSOLVE TO" {
		t.Fatalf("unexpected analysis: %+v", a)
	}
	if got := TransitionType("./SMASH CUT TO:"); got != "SMASH CUT TO" {
		t.Fatalf("TransitionType = %q", got)
	}
}

func TestAnalyzeLineHeadingBeatsTransition(t *testing.T) {
	a := AnalyzeLine("INT. HOUSE - DAY:")
	if !a.IsSceneHeading || a.IsTransition {
		t.Fatalf("unexpected analysis: %+v", a)
	}
	if a.LocationName != "HOUSE" || a.TimeType != domain.TimeDay {
		t.Fatalf("unexpected heading parts: %+v", a)
	}
	if Classify("INT. HOUSE - DAY:", LineBlank) != LineSceneHeading {
		t.Fatalf("Classify disagrees with AnalyzeLine")
	}
}

func TestIsSceneHeadingRejectsWords(t *testing.T) {
	for _, line := range []string{"Interesting times.", "Extra cheese", "INT"} {
		if IsSceneHeading(line) {
			t.Fatalf("%q should not be a heading", line)
		}
	}
}
