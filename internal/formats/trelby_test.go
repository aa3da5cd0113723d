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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goscreenplay/internal/domain"
	"goscreenplay/internal/script"
)

const sampleTrelby = `#Version 3
#Begin-Auto-Completion
#End-Auto-Completion
#Title-String
#Start-Script
./FADE IN:
.=Ext. Night - earth orbit
..Lights start to become visible on Earth.
>Shot from orbit.
._Sid v.O.
>:For so many years we gazed
.:at the stars.
:and wondered.
`

func TestImportTrelby(t *testing.T) {
	got, err := ImportTrelby(sampleTrelby)
	require.NoError(t, err)
	want := strings.Join([]string{
		"FADE IN:",
		"Ext. Night - earth orbit",
		"Lights start to become visible on Earth.",
		"Shot from orbit.",
		"",
		script.CharacterIndent + "SID V.O.",
		script.DialogueIndent + "For so many years we gazed",
		script.DialogueIndent + "at the stars.",
		script.DialogueIndent + "and wondered.",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestImportTrelbyDialogueAttribution(t *testing.T) {
	text, err := ImportTrelby(sampleTrelby)
	require.NoError(t, err)
	sp := script.Parse(text)

	var lines []string
	for _, ev := range sp.Events() {
		if ev.Type == domain.EventDialogue {
			assert.Equal(t, "SID V.O", ev.Character)
			lines = append(lines, ev.Description)
		}
	}
	assert.Equal(t, []string{"For so many years we gazed at the stars. and wondered."}, lines)
}

func TestImportTrelbyWithoutSentinel(t *testing.T) {
	got, err := ImportTrelby(".=INT. BARN - DAY\n..Hay.\n")
	require.NoError(t, err)
	assert.Equal(t, "INT. BARN - DAY\nHay.", got)
}

func TestImportTrelbyEscapedNewlines(t *testing.T) {
	got, err := ImportTrelby("#Start-Script\n..First.\\nSecond.\n")
	require.NoError(t, err)
	assert.Equal(t, "First.\nSecond.", got)
}

func TestImportTrelbyKeepsUnknownCodes(t *testing.T) {
	got, err := ImportTrelby("#Start-Script\n..First.\n.Hello there\n>Forced break\n")
	require.NoError(t, err)
	assert.Equal(t, "First.\nHello there\nForced break", got)
}

func TestImportTrelbyErrors(t *testing.T) {
	_, err := ImportTrelby("")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = ImportTrelby("#Version 3\n#Start-Script\n\n#Title-String\n")
	require.ErrorIs(t, err, ErrNoContent)
}

func TestExportTrelby(t *testing.T) {
	in := "INT. HOUSE - DAY\n\n\nJohn walks in.\n\nJOHN\n(quietly)\nHello.\nAnyone?\n7.\n\nCUT TO:\n"
	want := "#Title-String\n#Start-Script\n\n" +
		".=INT. HOUSE - DAY\n" +
		"..\n" +
		"..John walks in.\n" +
		"..\n" +
		"._JOHN\n" +
		">:(quietly)\n" +
		".:Hello.\n" +
		".:Anyone?\n" +
		"..\n" +
		"./CUT TO:\n" +
		"\n"
	assert.Equal(t, want, ExportTrelby(in))
	assert.Equal(t, "", ExportTrelby(" \n\n"))
}

func TestExportScreenplayUsesFullText(t *testing.T) {
	sp := script.Parse("JOHN\nHello there")
	assert.Equal(t, "#Title-String\n#Start-Script\n\n._JOHN\n>:Hello there\n\n", ExportScreenplay(sp))
}

type dialogueLine struct {
	character, text string
}

func summarize(sp domain.Screenplay) (scenes, events int, dialogue []dialogueLine) {
	for _, seq := range sp.Sequences {
		scenes += len(seq.Scenes)
		for _, sc := range seq.Scenes {
			events += len(sc.Events)
		}
	}
	for _, ev := range sp.Events() {
		if ev.Type == domain.EventDialogue {
			dialogue = append(dialogue, dialogueLine{ev.Character, ev.Description})
		}
	}
	return scenes, events, dialogue
}

func TestTrelbyRoundTrip(t *testing.T) {
	text := `FADE IN:

INT. KITCHEN - NIGHT

Water boils on the stove. Steam rises.

JOHN
(quietly)
Is anyone home?
I brought soup.

MARY (V.O.)
Upstairs!

CUT TO:

EXT. GARDEN - CONTINUOUS

12.
Rain falls.`

	direct := script.Parse(text)
	imported, err := ImportTrelby(ExportTrelby(text))
	require.NoError(t, err)
	roundTrip := script.Parse(imported)

	s1, e1, d1 := summarize(direct)
	s2, e2, d2 := summarize(roundTrip)
	assert.Equal(t, len(direct.Sequences), len(roundTrip.Sequences))
	assert.Equal(t, s1, s2, "scene count")
	assert.Equal(t, e1, e2, "event count")
	assert.Equal(t, d1, d2, "dialogue")
	assert.NotEmpty(t, d1)
}
