/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"log/slog"
	"regexp"
	"runtime/debug"
	"strings"

	"goscreenplay/internal/domain"
	applog "goscreenplay/internal/log"
)

var reSentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// sceneState is the mutable scan state of the segmenter for one sequence.
type sceneState struct {
	seq            *domain.ScreenplaySequence
	scenes         []domain.Scene
	scene          *domain.Scene
	events         []domain.SceneEvent
	event          *domain.SceneEvent
	dialogueAction string
	lastCharacter  string
	prev           LineKind
	lastLine       int
	// openParen is set while the current action event waits for its closing ")".
	openParen bool
}

func (st *sceneState) flushEvent() {
	if st.event == nil {
		return
	}
	st.events = append(st.events, *st.event)
	st.event = nil
	st.openParen = false
}

func (st *sceneState) closeScene() {
	st.flushEvent()
	if st.scene == nil {
		return
	}
	st.scene.Events = st.events
	if st.scene.Events == nil {
		st.scene.Events = []domain.SceneEvent{}
	}
	if st.lastLine > st.scene.EndAtLine {
		st.scene.EndAtLine = st.lastLine
	}
	st.scenes = append(st.scenes, *st.scene)
	st.scene = nil
	st.events = nil
}

func (st *sceneState) openScene(heading, line, raw string, lineNo int) {
	st.closeScene()
	st.scene = &domain.Scene{
		ID:                  domain.NewID(),
		Scene:               heading,
		Line:                line,
		RawLine:             raw,
		SequenceFullText:    st.seq.FullText,
		SequenceStartAtLine: st.seq.StartAtLine,
		SequenceEndAtLine:   st.seq.EndAtLine,
		StartAtLine:         lineNo,
		EndAtLine:           lineNo,
	}
}

// ensureScene opens an implicit scene for text that arrives before any heading or cue.
func (st *sceneState) ensureScene(line, raw string, lineNo int) {
	if st.scene == nil {
		st.openScene("", line, raw, lineNo)
	}
}

func (st *sceneState) newEvent(t domain.EventType, character, text, behavior string, lineNo int) {
	st.event = &domain.SceneEvent{
		ID:          domain.NewID(),
		Type:        t,
		Character:   character,
		Description: text,
		Behavior:    behavior,
		StartAtLine: lineNo,
		EndAtLine:   lineNo,
	}
}

// ParseScenes segments one sequence into beat-level scenes. Line numbers count from the
// sequence's StartAtLine. Any panic yields an empty scene list for the sequence.
func ParseScenes(seq domain.ScreenplaySequence) []domain.Scene {
	return parseScenes(seq, nil, DefaultOptions())
}

func parseScenes(seq domain.ScreenplaySequence, lineNos []int, opts Options) (scenes []domain.Scene) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithOperation(applog.WithComponent("script"), "parse_scenes").Error("scene segmentation failed",
				slog.Any("panic", r),
				slog.Int("sequence_start", seq.StartAtLine),
				slog.String("stack", string(debug.Stack())),
			)
			scenes = []domain.Scene{}
		}
	}()

	lines := splitLines(seq.FullText)
	if lineNos != nil && len(lineNos) != len(lines) {
		panic(fmt.Sprintf("line map has %d entries for %d lines", len(lineNos), len(lines)))
	}
	st := &sceneState{seq: &seq, prev: LineBlank, lastLine: seq.StartAtLine}

	for i, raw := range lines {
		lineNo := seq.StartAtLine + i
		if lineNos != nil {
			lineNo = lineNos[i]
		}
		raw = strings.TrimRight(raw, "\r")
		st.step(raw, lineNo)
		st.lastLine = lineNo
	}
	st.closeScene()

	if opts.SplitActionSentences {
		for i := range st.scenes {
			st.scenes[i].Events = splitActionSentences(st.scenes[i].Events)
		}
	}
	if st.scenes == nil {
		return []domain.Scene{}
	}
	return st.scenes
}

func (st *sceneState) step(raw string, lineNo int) {
	line := strings.TrimSpace(raw)
	kind := Classify(raw, st.prev)
	if kind == LinePageNumber {
		return
	}
	if st.openParen && st.event != nil && kind != LineBlank {
		kind = LineParenthetical
		st.prev = kind
		closed := strings.HasSuffix(line, ")")
		action := joinText(st.event.Description, strings.TrimSpace(strings.TrimSuffix(line, ")")))
		st.event.Description = action
		st.event.EndAtLine = lineNo
		st.dialogueAction = action
		if closed {
			st.flushEvent()
		}
		return
	}
	defer func() { st.prev = kind }()

	switch kind {
	case LineSceneHeading:
		st.openScene(line, line, raw, lineNo)
		st.dialogueAction = ""
		st.lastCharacter = ""
		return
	case LineCharacter:
		name, _ := ParseCharacterName(raw)
		st.openScene("", line, raw, lineNo)
		st.lastCharacter = name
		st.dialogueAction = ""
		return
	case LineBlank:
		st.flushEvent()
		return
	}

	isDialogue := kind == LineDialogue && st.lastCharacter != ""
	text := line
	if isDialogue {
		if cleaned := ParseDialogueLine(raw); cleaned != "" {
			text = cleaned
		}
	}

	switch {
	case strings.HasPrefix(line, "("):
		st.flushEvent()
		st.ensureScene(line, raw, lineNo)
		action := strings.TrimSpace(strings.NewReplacer("(", "", ")", "").Replace(line))
		st.dialogueAction = action
		st.newEvent(domain.EventAction, st.lastCharacter, action, "", lineNo)
		if strings.HasSuffix(line, ")") {
			st.flushEvent()
		} else {
			st.openParen = true
		}
	case st.event != nil:
		if st.event.Type == domain.EventDescription {
			st.dialogueAction = ""
		}
		if isDialogue && st.event.Type != domain.EventDialogue {
			st.flushEvent()
			st.newEvent(domain.EventDialogue, st.lastCharacter, text, st.dialogueAction, lineNo)
			return
		}
		st.event.Description = joinText(st.event.Description, text)
		st.event.EndAtLine = lineNo
	default:
		st.ensureScene(line, raw, lineNo)
		if isDialogue {
			st.newEvent(domain.EventDialogue, st.lastCharacter, text, st.dialogueAction, lineNo)
		} else {
			st.newEvent(domain.EventDescription, "", text, "", lineNo)
		}
	}
}

func joinText(a, b string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return b
	}
	return a + " " + b
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// splitActionSentences explodes every action event into one event per sentence.
// The first sentence keeps the original ID; later ones get fresh IDs.
func splitActionSentences(events []domain.SceneEvent) []domain.SceneEvent {
	out := make([]domain.SceneEvent, 0, len(events))
	for _, ev := range events {
		if ev.Type != domain.EventAction {
			out = append(out, ev)
			continue
		}
		first := true
		for _, s := range SplitSentences(ev.Description) {
			piece := ev
			piece.Description = s
			if !first {
				piece.ID = domain.NewID()
			}
			first = false
			out = append(out, piece)
		}
	}
	return out
}

// SplitSentences splits text on sentence punctuation followed by whitespace, strips the
// terminal punctuation of each piece and drops empty pieces.
func SplitSentences(text string) []string {
	var out []string
	for _, s := range reSentenceBoundary.Split(text, -1) {
		s = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".!?"))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
