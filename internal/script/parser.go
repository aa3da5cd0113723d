/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"log/slog"
	"strings"

	"goscreenplay/internal/domain"
	applog "goscreenplay/internal/log"
)

const (
	DefaultTransition = "CUT TO"
	UnknownLocation   = "Unknown location"
)

// Options tunes the parser. Zero values fall back to the defaults.
type Options struct {
	DefaultTransition    string
	SplitActionSentences bool
	UnknownLocation      string
}

// DefaultOptions returns the options used by Parse.
func DefaultOptions() Options {
	return Options{
		DefaultTransition:    DefaultTransition,
		SplitActionSentences: true,
		UnknownLocation:      UnknownLocation,
	}
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.DefaultTransition) == "" {
		o.DefaultTransition = DefaultTransition
	}
	if strings.TrimSpace(o.UnknownLocation) == "" {
		o.UnknownLocation = UnknownLocation
	}
	return o
}

// ParserState is the sequence splitter state threaded through the document scan.
type ParserState struct {
	PendingTransition string
	LineNumberBuffer  int

	opts        Options
	textBuffer  strings.Builder
	lineNumbers []int
	sequences   []domain.ScreenplaySequence
	lineMaps    [][]int
}

// NewParserState returns a fresh splitter state.
func NewParserState(opts Options) *ParserState {
	opts = opts.withDefaults()
	return &ParserState{PendingTransition: opts.DefaultTransition, opts: opts}
}

// Step feeds one physical line (CR already removed) with its 0-based line number.
func (ps *ParserState) Step(lineNumber int, line string) {
	if IsPageNumber(line) {
		return
	}
	a := AnalyzeLine(line)
	if a.IsTransition && a.TransitionType != "" {
		ps.PendingTransition = a.TransitionType
	}
	if !a.IsSceneHeading {
		if len(ps.sequences) == 0 {
			// Cold-open text before the first heading gets an implicit sequence;
			// blank lines and transitions alone do not open one.
			if strings.TrimSpace(line) == "" || a.IsTransition {
				return
			}
			ps.openSequence(lineNumber, a)
		}
		ps.appendLine(lineNumber, line)
		return
	}
	ps.flush()
	ps.openSequence(lineNumber, a)
	ps.appendLine(lineNumber, line)
}

// Finish performs the final flush and returns the sequences without scenes.
// Skipping the final flush would drop the content of the last sequence.
func (ps *ParserState) Finish() []domain.ScreenplaySequence {
	ps.flush()
	return ps.sequences
}

func (ps *ParserState) appendLine(lineNumber int, line string) {
	ps.textBuffer.WriteString(line)
	ps.textBuffer.WriteString("\n")
	ps.lineNumbers = append(ps.lineNumbers, lineNumber)
	ps.LineNumberBuffer = lineNumber
}

func (ps *ParserState) flush() {
	if len(ps.sequences) == 0 {
		return
	}
	last := &ps.sequences[len(ps.sequences)-1]
	last.FullText = ps.textBuffer.String()
	last.EndAtLine = ps.LineNumberBuffer
	ps.lineMaps[len(ps.lineMaps)-1] = ps.lineNumbers
	ps.textBuffer.Reset()
	ps.lineNumbers = nil
}

func (ps *ParserState) openSequence(lineNumber int, a LineAnalysis) {
	var prev *domain.ScreenplaySequence
	if n := len(ps.sequences); n > 0 {
		prev = &ps.sequences[n-1]
	}
	seq := domain.ScreenplaySequence{
		ID:          domain.NewID(),
		Location:    []string{ps.opts.UnknownLocation},
		Type:        domain.LocationUnknown,
		Time:        domain.TimeUnknown,
		Transition:  ps.PendingTransition,
		StartAtLine: lineNumber,
		EndAtLine:   lineNumber,
		Scenes:      []domain.Scene{},
	}
	if a.TransitionType != "" {
		seq.Transition = a.TransitionType
	}
	switch {
	case a.LocationName != "":
		seq.Location = []string{a.LocationName}
	case prev != nil:
		seq.Location = append([]string(nil), prev.Location...)
	}
	switch {
	case a.LocationType != "" && a.LocationType != domain.LocationUnknown:
		seq.Type = a.LocationType
	case prev != nil:
		seq.Type = prev.Type
	}
	switch {
	case a.TimeType != "" && a.TimeType != domain.TimeUnknown:
		seq.Time = a.TimeType
	case prev != nil:
		seq.Time = prev.Time
	}
	ps.sequences = append(ps.sequences, seq)
	ps.lineMaps = append(ps.lineMaps, nil)
}

// Parse converts screenplay text into sequences, scenes and events using DefaultOptions.
func Parse(fullText string) domain.Screenplay {
	return ParseWithOptions(fullText, DefaultOptions())
}

// ParseWithOptions is Parse with explicit options. It never fails: a sequence whose
// segmentation panics is logged and keeps an empty scene list.
func ParseWithOptions(fullText string, opts Options) domain.Screenplay {
	sp := domain.Screenplay{Sequences: []domain.ScreenplaySequence{}}
	if fullText == "" {
		return sp
	}
	opts = opts.withDefaults()
	ps := NewParserState(opts)

	var full strings.Builder
	full.Grow(len(fullText) + 1)
	for i, raw := range splitLines(fullText) {
		line := strings.ReplaceAll(raw, "\r", "")
		full.WriteString(line)
		full.WriteString("\n")
		ps.Step(i, line)
	}
	seqs := ps.Finish()
	for i := range seqs {
		seqs[i].Scenes = parseScenes(seqs[i], ps.lineMaps[i], opts)
	}
	sp.FullText = full.String()
	sp.Sequences = seqs
	if sp.Sequences == nil {
		sp.Sequences = []domain.ScreenplaySequence{}
	}

	applog.WithOperation(applog.WithComponent("script"), "parse").Debug("parsed screenplay",
		slog.Int("sequences", len(sp.Sequences)),
		slog.Int("scenes", sp.SceneCount()),
	)
	return sp
}
