/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// This file defines the structured screenplay tree produced by the parser.
// Sequences are split at scene headings, scenes are beat-level units opened by a heading
// or a character cue, and events are the typed spans of text inside a scene.
// All values are built in a single parse pass and treated as immutable afterwards.

// LocationType is the INT/EXT part of a slugline.
type LocationType string

const (
	LocationInterior         LocationType = "INT"
	LocationExterior         LocationType = "EXT"
	LocationInteriorExterior LocationType = "INT/EXT"
	LocationUnknown          LocationType = "UNKNOWN"
)

// TimeType is the time-of-day part of a slugline.
type TimeType string

const (
	TimeDay       TimeType = "DAY"
	TimeNight     TimeType = "NIGHT"
	TimeDawn      TimeType = "DAWN"
	TimeDusk      TimeType = "DUSK"
	TimeMorning   TimeType = "MORNING"
	TimeNoon      TimeType = "NOON"
	TimeAfternoon TimeType = "AFTERNOON"
	TimeEvening   TimeType = "EVENING"
	TimeMidnight  TimeType = "MIDNIGHT"
	TimeSunrise   TimeType = "SUNRISE"
	TimeSunset    TimeType = "SUNSET"
	TimeUnknown   TimeType = "UNKNOWN"
)

// EventType classifies a SceneEvent.
type EventType string

const (
	EventAction      EventType = "action"
	EventDialogue    EventType = "dialogue"
	EventDescription EventType = "description"
)

// Screenplay is the parse result for one document.
type Screenplay struct {
	FullText  string               `json:"fullText"`
	Sequences []ScreenplaySequence `json:"sequences"`
}

// ScreenplaySequence is the span of text between two scene headings.
type ScreenplaySequence struct {
	ID          string       `json:"id"`
	Location    []string     `json:"location"`
	Type        LocationType `json:"type"`
	Time        TimeType     `json:"time"`
	Transition  string       `json:"transition"`
	FullText    string       `json:"fullText"`
	StartAtLine int          `json:"startAtLine"`
	EndAtLine   int          `json:"endAtLine"`
	Scenes      []Scene      `json:"scenes"`
}

// Scene is a beat-level unit. Scene holds the heading text, or is empty when the scene
// was opened by a character cue. The Sequence* fields only mirror the parent sequence.
type Scene struct {
	ID                  string       `json:"id"`
	Scene               string       `json:"scene"`
	Line                string       `json:"line"`
	RawLine             string       `json:"rawLine"`
	SequenceFullText    string       `json:"sequenceFullText"`
	SequenceStartAtLine int          `json:"sequenceStartAtLine"`
	SequenceEndAtLine   int          `json:"sequenceEndAtLine"`
	StartAtLine         int          `json:"startAtLine"`
	EndAtLine           int          `json:"endAtLine"`
	Events              []SceneEvent `json:"events"`
}

// SceneEvent is a typed span of accumulated text.
type SceneEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Character   string    `json:"character"`
	Description string    `json:"description"`
	Behavior    string    `json:"behavior"`
	StartAtLine int       `json:"startAtLine"`
	EndAtLine   int       `json:"endAtLine"`
}

// NewID returns a fresh random identifier for tree nodes.
func NewID() string { return uuid.NewString() }

// SceneCount returns the number of scenes across all sequences.
func (s Screenplay) SceneCount() int {
	n := 0
	for _, seq := range s.Sequences {
		n += len(seq.Scenes)
	}
	return n
}

// Events returns all events in document order.
func (s Screenplay) Events() []SceneEvent {
	var out []SceneEvent
	for _, seq := range s.Sequences {
		for _, sc := range seq.Scenes {
			out = append(out, sc.Events...)
		}
	}
	return out
}

// Characters returns the distinct dialogue speakers in order of first appearance.
func (s Screenplay) Characters() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, ev := range s.Events() {
		if ev.Type != EventDialogue || ev.Character == "" {
			continue
		}
		if _, ok := seen[ev.Character]; ok {
			continue
		}
		seen[ev.Character] = struct{}{}
		out = append(out, ev.Character)
	}
	return out
}

// Project is the on-disk manifest of a screenplay project.
// It is intended to serialize to a human-readable JSON manifest.
type Project struct {
	Name       string     `json:"name"`
	Metadata   Metadata   `json:"metadata,omitempty"`
	Source     *Source    `json:"source,omitempty"`
	Screenplay Screenplay `json:"screenplay"`
}

// Metadata contains optional descriptive metadata for a project.
type Metadata struct {
	Title   string `json:"title,omitempty"`
	Authors string `json:"authors,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Source records where the current screenplay text was imported from.
type Source struct {
	FileName   string    `json:"fileName"`
	Format     string    `json:"format"`
	ImportedAt time.Time `json:"importedAt"`
}
