package domain

import (
	"encoding/json"
	"testing"
)

func sampleScreenplay() Screenplay {
	return Screenplay{
		FullText: "INT. HOUSE - DAY\n",
		Sequences: []ScreenplaySequence{
			{
				ID:       NewID(),
				Location: []string{"HOUSE"},
				Type:     LocationInterior,
				Time:     TimeDay,
				Scenes: []Scene{
					{ID: NewID(), Scene: "INT. HOUSE - DAY", Events: []SceneEvent{
						{ID: NewID(), Type: EventDescription, Description: "A door creaks."},
					}},
					{ID: NewID(), Line: "JOHN", Events: []SceneEvent{
						{ID: NewID(), Type: EventDialogue, Character: "JOHN", Description: "Hello."},
						{ID: NewID(), Type: EventDialogue, Character: "JOHN", Description: "Anyone?"},
					}},
					{ID: NewID(), Line: "MARY", Events: []SceneEvent{
						{ID: NewID(), Type: EventDialogue, Character: "MARY", Description: "Here."},
					}},
				},
			},
		},
	}
}

func TestScreenplayAggregates(t *testing.T) {
	s := sampleScreenplay()
	if got := s.SceneCount(); got != 3 {
		t.Fatalf("SceneCount = %d, want 3", got)
	}
	if got := len(s.Events()); got != 4 {
		t.Fatalf("len(Events) = %d, want 4", got)
	}
	chars := s.Characters()
	if len(chars) != 2 || chars[0] != "JOHN" || chars[1] != "MARY" {
		t.Fatalf("Characters = %v", chars)
	}
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}

func TestProjectJSONFieldNames(t *testing.T) {
	p := Project{Name: "Pilot", Screenplay: sampleScreenplay()}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sp, ok := m["screenplay"].(map[string]any)
	if !ok {
		t.Fatalf("missing screenplay object: %v", m)
	}
	seqs, ok := sp["sequences"].([]any)
	if !ok || len(seqs) != 1 {
		t.Fatalf("unexpected sequences: %v", sp["sequences"])
	}
	seq := seqs[0].(map[string]any)
	for _, k := range []string{"id", "location", "type", "time", "transition", "fullText", "startAtLine", "endAtLine", "scenes"} {
		if _, ok := seq[k]; !ok {
			t.Fatalf("sequence JSON missing %q", k)
		}
	}
}
