/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"goscreenplay/internal/domain"
)

func importedProject(t *testing.T) *ProjectHandle {
	t.Helper()
	ph, err := InitProject(t.TempDir(), domain.Project{Name: "Search Test"})
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ImportScript(ctx, ph, "night.txt", []byte(sampleScript), ImportOptions{}); err != nil {
		t.Fatalf("ImportScript: %v", err)
	}
	return ph
}

func TestSearchFullText(t *testing.T) {
	ph := importedProject(t)
	ctx := context.Background()

	res, err := Search(ctx, ph.Root, SearchQuery{Text: "engine"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 result for 'engine', got %d", len(res))
	}
	r := res[0]
	if r.Type != string(domain.EventDialogue) || r.Character != "ADA" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.StartLine != 6 || r.EndLine != 6 {
		t.Fatalf("lines = %d..%d, want 6..6", r.StartLine, r.EndLine)
	}
	if !strings.HasPrefix(r.Path, "seq:1/scene:2/event:") {
		t.Fatalf("unexpected path %q", r.Path)
	}
	if r.Text != "The engine is ready." {
		t.Fatalf("text = %q", r.Text)
	}
}

func TestSearchFilters(t *testing.T) {
	ph := importedProject(t)
	ctx := context.Background()

	// character match is case-insensitive and includes the parenthetical action
	res, err := Search(ctx, ph.Root, SearchQuery{Character: "ada"})
	if err != nil {
		t.Fatalf("search by character: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 documents for ADA, got %d", len(res))
	}
	if res[0].Type != string(domain.EventAction) || res[0].Text != "whispering" {
		t.Fatalf("expected the action first, got %+v", res[0])
	}

	res, err = Search(ctx, ph.Root, SearchQuery{Types: []string{string(domain.EventDialogue)}})
	if err != nil {
		t.Fatalf("search by type: %v", err)
	}
	if len(res) != 2 || res[0].Character != "ADA" || res[1].Character != "BOB" {
		t.Fatalf("unexpected dialogue results: %+v", res)
	}

	res, err = Search(ctx, ph.Root, SearchQuery{Types: []string{DocHeading}})
	if err != nil {
		t.Fatalf("search headings: %v", err)
	}
	if len(res) != 2 || res[1].Text != "EXT. ROOF - DAY" {
		t.Fatalf("unexpected heading results: %+v", res)
	}

	res, err = Search(ctx, ph.Root, SearchQuery{Text: "rain OR engine", Types: []string{string(domain.EventDescription)}})
	if err != nil {
		t.Fatalf("combined search: %v", err)
	}
	if len(res) != 1 || res[0].Text != "Rain hammers the glass." {
		t.Fatalf("unexpected combined results: %+v", res)
	}
}

func TestSearchPagination(t *testing.T) {
	ph := importedProject(t)
	ctx := context.Background()
	all, err := Search(ctx, ph.Root, SearchQuery{})
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(all) != 7 {
		t.Fatalf("expected 7 documents, got %d", len(all))
	}
	page, err := Search(ctx, ph.Root, SearchQuery{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("search page: %v", err)
	}
	if len(page) != 2 || page[0].DocID != all[2].DocID {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestSearchRequiresRoot(t *testing.T) {
	if _, err := Search(context.Background(), "", SearchQuery{Text: "x"}); err == nil {
		t.Fatalf("expected error for empty root")
	}
}

func TestSceneAtLine(t *testing.T) {
	ph := importedProject(t)
	ctx := context.Background()

	ref, found, err := SceneAtLine(ctx, ph.Root, 10)
	if err != nil {
		t.Fatalf("SceneAtLine: %v", err)
	}
	if !found {
		t.Fatalf("expected a scene covering line 10")
	}
	if ref.SequenceIndex != 1 || ref.SceneIndex != 0 || ref.Heading != "EXT. ROOF - DAY" || ref.Location != "ROOF" || ref.Time != "DAY" {
		t.Fatalf("unexpected ref: %+v", ref)
	}

	ref, found, err = SceneAtLine(ctx, ph.Root, 6)
	if err != nil || !found {
		t.Fatalf("SceneAtLine(6): found=%v err=%v", found, err)
	}
	if ref.SceneIndex != 1 || ref.Heading != "" || ref.Line != "ADA" || ref.StartLine != 4 {
		t.Fatalf("expected the ADA cue scene, got %+v", ref)
	}

	if _, found, err := SceneAtLine(ctx, ph.Root, 500); err != nil || found {
		t.Fatalf("line past the end: found=%v err=%v", found, err)
	}
}
