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
	"errors"
	"testing"

	"goscreenplay/internal/domain"
	"goscreenplay/internal/formats"
	"goscreenplay/internal/script"
)

const sampleTrelby = `#Version 3
#Title-String Roof

#Start-Script
.=EXT. ROOF - DAY
..
..Rain hammers the glass.
..
._BOB
.:We should go.
`

func TestImportScriptEndToEnd(t *testing.T) {
	ph, err := InitProject(t.TempDir(), domain.Project{Name: "Import"})
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	ctx := context.Background()
	if err := ImportScript(ctx, ph, "/some/where/roof.trelby", []byte(sampleTrelby), ImportOptions{SnapshotKeep: 5}); err != nil {
		t.Fatalf("ImportScript: %v", err)
	}

	if ph.Project.Source == nil || ph.Project.Source.FileName != "roof.trelby" || ph.Project.Source.Format != string(formats.FormatTrelby) {
		t.Fatalf("unexpected source: %+v", ph.Project.Source)
	}
	if ph.Project.Source.ImportedAt.IsZero() {
		t.Fatalf("ImportedAt not set")
	}

	txt, err := ReadScript(ph)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if txt+"\n" != ph.Project.Screenplay.FullText {
		t.Fatalf("stored script %q differs from parsed full text %q", txt, ph.Project.Screenplay.FullText)
	}

	reopened, err := Open(ph.Root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sp := reopened.Project.Screenplay
	if len(sp.Sequences) != 1 || sp.Sequences[0].Location[0] != "ROOF" {
		t.Fatalf("unexpected sequences after reopen: %+v", sp.Sequences)
	}
	chars := sp.Characters()
	if len(chars) != 1 || chars[0] != "BOB" {
		t.Fatalf("characters = %v, want [BOB]", chars)
	}

	res, err := Search(ctx, ph.Root, SearchQuery{Character: "bob"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].Text != "We should go." {
		t.Fatalf("unexpected search results: %+v", res)
	}

	latest, _, err := GetLatestScriptSnapshot(ctx, ph)
	if err != nil {
		t.Fatalf("GetLatestScriptSnapshot: %v", err)
	}
	if latest != txt {
		t.Fatalf("snapshot %q differs from stored script", latest)
	}
}

func TestImportScriptReplacesPreviousContent(t *testing.T) {
	ph := importedProject(t)
	ctx := context.Background()
	opts := ImportOptions{Parser: script.DefaultOptions(), SnapshotKeep: 1}
	if err := ImportScript(ctx, ph, "cave.txt", []byte("INT. CAVE - DAY\n\nWater drips.\n"), opts); err != nil {
		t.Fatalf("second ImportScript: %v", err)
	}
	if res, err := Search(ctx, ph.Root, SearchQuery{Text: "engine"}); err != nil || len(res) != 0 {
		t.Fatalf("old content still indexed: %d results, err=%v", len(res), err)
	}
	if res, err := Search(ctx, ph.Root, SearchQuery{Text: "drips"}); err != nil || len(res) != 1 {
		t.Fatalf("new content not indexed: %d results, err=%v", len(res), err)
	}
	list, err := ListScriptSnapshots(ctx, ph, 10)
	if err != nil {
		t.Fatalf("ListScriptSnapshots: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected snapshots pruned to 1, got %d", len(list))
	}
}

func TestImportScriptRejectsEmptyInput(t *testing.T) {
	ph, err := InitProject(t.TempDir(), domain.Project{Name: "Empty"})
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	err = ImportScript(context.Background(), ph, "blank.txt", []byte("  \n\n"), ImportOptions{})
	if !errors.Is(err, formats.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := ImportScript(context.Background(), nil, "x.txt", []byte("x"), ImportOptions{}); !errors.Is(err, ErrNilHandle) {
		t.Fatalf("expected ErrNilHandle, got %v", err)
	}
}
