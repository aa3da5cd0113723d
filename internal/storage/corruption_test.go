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
	"os"
	"path/filepath"
	"testing"
)

func TestDetectAndRebuildIndexHealthyIsNoop(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	proj := sampleProject("Healthy")
	if err := RebuildIndex(ctx, root, proj); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(ctx, root, proj)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if rebuilt {
		t.Fatalf("healthy index should not be rebuilt")
	}
}

func TestDetectAndRebuildIndexRecoversFromGarbage(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	idx := IndexPath(root)
	if err := os.MkdirAll(filepath.Dir(idx), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(idx, []byte("this is definitely not a sqlite database file, just padding to look like one"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	rebuilt, err := DetectAndRebuildIndex(ctx, root, sampleProject("Corrupt"))
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if !rebuilt {
		t.Fatalf("expected a rebuild for a corrupt index")
	}
	ents, err := os.ReadDir(filepath.Join(filepath.Dir(idx), "backups"))
	if err != nil || len(ents) == 0 {
		t.Fatalf("expected the corrupt index to be backed up (err=%v)", err)
	}
	res, err := Search(ctx, root, SearchQuery{Text: "rain"})
	if err != nil {
		t.Fatalf("Search after rebuild: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 result after rebuild, got %d", len(res))
	}
}
