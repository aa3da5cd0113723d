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
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"goscreenplay/internal/domain"
	"goscreenplay/internal/formats"
	applog "goscreenplay/internal/log"
	"goscreenplay/internal/script"
)

// ImportOptions tunes ImportScript. A zero SnapshotKeep keeps every snapshot.
type ImportOptions struct {
	Parser       script.Options
	SnapshotKeep int
}

// ImportScript replaces the project's screenplay with the contents of a script file.
// The normalized text is stored under script/, parsed into the manifest, indexed and
// recorded as a snapshot.
func ImportScript(ctx context.Context, ph *ProjectHandle, name string, data []byte, opts ImportOptions) error {
	if ph == nil {
		return ErrNilHandle
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "import").With(
		slog.String("root", ph.Root), slog.String("file", filepath.Base(name)))

	format := formats.Detect(name, data)
	text, err := formats.Import(format, data)
	if err != nil {
		return fmt.Errorf("import %s: %w", filepath.Base(name), err)
	}
	if err := WriteScript(ph, text); err != nil {
		return err
	}
	sp := script.ParseWithOptions(text, opts.Parser)
	now := time.Now()
	ph.Project.Screenplay = sp
	ph.Project.Source = &domain.Source{FileName: filepath.Base(name), Format: string(format), ImportedAt: now.UTC()}
	if err := Save(ph); err != nil {
		return err
	}
	if err := RebuildIndex(ctx, ph.Root, ph.Project); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := SaveScriptSnapshot(ctx, ph, text, now); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if opts.SnapshotKeep > 0 {
		if n, err := PruneOldScriptSnapshots(ctx, ph, opts.SnapshotKeep); err != nil {
			l.Warn("prune snapshots failed", slog.Any("err", err))
		} else if n > 0 {
			l.Debug("pruned snapshots", slog.Int64("removed", n))
		}
	}
	l.Info("script imported",
		slog.String("format", string(format)),
		slog.Int("sequences", len(sp.Sequences)),
		slog.Int("scenes", sp.SceneCount()),
	)
	return nil
}
