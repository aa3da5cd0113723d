/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"goscreenplay/internal/crash"
	"goscreenplay/internal/domain"
	"goscreenplay/internal/formats"
	"goscreenplay/internal/storage"
)

func newInitCmd(e *env) *cobra.Command {
	var title, authors string
	cmd := &cobra.Command{
		Use:   "init <dir> <name>",
		Short: "Create a new screenplay project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			proj := domain.Project{Name: args[1], Metadata: domain.Metadata{Title: title, Authors: authors}}
			ph, err := storage.InitProject(abs, proj)
			if err != nil {
				return fmt.Errorf("init project: %w", err)
			}
			defer crash.Recover(ph)
			fmt.Fprintln(cmd.OutOrStdout(), "Created project at", ph.Root)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "screenplay title")
	cmd.Flags().StringVar(&authors, "authors", "", "screenplay authors")
	return cmd
}

func newImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir> <file>",
		Short: "Import a script file into a project and index it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			defer crash.Recover(ph)
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			opts := storage.ImportOptions{Parser: e.cfg.ParserOptions(), SnapshotKeep: e.cfg.Storage.SnapshotKeep}
			if err := storage.ImportScript(cmd.Context(), ph, args[1], data, opts); err != nil {
				return err
			}
			sp := ph.Project.Screenplay
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d sequences, %d scenes, %d characters\n",
				filepath.Base(args[1]), len(sp.Sequences), sp.SceneCount(), len(sp.Characters()))
			return nil
		},
	}
}

// openIndexed opens a project and rebuilds its index when it is missing or corrupt.
func openIndexed(ctx context.Context, dir string) (*storage.ProjectHandle, error) {
	ph, err := storage.Open(dir)
	if err != nil {
		return nil, err
	}
	if _, err := storage.DetectAndRebuildIndex(ctx, ph.Root, ph.Project); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	return ph, nil
}

func newSearchCmd(e *env) *cobra.Command {
	var (
		character string
		types     []string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "search <dir> [query]",
		Short: "Search headings and events of a project",
		Long: `Search the project index.

The query uses SQLite FTS5 syntax: terms, "quoted phrases", AND/OR/NOT.
Without a query all documents matching the filters are listed.

Examples:
  goscreenplay search ./heist vault
  goscreenplay search ./heist --character ADA --type dialogue`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := openIndexed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer crash.Recover(ph)
			q := storage.SearchQuery{Character: character, Types: types, Limit: limit}
			if len(args) == 2 {
				q.Text = args[1]
			}
			results, err := storage.Search(cmd.Context(), ph.Root, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No results found.")
				return nil
			}
			for _, r := range results {
				who := ""
				if r.Character != "" {
					who = " " + r.Character
				}
				text := r.Text
				if r.Snippet != "" {
					text = r.Snippet
				}
				fmt.Fprintf(out, "%4d  %-10s%s  %s\n", r.StartLine+1, r.Type, who, text)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&character, "character", "c", "", "only documents spoken by this character")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "document types: heading, action, dialogue, description")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "max results")
	return cmd
}

func newSceneAtCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "scene-at <dir> <line>",
		Short: "Show the scene covering a 1-based script line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := strconv.Atoi(args[1])
			if err != nil || line < 1 {
				return fmt.Errorf("invalid line %q", args[1])
			}
			ph, err := openIndexed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer crash.Recover(ph)
			ref, found, err := storage.SceneAtLine(cmd.Context(), ph.Root, line-1)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintf(out, "No scene at line %d.\n", line)
				return nil
			}
			label := ref.Heading
			if label == "" {
				label = ref.Line
			}
			fmt.Fprintf(out, "Sequence %d, scene %d: %s\n", ref.SequenceIndex+1, ref.SceneIndex+1, label)
			fmt.Fprintf(out, "Location: %s %s - %s\n", ref.Type, ref.Location, ref.Time)
			fmt.Fprintf(out, "Lines:    %d-%d\n", ref.StartLine+1, ref.EndLine+1)
			return nil
		},
	}
}

func newDiffCmd(e *env) *cobra.Command {
	var stat bool
	cmd := &cobra.Command{
		Use:   "diff <dir> <file>",
		Short: "Compare a script file with the project's last imported snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			defer crash.Recover(ph)
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			text, err := formats.Import(formats.Detect(args[1], data), data)
			if err != nil {
				return err
			}
			d, err := storage.DiffAgainstLatestSnapshot(cmd.Context(), ph, text)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !stat {
				for _, l := range d.Lines {
					if strings.HasPrefix(l, " ") {
						continue
					}
					fmt.Fprintln(out, l)
				}
			}
			base := "no snapshot"
			if d.HasBase {
				base = d.Base.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "%d insertions(+), %d deletions(-) against %s\n", d.Inserted, d.Deleted, base)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stat, "stat", false, "only print the summary")
	return cmd
}
