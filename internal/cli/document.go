/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"goscreenplay/internal/domain"
	"goscreenplay/internal/formats"
)

// loadScreenplay reads and parses a script file with the configured parser options.
func (e *env) loadScreenplay(path string) (domain.Screenplay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Screenplay{}, fmt.Errorf("read %s: %w", path, err)
	}
	return formats.LoadWithOptions(path, data, e.cfg.ParserOptions())
}

func newParseCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a script and print a summary or the full tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sp, err := e.loadScreenplay(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sp)
			}
			fmt.Fprintf(out, "Sequences:  %d\n", len(sp.Sequences))
			fmt.Fprintf(out, "Scenes:     %d\n", sp.SceneCount())
			fmt.Fprintf(out, "Events:     %d\n", len(sp.Events()))
			fmt.Fprintf(out, "Characters: %s\n", strings.Join(sp.Characters(), ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parsed tree as JSON")
	return cmd
}

// outlineStyles are bound to the output's renderer so plain writers get plain text.
type outlineStyles struct {
	sequence lipgloss.Style
	scene    lipgloss.Style
	event    lipgloss.Style
	meta     lipgloss.Style
}

func newOutlineStyles(r *lipgloss.Renderer) outlineStyles {
	return outlineStyles{
		sequence: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFD7")),
		scene:    r.NewStyle().PaddingLeft(2),
		event:    r.NewStyle().PaddingLeft(6).Foreground(lipgloss.Color("#6C6C6C")),
		meta:     r.NewStyle().Italic(true).Foreground(lipgloss.Color("#6C6C6C")),
	}
}

func newOutlineCmd(e *env) *cobra.Command {
	var events bool
	cmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "Print the sequence and scene outline of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sp, err := e.loadScreenplay(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			st := newOutlineStyles(lipgloss.NewRenderer(out))
			for i, seq := range sp.Sequences {
				title := fmt.Sprintf("%d. %s %s - %s", i+1, seq.Type, strings.Join(seq.Location, " / "), seq.Time)
				fmt.Fprintln(out, st.sequence.Render(title)+" "+
					st.meta.Render(fmt.Sprintf("[%s] lines %d-%d", seq.Transition, seq.StartAtLine, seq.EndAtLine)))
				for j, sc := range seq.Scenes {
					label := sc.Scene
					if label == "" {
						label = sc.Line
					}
					fmt.Fprintln(out, st.scene.Render(fmt.Sprintf("%d.%d %s (%d events)", i+1, j+1, label, len(sc.Events))))
					if !events {
						continue
					}
					for _, ev := range sc.Events {
						fmt.Fprintln(out, st.event.Render(eventLine(ev)))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&events, "events", false, "list the events of every scene")
	return cmd
}

func eventLine(ev domain.SceneEvent) string {
	var b strings.Builder
	b.WriteString(string(ev.Type))
	if ev.Character != "" {
		b.WriteString(" " + ev.Character)
	}
	if ev.Behavior != "" {
		b.WriteString(" (" + ev.Behavior + ")")
	}
	b.WriteString(": ")
	b.WriteString(truncate(ev.Description, 60))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
