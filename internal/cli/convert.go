/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"goscreenplay/internal/export"
	"goscreenplay/internal/formats"
	"goscreenplay/internal/script"
)

func newConvertCmd(e *env) *cobra.Command {
	var (
		to, from, outPath   string
		transitions, sceneN bool
	)
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a script to plain text, Trelby or PDF",
		Long: `Convert a script to another representation.

  text    normalized screenplay text (the parser's input)
  trelby  Trelby script
  pdf     Courier 12pt US Letter PDF (requires -o)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			format := formats.Detect(args[0], data)
			if from != "" {
				if format, err = formats.ParseFormat(from); err != nil {
					return err
				}
			}
			text, err := formats.Import(format, data)
			if err != nil {
				return err
			}

			var rendered string
			switch strings.ToLower(to) {
			case "text", "txt":
				rendered = text
			case "trelby":
				rendered = formats.ExportTrelby(text)
			case "pdf":
				if outPath == "" {
					return errors.New("pdf output requires -o")
				}
				sp := script.ParseWithOptions(text, e.cfg.ParserOptions())
				opt := export.PDFOptions{
					Title:              strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])),
					IncludeTransitions: transitions,
					SceneNumbers:       sceneN,
					PageNumbers:        true,
				}
				if err := export.ExportPDF(sp, outPath, opt); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outPath)
				return nil
			default:
				return fmt.Errorf("unknown target %q (want text, trelby or pdf)", to)
			}
			if !strings.HasSuffix(rendered, "\n") {
				rendered += "\n"
			}
			if outPath == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
				return err
			}
			if err := os.WriteFile(outPath, []byte(rendered), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "text", "target format: text, trelby or pdf")
	cmd.Flags().StringVar(&from, "from", "", "source format (default: detect from name and content)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&transitions, "transitions", true, "pdf: print transitions")
	cmd.Flags().BoolVar(&sceneN, "scene-numbers", false, "pdf: number scene headings")
	return cmd
}
