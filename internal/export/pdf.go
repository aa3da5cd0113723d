/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"goscreenplay/internal/domain"
	applog "goscreenplay/internal/log"
	"goscreenplay/internal/script"
	"goscreenplay/internal/storage"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt). Pages are US Letter set in Courier 12pt.
type PDFOptions struct {
	Title              string
	Author             string
	IncludeTransitions bool
	SceneNumbers       bool
	PageNumbers        bool
}

const (
	pageWidth    = 612.0
	marginLeft   = 108.0
	marginRight  = 72.0
	marginTop    = 72.0
	marginBottom = 72.0
	lineHeight   = 12.0
	textWidth    = pageWidth - marginLeft - marginRight
)

// block is the horizontal placement of one element kind, relative to the left margin.
type block struct {
	indent float64
	width  float64
	align  string
	upper  bool
}

var layout = map[script.LineKind]block{
	script.LineSceneHeading:  {0, textWidth, "L", true},
	script.LineDescription:   {0, textWidth, "L", false},
	script.LineCharacter:     {158.4, 230, "L", true},
	script.LineParenthetical: {115.2, 144, "L", false},
	script.LineDialogue:      {72, 252, "L", false},
	script.LineTransition:    {0, textWidth, "R", true},
}

// WritePDF renders the screenplay text to w.
func WritePDF(w io.Writer, sp domain.Screenplay, opt PDFOptions) (pages int, err error) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetAuthor(firstNonEmpty(opt.Author, "goscreenplay"), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if opt.PageNumbers {
		pdf.SetHeaderFuncMode(func() {
			if pdf.PageNo() < 2 {
				return
			}
			pdf.SetFont("Courier", "", 12)
			pdf.SetXY(pageWidth-marginRight-72, 36)
			pdf.CellFormat(72, lineHeight, strconv.Itoa(pdf.PageNo())+".", "", 0, "R", false, 0, "")
		}, true)
	}
	pdf.SetFont("Courier", "", 12)
	pdf.AddPage()

	text := strings.TrimSuffix(strings.ReplaceAll(sp.FullText, "\r", ""), "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	kinds := script.ClassifyLines(lines)
	sceneNo := 0
	blank := true
	for i, line := range lines {
		kind := kinds[i]
		switch kind {
		case script.LinePageNumber:
			continue
		case script.LineBlank:
			if !blank {
				pdf.Ln(lineHeight)
			}
			blank = true
			continue
		case script.LineTransition:
			if !opt.IncludeTransitions {
				continue
			}
		}
		blank = false
		b := layout[kind]
		t := strings.TrimSpace(line)
		if b.upper {
			t = strings.ToUpper(t)
		}
		if kind == script.LineSceneHeading {
			sceneNo++
			if opt.SceneNumbers {
				y := pdf.GetY()
				pdf.SetXY(marginLeft-36, y)
				pdf.CellFormat(30, lineHeight, strconv.Itoa(sceneNo), "", 0, "R", false, 0, "")
				pdf.SetY(y)
			}
		}
		pdf.SetX(marginLeft + b.indent)
		pdf.MultiCell(b.width, lineHeight, tr(t), "", b.align, false)
	}

	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	return pdf.PageCount(), nil
}

// ExportPDF writes the screenplay as a PDF file at outPath, creating parent directories.
func ExportPDF(sp domain.Screenplay, outPath string, opt PDFOptions) error {
	if strings.TrimSpace(outPath) == "" {
		return errors.New("output path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	pages, err := WritePDF(f, sp, opt)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close pdf: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(outPath)
		return err
	}
	applog.WithOperation(applog.WithComponent("export"), "pdf").Info("exported pdf",
		"path", outPath, "pages", pages, "scenes", sp.SceneCount())
	return nil
}

// ExportProjectPDF exports the project's screenplay. Relative paths land in the
// project's exports folder.
func ExportProjectPDF(ph *storage.ProjectHandle, outPath string, opt PDFOptions) error {
	if ph == nil {
		return storage.ErrNilHandle
	}
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, storage.ExportsDir, outPath)
	}
	if opt.Title == "" {
		opt.Title = firstNonEmpty(ph.Project.Metadata.Title, ph.Project.Name)
	}
	if opt.Author == "" {
		opt.Author = ph.Project.Metadata.Authors
	}
	return ExportPDF(ph.Project.Screenplay, outPath, opt)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
