/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package formats

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	applog "goscreenplay/internal/log"
)

var (
	reBlankRuns      = regexp.MustCompile(`\n{3,}`)
	reSentenceBreaks = regexp.MustCompile(`[.!?]\s+`)
)

// fdxParagraph is one <Paragraph Type="..."> element with its concatenated text runs.
type fdxParagraph struct {
	kind string
	text strings.Builder
}

// ImportFDX converts Final Draft XML into plain screenplay text. Paragraphs are found
// with a streaming tokenizer instead of a full XML parse, so damaged files still yield
// whatever paragraphs are intact. Without any paragraph the visible text is split into
// sentences as a best effort.
func ImportFDX(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("fdx: empty document: %w", ErrInvalidInput)
	}
	paragraphs := scanFDX(text)

	var lines []string
	for _, p := range paragraphs {
		lines = append(lines, fdxLines(p.kind, strings.Join(strings.Fields(p.text.String()), " "))...)
	}
	if len(lines) == 0 {
		applog.WithOperation(applog.WithComponent("formats"), "import_fdx").Warn("no paragraphs found, using text fallback")
		lines = fdxFallback(text)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("fdx: %w", ErrNoContent)
	}
	out := reBlankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("fdx: %w", ErrNoContent)
	}
	return out, nil
}

func scanFDX(text string) []*fdxParagraph {
	z := html.NewTokenizer(strings.NewReader(text))
	var (
		out    []*fdxParagraph
		stack  []*fdxParagraph
		skip   int
		inText int
	)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				applog.WithComponent("formats").Warn("fdx tokenizer stopped early", "err", z.Err())
			}
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "titlepage", "headerandfooter":
				if tt == html.StartTagToken {
					skip++
				}
			case "paragraph":
				if tt == html.SelfClosingTagToken || skip > 0 {
					continue
				}
				p := &fdxParagraph{}
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "type" {
						p.kind = string(val)
					}
				}
				stack = append(stack, p)
			case "text":
				if tt == html.StartTagToken && len(stack) > 0 {
					inText++
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "titlepage", "headerandfooter":
				if skip > 0 {
					skip--
				}
			case "paragraph":
				if len(stack) == 0 {
					continue
				}
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				out = append(out, p)
			case "text":
				if inText > 0 {
					inText--
				}
			}
		case html.TextToken:
			if inText > 0 && len(stack) > 0 {
				stack[len(stack)-1].text.Write(z.Text())
			}
		}
	}
}

// fdxLines maps one paragraph to output lines following the plain-text conventions the
// line classifier expects.
func fdxLines(kind, text string) []string {
	if text == "" {
		return nil
	}
	switch kind {
	case "Scene Heading":
		return []string{strings.ToUpper(text)}
	case "Character":
		return []string{"", strings.ToUpper(text)}
	case "Parenthetical":
		if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
			return []string{text}
		}
		return []string{"(" + text + ")"}
	case "Action":
		return []string{"", text}
	case "Transition":
		return []string{"", strings.ToUpper(text)}
	default:
		return []string{text}
	}
}

func fdxFallback(text string) []string {
	z := html.NewTokenizer(strings.NewReader(text))
	var sb strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.WriteByte(' ')
			sb.Write(z.Text())
		}
	}
	flat := strings.Join(strings.Fields(sb.String()), " ")
	var lines []string
	for _, s := range reSentenceBreaks.Split(flat, -1) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
