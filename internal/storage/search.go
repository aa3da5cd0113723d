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
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DocHeading is the document type of indexed scene headings. Events are indexed under
// their event type (action, dialogue, description).
const DocHeading = "heading"

// SearchQuery describes a search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Character matches the speaking character case-insensitively.
// Types restricts to document types: heading, action, dialogue, description.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text      string
	Character string
	Types     []string
	Limit     int
	Offset    int
}

// SearchResult represents a single match row.
// Snippet is a highlighted excerpt using [ ] markers when FTS text is used.
type SearchResult struct {
	DocID     int64
	Type      string
	Path      string
	Character string
	Text      string
	StartLine int
	EndLine   int
	Snippet   string
}

// Search performs full-text search with optional filters over the embedded index.
// When q.Text is empty, it falls back to a non-FTS scan over documents with filters applied.
func Search(ctx context.Context, projectRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT d.doc_id, d.type, d.path, COALESCE(d.character,''), COALESCE(d.text,''), d.start_line, d.end_line, snippet(fts_documents, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_documents JOIN documents d ON fts_documents.rowid = d.doc_id\n")
		sb.WriteString("WHERE fts_documents MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT d.doc_id, d.type, d.path, COALESCE(d.character,''), COALESCE(d.text,''), d.start_line, d.end_line, NULL\n")
		sb.WriteString("FROM documents d\nWHERE 1=1\n")
	}
	if len(q.Types) > 0 {
		sb.WriteString(" AND d.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, strings.ToLower(strings.TrimSpace(t)))
		}
	}
	if s := strings.TrimSpace(q.Character); s != "" {
		sb.WriteString(" AND lower(d.character) = ?\n")
		args = append(args, strings.ToLower(s))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("ORDER BY d.start_line, d.doc_id\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.DocID, &r.Type, &r.Path, &r.Character, &r.Text, &r.StartLine, &r.EndLine, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SceneRef locates a scene inside the screenplay tree. SceneIndex counts within the sequence.
type SceneRef struct {
	SequenceIndex int
	SceneIndex    int
	SceneID       string
	Heading       string
	Line          string
	StartLine     int
	EndLine       int
	Location      string
	Type          string
	Time          string
}

// SceneAtLine maps a source line number (0-based) to the innermost scene covering it.
// found is false when no scene covers the line.
func SceneAtLine(ctx context.Context, projectRoot string, line int) (ref SceneRef, found bool, err error) {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return SceneRef{}, false, err
	}
	defer db.Close()
	const q = `SELECT s.seq_idx,
		(SELECT COUNT(*) FROM scenes p WHERE p.seq_idx = s.seq_idx AND p.scene_idx < s.scene_idx),
		s.id, COALESCE(s.heading,''), COALESCE(s.line,''), s.start_line, s.end_line,
		q.location, q.type, q.time
		FROM scenes s JOIN sequences q ON q.seq_idx = s.seq_idx
		WHERE s.start_line <= ? AND s.end_line >= ?
		ORDER BY s.start_line DESC, s.scene_idx DESC
		LIMIT 1`
	err = db.QueryRowContext(ctx, q, line, line).Scan(&ref.SequenceIndex, &ref.SceneIndex, &ref.SceneID,
		&ref.Heading, &ref.Line, &ref.StartLine, &ref.EndLine, &ref.Location, &ref.Type, &ref.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return SceneRef{}, false, nil
	}
	if err != nil {
		return SceneRef{}, false, fmt.Errorf("scene at line: %w", err)
	}
	return ref, true, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
