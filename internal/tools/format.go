package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/fetch"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
)

// encodeRows renders rows as a JSON array of objects with keys in column
// order. encoding/json would sort map keys.
func encodeRows(rs *models.ResultSet) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range rs.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range rs.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return "", err
			}
			value, err := json.Marshal(row[col])
			if err != nil {
				return "", fmt.Errorf("column %s: %w", col, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

func formatHits(hits []models.SearchHit) string {
	blocks := make([]string, 0, len(hits))
	for _, h := range hits {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nLink: %s\nSnippet: %s", h.Title, h.Link, h.Snippet))
	}
	return strings.Join(blocks, "\n---\n")
}

func formatPage(p fetch.Page) string {
	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	}
	fmt.Fprintf(&b, "URL: %s\n\n", p.URL)
	b.WriteString(p.Text)
	if p.Truncated {
		b.WriteString("\n\n[content truncated]")
	}
	return b.String()
}
