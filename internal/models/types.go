package models

import "time"

// Result is what a single tool invocation hands back to the invocation layer.
type Result struct {
	Text    string    `json:"text"`
	IsError bool      `json:"is_error"`
	Kind    ErrorKind `json:"kind,omitempty"`
}

// Row maps column name to value. Column order lives in ResultSet.Columns.
type Row map[string]any

type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type SearchHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Invocation is the audit record emitted for every tool call.
type Invocation struct {
	ID         string        `json:"id"`
	Tool       string        `json:"tool"`
	IsError    bool          `json:"is_error"`
	Kind       ErrorKind     `json:"kind,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	OccurredAt time.Time     `json:"occurred_at"`
}
