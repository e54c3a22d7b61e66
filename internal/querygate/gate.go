// Package querygate classifies SQL text as allowed or denied under a read-only policy.
//
// KeywordGate is a best-effort string filter, not a parser. Comments, stored
// procedure calls and multi-statement batches can slip past it; the database
// role used by the connector must itself be read-only.
package querygate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
)

var DefaultForbiddenKeywords = []string{"drop", "delete", "update", "insert"}

type Verdict struct {
	Allowed bool
	Keyword string
	Reason  string
}

func Allow() Verdict {
	return Verdict{Allowed: true}
}

func Deny(keyword, reason string) Verdict {
	return Verdict{Keyword: keyword, Reason: reason}
}

// Err converts a deny verdict into a StatementNotAllowed error. It is nil for allow.
func (v Verdict) Err() error {
	if v.Allowed {
		return nil
	}
	return models.NewError(models.KindStatementNotAllowed, v.Reason, nil)
}

// Gate decides whether a statement may run.
type Gate interface {
	Classify(sql string) Verdict
}

type KeywordGate struct {
	readOnly bool
	keywords []string
}

func NewKeywordGate(readOnly bool, forbidden []string) *KeywordGate {
	if forbidden == nil {
		forbidden = DefaultForbiddenKeywords
	}

	keywords := make([]string, 0, len(forbidden))
	for _, k := range forbidden {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}

	return &KeywordGate{readOnly: readOnly, keywords: keywords}
}

func (g *KeywordGate) ReadOnly() bool {
	return g.readOnly
}

func (g *KeywordGate) Keywords() []string {
	out := make([]string, len(g.keywords))
	copy(out, g.keywords)
	return out
}

// Classify denies sql when read-only mode is on and any forbidden keyword
// appears followed by whitespace. There is no word-boundary check before the
// keyword, so "last_update = 1" is denied too.
func (g *KeywordGate) Classify(sql string) Verdict {
	if !g.readOnly {
		return Allow()
	}

	lower := strings.ToLower(sql)
	for _, kw := range g.keywords {
		if containsFollowedBySpace(lower, kw) {
			return Deny(kw, fmt.Sprintf("only read-only queries are allowed in read-only mode (found %q)", strings.ToUpper(kw)))
		}
	}

	return Allow()
}

func containsFollowedBySpace(s, kw string) bool {
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], kw)
		if i < 0 {
			return false
		}
		end := offset + i + len(kw)
		if end < len(s) {
			r, _ := utf8.DecodeRuneInString(s[end:])
			if unicode.IsSpace(r) {
				return true
			}
		}
		offset += i + 1
	}
	return false
}
