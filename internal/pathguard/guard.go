// Package pathguard confines caller-supplied paths to a root directory.
package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
)

// Resolution is a normalized absolute path known to be inside the guard's root.
// It can only be produced by Guard.Resolve.
type Resolution struct {
	path string
}

func (r Resolution) Path() string {
	return r.path
}

func (r Resolution) String() string {
	return r.path
}

type Guard struct {
	root string
}

func New(root string) (*Guard, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	return &Guard{root: filepath.Clean(abs)}, nil
}

func (g *Guard) Root() string {
	return g.root
}

// Resolve treats requested as relative to the root, normalizes it and rejects
// anything that lands outside. No filesystem access happens here.
func (g *Guard) Resolve(requested string) (Resolution, error) {
	if strings.ContainsRune(requested, 0) {
		return Resolution{}, models.NewError(models.KindInvalidRequest, "path must not contain NUL bytes", nil)
	}

	rel := strings.TrimLeft(requested, "/"+string(os.PathSeparator))

	// Clean before the prefix check; checking first lets "a/../../x" through.
	full := filepath.Clean(filepath.Join(g.root, rel))

	if !within(full, g.root) {
		return Resolution{}, models.NewError(
			models.KindPathEscape,
			fmt.Sprintf("access denied: path %q must stay within the allowed directory", requested),
			nil,
		)
	}

	return Resolution{path: full}, nil
}

// Rel returns the resolution relative to the root, for display.
func (g *Guard) Rel(r Resolution) string {
	rel, err := filepath.Rel(g.root, r.path)
	if err != nil {
		return r.path
	}
	return rel
}

func within(p, root string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(p, prefix)
}
