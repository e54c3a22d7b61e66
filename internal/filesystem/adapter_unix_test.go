//go:build unix

package filesystem

import (
	"context"
	"errors"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
)

func TestReadText_FIFORejectedWithoutBlocking(t *testing.T) {
	a, root := newTestAdapter(t)
	if err := syscall.Mkfifo(filepath.Join(root, "pipe"), 0o644); err != nil {
		t.Skipf("mkfifo unavailable: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := a.ReadText(context.Background(), "pipe")
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, models.ErrInvalidRequest) {
			t.Errorf("error: %v, want InvalidRequest", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadText blocked on a FIFO")
	}
}
