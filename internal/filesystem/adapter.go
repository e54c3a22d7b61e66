// Package filesystem performs file I/O under a pathguard root.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/pathguard"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"
)

const DefaultMaxReadBytes int64 = 10 << 20

type Listing struct {
	Found   bool
	Path    string
	Entries []string
}

type Document struct {
	Found   bool
	Path    string
	Content string
	// Lossy is set when undecodable bytes were replaced with U+FFFD.
	Lossy bool
}

type WriteResult struct {
	Path  string
	Bytes int
}

type Adapter struct {
	guard        *pathguard.Guard
	maxReadBytes int64
	logger       *zerolog.Logger
}

func NewAdapter(guard *pathguard.Guard, maxReadBytes int64, logger *zerolog.Logger) *Adapter {
	if maxReadBytes <= 0 {
		maxReadBytes = DefaultMaxReadBytes
	}
	return &Adapter{
		guard:        guard,
		maxReadBytes: maxReadBytes,
		logger:       logger,
	}
}

func (a *Adapter) Guard() *pathguard.Guard {
	return a.guard
}

// List returns the immediate children of path in directory-listing order.
// A missing path is reported through Listing.Found, not as an error.
func (a *Adapter) List(ctx context.Context, path string) (Listing, error) {
	res, err := a.guard.Resolve(path)
	if err != nil {
		return Listing{}, err
	}
	return a.list(ctx, res)
}

func (a *Adapter) list(_ context.Context, res pathguard.Resolution) (Listing, error) {
	listing := Listing{Path: a.guard.Rel(res)}

	info, err := os.Stat(res.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return listing, nil
	}
	if err != nil {
		return listing, ioFailure("failed to stat directory", err)
	}
	if !info.IsDir() {
		return listing, models.NewError(models.KindInvalidRequest, fmt.Sprintf("%s is not a directory", listing.Path), nil)
	}

	entries, err := os.ReadDir(res.Path())
	if err != nil {
		return listing, ioFailure("failed to list directory", err)
	}

	listing.Found = true
	listing.Entries = make([]string, 0, len(entries))
	for _, e := range entries {
		listing.Entries = append(listing.Entries, e.Name())
	}

	a.logger.Debug().Str("path", res.Path()).Int("entries", len(listing.Entries)).Msg("Directory listed")
	return listing, nil
}

// ReadText returns the decoded content of path. Invalid UTF-8 is replaced
// rather than rejected: the lossy Document is returned together with a
// DecodeError so callers can decide whether to use it.
func (a *Adapter) ReadText(ctx context.Context, path string) (Document, error) {
	res, err := a.guard.Resolve(path)
	if err != nil {
		return Document{}, err
	}
	return a.readText(ctx, res)
}

func (a *Adapter) readText(_ context.Context, res pathguard.Resolution) (Document, error) {
	doc := Document{Path: a.guard.Rel(res)}

	info, err := os.Stat(res.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, ioFailure("failed to stat file", err)
	}
	if info.IsDir() {
		return doc, models.NewError(models.KindInvalidRequest, fmt.Sprintf("%s is a directory", doc.Path), nil)
	}
	// FIFOs, sockets and devices can block or stream forever.
	if !info.Mode().IsRegular() {
		return doc, models.NewError(models.KindInvalidRequest, fmt.Sprintf("%s is not a regular file", doc.Path), nil)
	}
	if info.Size() > a.maxReadBytes {
		return doc, a.tooLarge(info.Size())
	}

	raw, err := a.readLimited(res.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, ioFailure("failed to read file", err)
	}
	// The file may have grown since Stat.
	if int64(len(raw)) > a.maxReadBytes {
		return doc, a.tooLarge(int64(len(raw)))
	}

	doc.Found = true
	text, lossy, err := decodeUTF8(raw)
	if err != nil {
		return doc, models.NewError(models.KindDecode, "failed to decode file", err)
	}
	doc.Content = text
	doc.Lossy = lossy

	if lossy {
		a.logger.Warn().Str("path", res.Path()).Msg("File is not valid UTF-8, undecodable bytes replaced")
		return doc, models.NewError(models.KindDecode, "file is not valid UTF-8; undecodable bytes were replaced", nil)
	}
	return doc, nil
}

// WriteText replaces the content of path, creating parent directories as needed.
func (a *Adapter) WriteText(ctx context.Context, path string, content string) (WriteResult, error) {
	res, err := a.guard.Resolve(path)
	if err != nil {
		return WriteResult{}, err
	}
	return a.writeText(ctx, res, content)
}

func (a *Adapter) writeText(_ context.Context, res pathguard.Resolution, content string) (WriteResult, error) {
	if res.Path() == a.guard.Root() {
		return WriteResult{}, models.NewError(models.KindInvalidRequest, "cannot write to the root directory itself", nil)
	}

	if err := atomicWriteFile(res.Path(), []byte(content)); err != nil {
		return WriteResult{}, ioFailure("failed to write file", err)
	}

	a.logger.Debug().Str("path", res.Path()).Int("bytes", len(content)).Msg("File written")
	return WriteResult{Path: a.guard.Rel(res), Bytes: len(content)}, nil
}

func (a *Adapter) readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, a.maxReadBytes+1))
}

func (a *Adapter) tooLarge(size int64) error {
	return models.NewError(models.KindInvalidRequest,
		fmt.Sprintf("file too large: %d bytes exceeds limit of %d", size, a.maxReadBytes), nil)
}

func decodeUTF8(raw []byte) (string, bool, error) {
	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false, err
	}
	return string(decoded), !utf8.Valid(raw), nil
}

func ioFailure(msg string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		msg += " (permission denied)"
	}
	return models.NewError(models.KindIOFailure, msg, err)
}
