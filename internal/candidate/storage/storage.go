// Package storage keeps the original uploaded documents.
package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidFilename means nothing usable was left after sanitising
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrNotFound means no stored file has the given name
	ErrNotFound = errors.New("stored file not found")
)

// FileStore persists uploaded originals under sanitised names. Saving an
// existing name replaces the earlier file.
type FileStore interface {
	// Save stores r under SecureFilename(name) and returns that name
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	// Open returns the stored file. Local stores return an *os.File.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// LocalPath returns a filesystem path holding the stored bytes. cleanup
	// must be called once the path is no longer needed.
	LocalPath(ctx context.Context, name string) (path string, cleanup func(), err error)
	// Delete removes the stored file. A missing file is not an error.
	Delete(ctx context.Context, name string) error
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces a client supplied name to a flat ASCII file name:
// accents are decomposed and dropped, path separators and whitespace runs
// become underscores, anything outside [A-Za-z0-9_.-] is removed and
// leading or trailing dots and underscores are trimmed. "../../etc/passwd"
// becomes "etc_passwd" and "Jürgen Müller CV.pdf" becomes "Jurgen_Muller_CV.pdf".
func SecureFilename(name string) (string, error) {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	flat := strings.NewReplacer("/", " ", `\`, " ").Replace(b.String())
	joined := strings.Join(strings.Fields(flat), "_")
	cleaned := strings.Trim(unsafeFilenameChars.ReplaceAllString(joined, ""), "._")

	if cleaned == "" {
		return "", ErrInvalidFilename
	}
	return cleaned, nil
}

// checkStoredName rejects names that SecureFilename would have changed, so
// lookups can never leave the store.
func checkStoredName(name string) error {
	clean, err := SecureFilename(name)
	if err != nil || clean != name {
		return ErrNotFound
	}
	return nil
}
