// Package file serves static files out of a webroot directory.
package file

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("file not found")

var mimeTypes = map[string]string{
	"html": "text/html",
	"htm":  "text/html",
	"txt":  "text/plain",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

const defaultMimeType = "application/octet-stream"

// MimeType returns the content type for name, judged by its extension.
func MimeType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	return defaultMimeType
}

type File struct {
	Name        string
	Content     []byte
	ContentType string
	ModTime     time.Time
	// ETag is a strong validator derived from Content.
	ETag string
}

type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

// Resolve reads the file at the slash-separated urlPath under the webroot.
// Paths escaping the webroot and directories are reported as [ErrNotFound].
func (s *Store) Resolve(urlPath string) (File, error) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" || strings.Contains(urlPath, "..") {
		return File{}, ErrNotFound
	}

	name := filepath.Join(s.root, filepath.FromSlash(clean))

	info, err := os.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, ErrNotFound
		}
		return File{}, errors.Wrapf(err, "stat %s", clean)
	}
	if info.IsDir() {
		return File{}, ErrNotFound
	}

	content, err := os.ReadFile(name)
	if err != nil {
		return File{}, errors.Wrapf(err, "reading %s", clean)
	}

	return File{
		Name:        clean,
		Content:     content,
		ContentType: MimeType(clean),
		ModTime:     info.ModTime().UTC().Truncate(time.Second),
		ETag:        ETag(content),
	}, nil
}

func ETag(content []byte) string {
	return `"` + strconv.FormatUint(xxhash.Sum64(content), 16) + `"`
}
