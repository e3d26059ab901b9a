// Package media stores uploaded portfolio files under content-addressed keys.
package media

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// KeyPrefix is the directory every media key lives under.
const KeyPrefix = "uploads/"

// mediaDomainKey separates upload digests from any other keyed BLAKE3 use.
// ASCII "grafixr.media.upload", zero-padded to 32 bytes.
var mediaDomainKey = [32]byte{ //nolint:gochecknoglobals // fixed hash key
	'g', 'r', 'a', 'f', 'i', 'x', 'r', '.', 'm', 'e', 'd', 'i', 'a', '.',
	'u', 'p', 'l', 'o', 'a', 'd',
}

var (
	keyPattern = regexp.MustCompile(`^uploads/[0-9a-f]{32}\.[a-z0-9]{1,8}$`) //nolint:gochecknoglobals // compiled once
	extPattern = regexp.MustCompile(`^[a-z0-9]{1,8}$`)                       //nolint:gochecknoglobals // compiled once
)

// Upload is a file offered for storage. Open may be called more than once.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Object describes a stored file.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	ModTime     time.Time
	// Created is false when identical content was already stored.
	Created bool
}

// Store persists media by key.
type Store interface {
	Save(ctx context.Context, u Upload) (Object, error)
	Delete(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadSeekCloser, Object, error)
}

// ValidKey reports whether key has the shape Save produces.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// FileStore keeps media on the local filesystem below a root directory.
type FileStore struct {
	root string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates root/uploads if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(root, strings.TrimSuffix(KeyPrefix, "/")), 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Save streams the upload into a temp file while hashing it, then moves it
// to its content key. Identical content maps to the existing object.
func (s *FileStore) Save(ctx context.Context, u Upload) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	src, err := u.Open()
	if err != nil {
		return Object{}, fmt.Errorf("open upload %s: %w", u.Name, err)
	}
	defer src.Close()

	dir := filepath.Join(s.root, strings.TrimSuffix(KeyPrefix, "/"))
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	hasher, err := blake3.NewKeyed(mediaDomainKey[:])
	if err != nil {
		_ = tmp.Close()
		return Object{}, fmt.Errorf("init hasher: %w", err)
	}
	n, err := io.Copy(io.MultiWriter(tmp, hasher), contextReader{ctx: ctx, r: src})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Object{}, fmt.Errorf("write upload %s: %w", u.Name, err)
	}
	if n == 0 {
		return Object{}, fmt.Errorf("%s: %w", u.Name, ErrEmpty)
	}

	sum := hasher.Sum(nil)
	key := KeyPrefix + hex.EncodeToString(sum[:16]) + "." + extension(u.Name, u.ContentType)
	obj := Object{Key: key, ContentType: u.ContentType, Size: n}

	dst := s.path(key)
	if info, err := os.Stat(dst); err == nil {
		obj.ModTime = info.ModTime()
		return obj, nil
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return Object{}, fmt.Errorf("commit upload %s: %w", u.Name, err)
	}
	committed = true
	obj.Created = true
	if info, err := os.Stat(dst); err == nil {
		obj.ModTime = info.ModTime()
	}
	return obj, nil
}

// Delete removes key. A missing object is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidKey(key) {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Open returns a reader for key.
func (s *FileStore) Open(ctx context.Context, key string) (io.ReadSeekCloser, Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, Object{}, err
	}
	if !ValidKey(key) {
		return nil, Object{}, fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	f, err := os.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, Object{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Object{}, fmt.Errorf("stat %s: %w", key, err)
	}
	obj := Object{
		Key:         key,
		ContentType: contentTypeFor(key),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}
	return f, obj, nil
}

var typeExtensions = map[string]string{ //nolint:gochecknoglobals // lookup table
	"image/png":       "png",
	"image/jpeg":      "jpg",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"image/avif":      "avif",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
	"video/ogg":       "ogv",
}

// extension picks a lower-case file extension for a known media type,
// falling back to the file name and then to "bin".
func extension(name, contentType string) string {
	if ext, ok := typeExtensions[baseType(contentType)]; ok {
		return ext
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if extPattern.MatchString(ext) {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = strings.TrimPrefix(exts[0], ".")
		if extPattern.MatchString(ext) {
			return ext
		}
	}
	return "bin"
}

func contentTypeFor(key string) string {
	ext := filepath.Ext(key)
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	for ct, e := range typeExtensions {
		if "."+e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
