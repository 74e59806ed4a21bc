// Package storage keeps uploaded files in one directory per room.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Share/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Store implements core.RoomStorage on top of an afero filesystem rooted at
// the uploads directory.
type Store struct {
	fs     afero.Fs
	prefix string

	// serializes name claims; MemMapFs does not make O_EXCL atomic
	create sync.Mutex

	// Now stamps stored file names.
	Now func() time.Time
}

// New wraps fs. prefix is the public URL path the files are served under.
func New(fs afero.Fs, prefix string) *Store {
	return &Store{
		fs:     fs,
		prefix: "/" + strings.Trim(prefix, "/"),
		Now:    time.Now,
	}
}

// NewOnDisk roots the store at dir on the OS filesystem.
func NewOnDisk(dir, prefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), prefix), nil
}

// Reset removes every room directory left over from a previous run.
func (s *Store) Reset() error {
	entries, err := afero.ReadDir(s.fs, "/")
	if err != nil {
		return fmt.Errorf("read upload dir: %w", err)
	}
	for _, e := range entries {
		if err := s.fs.RemoveAll("/" + e.Name()); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	log.Info().Str("module", "storage").Int("removed", len(entries)).Msg("upload dir cleared")
	return nil
}

func (s *Store) EnsureRoom(id domain.RoomID) error {
	return s.fs.MkdirAll(roomDir(id), 0o755)
}

func (s *Store) DestroyRoom(id domain.RoomID) error {
	return s.fs.RemoveAll(roomDir(id))
}

const maxNameAttempts = 100

// PersistUpload writes body as "<unix ms>-<base name>" inside the room
// directory and returns its public path. A name already taken in the same
// millisecond gets a counter, "<unix ms>-<n>-<base name>"; existing files are
// never overwritten.
func (s *Store) PersistUpload(id domain.RoomID, fileName string, body io.Reader) (string, error) {
	dir := roomDir(id)
	if ok, err := afero.DirExists(s.fs, dir); err != nil || !ok {
		return "", fmt.Errorf("room %s has no storage", id)
	}
	f, stored, err := s.claim(dir, s.Now().UnixMilli(), safeName(fileName))
	if err != nil {
		return "", err
	}
	_, err = io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(path.Join(dir, stored))
		return "", fmt.Errorf("write %s: %w", stored, err)
	}
	return path.Join(s.prefix, string(id), stored), nil
}

func (s *Store) claim(dir string, ms int64, base string) (afero.File, string, error) {
	s.create.Lock()
	defer s.create.Unlock()
	for n := 0; n < maxNameAttempts; n++ {
		stored := fmt.Sprintf("%d-%s", ms, base)
		if n > 0 {
			stored = fmt.Sprintf("%d-%d-%s", ms, n, base)
		}
		f, err := s.fs.OpenFile(path.Join(dir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, stored, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", stored, err)
		}
	}
	return nil, "", fmt.Errorf("no free name for %s in %s", base, dir)
}

// HTTP exposes stored files for static serving. Directories are reported as
// missing so room ids and file names cannot be enumerated.
func (s *Store) HTTP() http.FileSystem {
	return filesOnly{afero.NewHttpFs(s.fs).Dir("/")}
}

type filesOnly struct{ http.FileSystem }

func (fs filesOnly) Open(name string) (http.File, error) {
	f, err := fs.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil || st.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

func (s *Store) Prefix() string { return s.prefix }

func roomDir(id domain.RoomID) string { return "/" + string(id) }

func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "file"
	}
	return name
}
