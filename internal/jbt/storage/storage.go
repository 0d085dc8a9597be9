package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Storage provides low-level file operations with security validations.
type Storage struct {
	fs afero.Fs
}

// New creates a new Storage instance.
func New(fs afero.Fs) *Storage {
	return &Storage{fs: fs}
}

// FileSystem returns the underlying filesystem.
func (s *Storage) FileSystem() afero.Fs {
	return s.fs
}

// ValidatePathSafety checks that the path is not a symlink, preventing symlink attacks.
// It returns nil if the path doesn't exist or is a regular file/directory.
func (s *Storage) ValidatePathSafety(path string) error {
	if lstater, ok := s.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to check path: %w", err)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("refusing to operate on symlink: %s", path)
		}
	}
	// In-memory filesystems don't support symlinks.
	return nil
}

// WriteFileAtomic replaces path with data through a temp file in the same directory.
// The existing file mode is kept; new files get 0644.
func (s *Storage) WriteFileAtomic(path string, data []byte) error {
	if err := s.ValidatePathSafety(path); err != nil {
		return fmt.Errorf("validate destination: %w", err)
	}

	mode := os.FileMode(0o644)
	if info, err := s.fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}

	tmp := path + ".tmp"
	dest, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	_, writeErr := dest.Write(data)
	syncErr := dest.Sync()
	closeErr := dest.Close()

	if writeErr != nil || syncErr != nil || closeErr != nil {
		s.fs.Remove(tmp)
		switch {
		case writeErr != nil:
			return fmt.Errorf("write temp file: %w", writeErr)
		case syncErr != nil:
			return fmt.Errorf("sync temp file: %w", syncErr)
		default:
			return fmt.Errorf("close temp file: %w", closeErr)
		}
	}

	// Unix rename() atomically replaces the destination.
	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}

	return nil
}

// CopyFile copies a file from src to dst, atomically replacing the destination.
func (s *Storage) CopyFile(src, dst string) (err error) {
	if err := s.ValidatePathSafety(src); err != nil {
		return fmt.Errorf("validate source: %w", err)
	}
	if err := s.ValidatePathSafety(dst); err != nil {
		return fmt.Errorf("validate destination: %w", err)
	}

	source, err := s.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if cerr := source.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close source: %w", cerr)
		}
	}()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dir := filepath.Dir(dst)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp := dst + ".tmp"
	dest, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	_, copyErr := io.Copy(dest, source)
	closeErr := dest.Close()

	if copyErr != nil || closeErr != nil {
		s.fs.Remove(tmp)
		if copyErr != nil {
			return fmt.Errorf("copy data: %w", copyErr)
		}
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	if err := s.fs.Rename(tmp, dst); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}

	// Keep the source mtime so copied IDE state looks untouched.
	if err := s.fs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("preserve times: %w", err)
	}

	return nil
}

// CopyDir recursively copies the directory tree at src to dst.
// dst must not exist. Symlinks are recreated when the filesystem supports them.
func (s *Storage) CopyDir(src, dst string) error {
	if exists, err := s.Exists(dst); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("copy destination already exists: %s", dst)
	}

	return afero.Walk(s.fs, src, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			return s.copySymlink(path, target)
		case info.IsDir():
			if err := s.fs.MkdirAll(target, info.Mode().Perm()); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			return nil
		case info.Mode().IsRegular():
			return s.CopyFile(path, target)
		default:
			// Sockets and pipes are runtime artifacts of a running IDE.
			return nil
		}
	})
}

func (s *Storage) copySymlink(src, dst string) error {
	reader, ok := s.fs.(afero.LinkReader)
	if !ok {
		return fmt.Errorf("filesystem cannot read symlink %s", src)
	}
	linker, ok := s.fs.(afero.Linker)
	if !ok {
		return fmt.Errorf("filesystem cannot create symlink %s", dst)
	}
	target, err := reader.ReadlinkIfPossible(src)
	if err != nil {
		return fmt.Errorf("read symlink %s: %w", src, err)
	}
	if err := linker.SymlinkIfPossible(target, dst); err != nil {
		return fmt.Errorf("create symlink %s: %w", dst, err)
	}
	return nil
}

// Rename moves oldpath to newpath. newpath must not exist.
func (s *Storage) Rename(oldpath, newpath string) error {
	if exists, err := s.Exists(newpath); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("rename destination already exists: %s", newpath)
	}
	if err := s.fs.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldpath, newpath, err)
	}
	return nil
}

// ReadFile reads the entire file.
func (s *Storage) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// WriteFile writes data to a file with secure permissions.
func (s *Storage) WriteFile(path string, data []byte) error {
	return afero.WriteFile(s.fs, path, data, 0o600)
}

// Exists checks if a path exists.
func (s *Storage) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

// IsDir checks if a path exists and is a directory.
func (s *Storage) IsDir(path string) (bool, error) {
	ok, err := afero.IsDir(s.fs, path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return ok, err
}

// Stat returns file information.
func (s *Storage) Stat(path string) (os.FileInfo, error) {
	return s.fs.Stat(path)
}

// MkdirAll creates directory with secure permissions.
func (s *Storage) MkdirAll(path string) error {
	return s.fs.MkdirAll(path, 0o700)
}

// ReadDir reads directory contents.
func (s *Storage) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(s.fs, path)
}

// Remove deletes a file.
func (s *Storage) Remove(path string) error {
	return s.fs.Remove(path)
}

// RemoveAll deletes a path and any children it contains.
func (s *Storage) RemoveAll(path string) error {
	return s.fs.RemoveAll(path)
}

// Chtimes changes file access and modification times.
func (s *Storage) Chtimes(path string, atime, mtime time.Time) error {
	return s.fs.Chtimes(path, atime, mtime)
}
