package gallery

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source yields labeled training images. Labels come entirely from the
// input's naming: archive or folder names, or the filename stem for images
// sitting at the source root. Nothing is hardcoded.
type Source interface {
	Walk(fn func(label, name string, r io.Reader) error) error
}

// NewSource builds a Source from path: a directory of per-student zip
// archives and/or folders, or a single zip possibly containing nested
// per-student zips.
func NewSource(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("training source %s: %w", path, err)
	}
	if info.IsDir() {
		return &dirSource{root: path}, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return &zipSource{path: path}, nil
	}
	return nil, fmt.Errorf("training source %s is neither a directory nor a zip file", path)
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".bmp":
		return true
	}
	return false
}

func stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// dirSource walks a directory: each <student>.zip contributes its images
// under the archive stem, each subfolder under the folder name, and loose
// root images under their own filename stem.
type dirSource struct {
	root string
}

func (s *dirSource) Walk(fn func(label, name string, r io.Reader) error) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", s.root, err)
	}
	for _, e := range entries {
		full := filepath.Join(s.root, e.Name())
		switch {
		case !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".zip"):
			if err := walkZipFile(full, stem(e.Name()), fn); err != nil {
				return err
			}
		case e.IsDir():
			if err := s.walkFolder(full, e.Name(), fn); err != nil {
				return err
			}
		case isImageName(e.Name()):
			if err := feedFile(full, stem(e.Name()), fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *dirSource) walkFolder(dir, label string, fn func(label, name string, r io.Reader) error) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isImageName(d.Name()) {
			return nil
		}
		return feedFile(path, label, fn)
	})
}

func feedFile(path, label string, fn func(label, name string, r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return fn(label, filepath.Base(path), f)
}

// zipSource reads a single archive. Nested <student>.zip entries are
// expanded in memory with the nested archive stem as the label; image
// entries inside folders take the top folder name; images at the archive
// root take their filename stem.
type zipSource struct {
	path string
}

func (s *zipSource) Walk(fn func(label, name string, r io.Reader) error) error {
	zr, err := zip.OpenReader(s.path)
	if err != nil {
		return fmt.Errorf("open zip %s: %w", s.path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch {
		case strings.EqualFold(filepath.Ext(f.Name), ".zip"):
			if err := walkNestedZip(f, stem(f.Name), fn); err != nil {
				return err
			}
		case isImageName(f.Name):
			if err := feedZipEntry(f, entryLabel(f.Name), fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func entryLabel(name string) string {
	name = filepath.ToSlash(name)
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i]
	}
	return stem(name)
}

func walkZipFile(path, label string, fn func(label, name string, r io.Reader) error) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open zip %s: %w", path, err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isImageName(f.Name) {
			continue
		}
		if err := feedZipEntry(f, label, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkNestedZip(f *zip.File, label string, fn func(label, name string, r io.Reader) error) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open nested zip %s: %w", f.Name, err)
	}
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("read nested zip %s: %w", f.Name, err)
	}
	nested, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return fmt.Errorf("parse nested zip %s: %w", f.Name, err)
	}
	for _, nf := range nested.File {
		if nf.FileInfo().IsDir() || !isImageName(nf.Name) {
			continue
		}
		if err := feedZipEntry(nf, label, fn); err != nil {
			return err
		}
	}
	return nil
}

func feedZipEntry(f *zip.File, label string, fn func(label, name string, r io.Reader) error) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	return fn(label, filepath.Base(f.Name), rc)
}
