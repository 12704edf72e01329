package gallery

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 64, B: 32, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func writeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip file: %v", err)
	}
}

func zipBytes(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inner.zip")
	writeZip(t, path, entries)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read zip: %v", err)
	}
	return b
}

func collect(t *testing.T, src Source) map[string][]string {
	t.Helper()
	out := map[string][]string{}
	err := src.Walk(func(label, name string, r io.Reader) error {
		if _, err := io.ReadAll(r); err != nil {
			return err
		}
		out[label] = append(out[label], name)
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	return out
}

func TestDirSource_LabelsFromZipsFoldersAndLooseImages(t *testing.T) {
	root := t.TempDir()
	img := pngBytes(t)

	writeZip(t, filepath.Join(root, "alice.zip"), map[string][]byte{
		"photo1.png": img,
		"photo2.png": img,
		"notes.txt":  []byte("not an image"),
	})
	if err := os.MkdirAll(filepath.Join(root, "bob"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "bob", "b1.png"), img, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "carol.png"), img, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "readme.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	src, err := NewSource(root)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	got := collect(t, src)

	if len(got["alice"]) != 2 {
		t.Fatalf("expected 2 alice images got %v", got["alice"])
	}
	if len(got["bob"]) != 1 {
		t.Fatalf("expected 1 bob image got %v", got["bob"])
	}
	if len(got["carol"]) != 1 {
		t.Fatalf("expected 1 carol image got %v", got["carol"])
	}
	if len(got) != 3 {
		t.Fatalf("unexpected labels %v", got)
	}
}

func TestZipSource_ExpandsNestedArchives(t *testing.T) {
	img := pngBytes(t)
	path := filepath.Join(t.TempDir(), "class.zip")
	writeZip(t, path, map[string][]byte{
		"alice.zip":    zipBytes(t, map[string][]byte{"a1.png": img, "a2.png": img}),
		"bob/b1.png":   img,
		"carol.png":    img,
		"ignored.docx": []byte("x"),
	})

	src, err := NewSource(path)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	got := collect(t, src)

	if len(got["alice"]) != 2 {
		t.Fatalf("expected 2 alice images from nested zip got %v", got["alice"])
	}
	if len(got["bob"]) != 1 {
		t.Fatalf("expected 1 bob image from folder got %v", got["bob"])
	}
	if len(got["carol"]) != 1 {
		t.Fatalf("expected 1 carol image from root got %v", got["carol"])
	}
}

func TestNewSource_RejectsNonZipFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.tar")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := NewSource(path); err == nil {
		t.Fatalf("expected error for non-zip file")
	}
}

func TestNewSource_MissingPathIsError(t *testing.T) {
	if _, err := NewSource(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
