package gallery

import (
	"bytes"
	"context"
	"image"
	"io"
	"testing"

	"github.com/VasiKumar/ClassAI/internal/recognize"
	"github.com/VasiKumar/ClassAI/internal/vision"
)

// memSource feeds in-memory labeled blobs.
type memSource struct {
	items []memItem
}

type memItem struct {
	label string
	name  string
	data  []byte
}

func (s memSource) Walk(fn func(label, name string, r io.Reader) error) error {
	for _, it := range s.items {
		if err := fn(it.label, it.name, bytes.NewReader(it.data)); err != nil {
			return err
		}
	}
	return nil
}

type wholeFrameFaces struct{}

func (wholeFrameFaces) DetectFaces(ctx context.Context, img image.Image) ([]vision.Rect, error) {
	b := img.Bounds()
	return []vision.Rect{{X: b.Min.X, Y: b.Min.Y, W: b.Dx(), H: b.Dy()}}, nil
}

type noFaces struct{}

func (noFaces) DetectFaces(ctx context.Context, img image.Image) ([]vision.Rect, error) {
	return nil, nil
}

type constEncoder struct{}

func (constEncoder) Name() string { return "const" }

func (constEncoder) Encode(chip image.Image) (recognize.Signature, error) {
	return recognize.Signature{1}, nil
}

func (constEncoder) Distance(a, b recognize.Signature) float64 { return 0 }

func (constEncoder) Threshold() float64 { return 1 }

func trainStrategy(faces recognize.FaceDetector) *recognize.Strategy {
	return &recognize.Strategy{Name: "test", Faces: faces, Encoder: constEncoder{}}
}

func TestTrain_BuildsGalleryPerStudent(t *testing.T) {
	img := pngBytes(t)
	src := memSource{items: []memItem{
		{"alice", "a1.png", img},
		{"alice", "a2.png", img},
		{"bob", "b1.png", img},
	}}

	g, err := NewTrainer(trainStrategy(&wholeFrameFaces{}), nil).Train(context.Background(), src)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("expected 2 students got %d", g.Len())
	}
	if got := len(g.Signatures("alice")); got != 2 {
		t.Fatalf("expected 2 alice signatures got %d", got)
	}
	if got := len(g.Signatures("bob")); got != 1 {
		t.Fatalf("expected 1 bob signature got %d", got)
	}
}

func TestTrain_SkipsCorruptAndFacelessImages(t *testing.T) {
	img := pngBytes(t)
	src := memSource{items: []memItem{
		{"alice", "good.png", img},
		{"alice", "corrupt.png", []byte("not an image at all")},
	}}

	g, err := NewTrainer(trainStrategy(&wholeFrameFaces{}), nil).Train(context.Background(), src)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if got := len(g.Signatures("alice")); got != 1 {
		t.Fatalf("corrupt image must be skipped, got %d signatures", got)
	}

	// A photo where no face is found contributes nothing either.
	g, err = NewTrainer(trainStrategy(noFaces{}), nil).Train(context.Background(), src)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if g.Len() != 0 {
		t.Fatalf("expected empty gallery got %d students", g.Len())
	}
}

func TestTrain_EmptySourceYieldsEmptyGallery(t *testing.T) {
	g, err := NewTrainer(trainStrategy(&wholeFrameFaces{}), nil).Train(context.Background(), memSource{})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if g.Len() != 0 {
		t.Fatalf("expected empty gallery got %d students", g.Len())
	}
}

func TestGallery_NamesAreSorted(t *testing.T) {
	g := New()
	g.Add("zoe", recognize.Signature{1})
	g.Add("anna", recognize.Signature{1})
	g.Add("mike", recognize.Signature{1})

	names := g.Names()
	want := []string{"anna", "mike", "zoe"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v got %v", want, names)
		}
	}
}
