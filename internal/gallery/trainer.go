package gallery

import (
	"context"
	"image"
	"io"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/VasiKumar/ClassAI/internal/pkg/ctxutil"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
	"github.com/VasiKumar/ClassAI/internal/recognize"
	"github.com/VasiKumar/ClassAI/internal/vision"
)

// Trainer builds the identity gallery from a training image source. Only the
// first detected face of each photo is encoded; photos with no detectable
// face or that fail to decode are skipped with a warning and never abort
// training of the remaining images.
type Trainer struct {
	strat *recognize.Strategy
	log   *logger.Logger
}

func NewTrainer(strat *recognize.Strategy, log *logger.Logger) *Trainer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Trainer{strat: strat, log: log.With("service", "GalleryTrainer")}
}

// Train walks the source and returns the gallery. An empty gallery is a
// valid degraded outcome (every live face will classify Unknown); only a
// source-level failure is an error.
func (t *Trainer) Train(ctx context.Context, src Source) (*Gallery, error) {
	ctx = ctxutil.Default(ctx)
	g := New()
	photos := 0

	err := src.Walk(func(label, name string, r io.Reader) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		img, _, err := image.Decode(r)
		if err != nil {
			t.log.Warn("Skipping unreadable training image", "image", name, "student", label, "error", err)
			return nil
		}
		faces, err := t.strat.Faces.DetectFaces(ctx, img)
		if err != nil {
			t.log.Warn("Face detection failed on training image, skipping", "image", name, "student", label, "error", err)
			return nil
		}
		if len(faces) == 0 {
			t.log.Warn("No face detected in training image, skipping", "image", name, "student", label)
			return nil
		}
		chip := vision.Crop(img, faces[0])
		sig, err := t.strat.Encoder.Encode(chip)
		if err != nil {
			t.log.Warn("Could not encode training face, skipping", "image", name, "student", label, "error", err)
			return nil
		}
		g.Add(label, sig)
		photos++
		t.log.Debug("Trained on photo", "student", label, "image", name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if g.Len() == 0 {
		t.log.Warn("Training produced an empty gallery; all faces will be Unknown")
	} else {
		t.log.Info("Gallery trained",
			"students", g.Len(),
			"photos", photos,
			"encoder", t.strat.Encoder.Name(),
		)
	}
	return g, nil
}
