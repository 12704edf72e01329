package capture

import (
	"context"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
	"github.com/VasiKumar/ClassAI/internal/vision"
)

const (
	// COCO class index for "cell phone".
	cocoCellPhone = 67

	dnnInputSize   = 640
	dnnConfidence  = 0.25
	dnnNMSOverlap  = 0.45
	dnnClassOffset = 4 // yolo rows: cx, cy, w, h, then class scores
)

// DNNPhoneDetector runs a YOLO-family ONNX object detector and reports
// cell-phone detections. Preferred over the geometric heuristic whenever a
// model file is available.
type DNNPhoneDetector struct {
	net gocv.Net
	log *logger.Logger
}

// NewDNNPhoneDetector loads the detector from modelPath. A missing or
// unreadable model is an error so the caller can fall back to the
// geometric heuristic.
func NewDNNPhoneDetector(modelPath string, log *logger.Logger) (*DNNPhoneDetector, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("phone model %s: %w", modelPath, err)
	}
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("phone model %s did not load", modelPath)
	}
	return &DNNPhoneDetector{net: net, log: log.With("service", "DNNPhoneDetector")}, nil
}

func (d *DNNPhoneDetector) Name() string { return "dnn" }

func (d *DNNPhoneDetector) Detect(ctx context.Context, img image.Image) ([]vision.PhoneMark, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(dnnInputSize, dnnInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	marks := d.parse(out, img.Bounds())
	for _, m := range marks {
		d.log.Info("Mobile detected", "confidence", m.Confidence)
	}
	return marks, nil
}

// parse reads YOLO output of shape [1, 4+classes, anchors] and keeps
// cell-phone rows above the confidence floor, NMS-suppressed.
func (d *DNNPhoneDetector) parse(out gocv.Mat, frame image.Rectangle) []vision.PhoneMark {
	sizes := out.Size()
	if len(sizes) != 3 {
		return nil
	}
	rows := sizes[1]
	anchors := sizes[2]
	if rows <= dnnClassOffset+cocoCellPhone {
		return nil
	}
	flat := out.Reshape(1, rows)
	defer flat.Close()

	sx := float32(frame.Dx()) / float32(dnnInputSize)
	sy := float32(frame.Dy()) / float32(dnnInputSize)

	boxes := []image.Rectangle{}
	scores := []float32{}
	for j := 0; j < anchors; j++ {
		conf := flat.GetFloatAt(dnnClassOffset+cocoCellPhone, j)
		if conf < dnnConfidence {
			continue
		}
		cx := flat.GetFloatAt(0, j) * sx
		cy := flat.GetFloatAt(1, j) * sy
		w := flat.GetFloatAt(2, j) * sx
		h := flat.GetFloatAt(3, j) * sy
		boxes = append(boxes, image.Rect(
			int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2),
		))
		scores = append(scores, conf)
	}
	if len(boxes) == 0 {
		return nil
	}

	keep := gocv.NMSBoxes(boxes, scores, dnnConfidence, dnnNMSOverlap)
	marks := make([]vision.PhoneMark, 0, len(keep))
	for _, i := range keep {
		b := boxes[i]
		marks = append(marks, vision.PhoneMark{
			Box:        vision.Rect{X: b.Min.X, Y: b.Min.Y, W: b.Dx(), H: b.Dy()},
			Confidence: float64(scores[i]),
		})
	}
	return marks
}

func (d *DNNPhoneDetector) Close() error {
	return d.net.Close()
}
