package vision

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/AymenENSI/Secure-Entry/internal/config"
	"github.com/AymenENSI/Secure-Entry/internal/observability"
)

// Encoder turns a raw image into face embeddings: detect every face,
// crop it, and run each crop through the embedding model.
type Encoder struct {
	detector *Detector
	embedder *Embedder
}

// NewEncoder loads the detection and embedding models. Init must have
// been called first.
func NewEncoder(cfg config.VisionConfig) (*Encoder, error) {
	detPath := filepath.Join(cfg.ModelsDir, "det_10g.onnx")
	embPath := filepath.Join(cfg.ModelsDir, "w600k_r50.onnx")

	slog.Info("loading detection model", "path", detPath)
	det, err := NewDetector(detPath, float32(cfg.DetectionThreshold))
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	slog.Info("loading embedding model", "path", embPath)
	emb, err := NewEmbedder(embPath)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	return &Encoder{detector: det, embedder: emb}, nil
}

// Encode returns one embedding per face detected in the image, ordered
// by detection confidence. An image with no faces yields a nil slice
// and no error.
func (e *Encoder) Encode(imageData []byte) ([][]float32, error) {
	img, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	origW := bounds.Dx()
	origH := bounds.Dy()

	start := time.Now()
	detInput := preprocessForDetection(img, e.detector.inputW, e.detector.inputH)
	observability.InferenceDuration.WithLabelValues("preprocess").Observe(time.Since(start).Seconds())

	start = time.Now()
	detections, err := e.detector.Detect(detInput, origW, origH)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	observability.InferenceDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())

	var embeddings [][]float32
	for _, det := range detections {
		faceCrop := cropFace(img, det.BBox)
		if faceCrop == nil {
			continue
		}

		start = time.Now()
		embInput := preprocessForEmbedding(faceCrop, e.embedder.inputW, e.embedder.inputH)
		embedding, err := e.embedder.Extract(embInput)
		observability.InferenceDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}

		embeddings = append(embeddings, embedding)
	}

	return embeddings, nil
}

// Close releases the ONNX sessions.
func (e *Encoder) Close() {
	if e.detector != nil {
		e.detector.Close()
	}
	if e.embedder != nil {
		e.embedder.Close()
	}
}

// Init sets up the process-wide ONNX Runtime environment.
func Init() error {
	ort.SetSharedLibraryPath(onnxLibPath())
	return ort.InitializeEnvironment()
}

// Shutdown tears down the ONNX Runtime environment.
func Shutdown() {
	_ = ort.DestroyEnvironment()
}

// onnxLibPath returns the ONNX Runtime shared library path
// based on the operating system.
func onnxLibPath() string {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
