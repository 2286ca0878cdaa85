package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// onnxModel runs class scoring through an exported ONNX graph. The session
// and its tensors are allocated once at resolution time and reused under a
// mutex; input shape is fixed at (1, n_features) and rows are scored one
// at a time.
type onnxModel struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	width   int
	classes []int

	mu sync.Mutex
}

type onnxSpec struct {
	Path       string `json:"path"`
	InputName  string `json:"input_name"`
	OutputName string `json:"output_name"`
}

func newONNXModel(raw []byte, spec *modelSpec) (Predictor, error) {
	var o onnxSpec
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	if o.Path == "" {
		return nil, errors.New("onnx model spec has no path")
	}
	width := spec.NFeatures
	if width == 0 {
		width = len(spec.FeatureNames)
	}
	if width <= 0 {
		return nil, errors.New("onnx model spec has no feature count")
	}
	if _, err := os.Stat(o.Path); err != nil {
		return nil, fmt.Errorf("onnx model file: %w", err)
	}

	libPath := resolveSharedLibraryPath(filepath.Dir(o.Path))
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	if o.InputName == "" {
		o.InputName = "input"
	}
	if o.OutputName == "" {
		o.OutputName = "scores"
	}

	outputWidth := len(spec.Classes)
	if outputWidth == 0 {
		outputWidth = 1
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(width)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(outputWidth)))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		o.Path,
		[]string{o.InputName},
		[]string{o.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &onnxModel{
		session: session,
		input:   input,
		output:  output,
		width:   width,
		classes: spec.Classes,
	}, nil
}

func (m *onnxModel) Predict(f Frame) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]int, 0, len(f.Rows))
	for i, row := range f.Rows {
		if len(row) != m.width {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), m.width)
		}

		data := m.input.GetData()
		for j, v := range row {
			data[j] = float32(v)
		}
		if err := m.session.Run(); err != nil {
			return nil, fmt.Errorf("onnx run: %w", err)
		}

		scores := m.output.GetData()
		idx := 0
		for c := 1; c < len(scores); c++ {
			if scores[c] > scores[idx] {
				idx = c
			}
		}
		if idx < len(m.classes) {
			out = append(out, m.classes[idx])
		} else {
			out = append(out, idx)
		}
	}
	return out, nil
}

// resolveSharedLibraryPath locates a platform-specific onnxruntime shared
// library. The ONNXRUNTIME_SHARED_LIBRARY_PATH env var wins; otherwise we
// probe common names and locations near the model.
func resolveSharedLibraryPath(modelDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		modelDir,
		filepath.Join(modelDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
