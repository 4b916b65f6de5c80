//go:build !onnx

package engine

import "fmt"

func newONNXLoader(LoaderConfig) (Loader, error) {
	return nil, fmt.Errorf("onnx: %w (rebuild with -tags onnx)", ErrDependencyUnavailable)
}
