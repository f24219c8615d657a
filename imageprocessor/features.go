package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"foldersort/logging"
	"foldersort/types"

	"gocv.io/x/gocv"
)

// ImageNet channel means in BGR order, subtracted by VGG-style preprocessing
var vggMean = gocv.NewScalar(103.939, 116.779, 123.68, 0)

// ModelOptions describes the network used for embeddings
type ModelOptions struct {
	Path        string
	ConfigPath  string
	OutputLayer string
	InputSize   int
}

// FeatureExtractor embeds images with a pretrained convolutional network.
// Feature maps are reduced with global max pooling.
type FeatureExtractor struct {
	net       gocv.Net
	opts      ModelOptions
	registry  *ImageLoaderRegistry
	ownsLoads bool
	mu        sync.Mutex
}

// NewFeatureExtractor loads the network once. A nil registry gets the
// default loaders.
func NewFeatureExtractor(opts ModelOptions, registry *ImageLoaderRegistry) (*FeatureExtractor, error) {
	if opts.Path == "" {
		return nil, errors.New("no model path configured")
	}
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, fmt.Errorf("model weights: %w", err)
	}
	if opts.InputSize <= 0 {
		opts.InputSize = 224
	}

	net := gocv.ReadNet(opts.Path, opts.ConfigPath)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("cannot load network from %s", opts.Path)
	}

	owns := false
	if registry == nil {
		registry = NewImageLoaderRegistry()
		owns = true
	}

	logging.LogInfo("Loaded feature model %s (input %dx%d)", opts.Path, opts.InputSize, opts.InputSize)
	return &FeatureExtractor{net: net, opts: opts, registry: registry, ownsLoads: owns}, nil
}

// Embed returns the pooled feature vector of the image at path. Every
// failure is reported as a decode error for path.
func (f *FeatureExtractor) Embed(path string) ([]float32, error) {
	img, err := f.registry.LoadImage(path)
	if err != nil {
		img.Close()
		return nil, types.NewDecodeError(path, err)
	}
	defer img.Close()

	size := image.Pt(f.opts.InputSize, f.opts.InputSize)
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, size, 0, 0, gocv.InterpolationNearestNeighbor)
	if resized.Empty() {
		return nil, types.NewDecodeError(path, errors.New("resize produced an empty image"))
	}

	blob := gocv.BlobFromImage(resized, 1.0, size, vggMean, false, false)
	defer blob.Close()

	f.mu.Lock()
	f.net.SetInput(blob, "")
	out := f.net.Forward(f.opts.OutputLayer)
	f.mu.Unlock()
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, types.NewDecodeError(path, err)
	}

	features, err := globalMaxPool(data, out.Size())
	if err != nil {
		return nil, types.NewDecodeError(path, err)
	}
	return features, nil
}

// Close releases the network and any loaders it created
func (f *FeatureExtractor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.net.Close()
	if f.ownsLoads {
		if cerr := f.registry.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// globalMaxPool reduces an NCHW output of batch 1 to one value per channel.
// Flat (N, C) outputs are returned as they are.
func globalMaxPool(data []float32, dims []int) ([]float32, error) {
	switch len(dims) {
	case 2:
		if dims[0] != 1 || len(data) < dims[1] {
			return nil, fmt.Errorf("unexpected output shape %v", dims)
		}
		out := make([]float32, dims[1])
		copy(out, data[:dims[1]])
		return out, nil
	case 4:
		channels, plane := dims[1], dims[2]*dims[3]
		if dims[0] != 1 || plane == 0 || len(data) < channels*plane {
			return nil, fmt.Errorf("unexpected output shape %v", dims)
		}
		out := make([]float32, channels)
		for c := 0; c < channels; c++ {
			values := data[c*plane : (c+1)*plane]
			best := values[0]
			for _, v := range values[1:] {
				if v > best {
					best = v
				}
			}
			out[c] = best
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported output rank %d", len(dims))
	}
}
