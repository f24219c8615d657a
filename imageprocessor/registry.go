package imageprocessor

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"foldersort/types"

	"gocv.io/x/gocv"
)

// ImageLoaderRegistry maps file extensions to loaders
type ImageLoaderRegistry struct {
	loaders map[string]ImageLoader
	mutex   sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with the standard and RAW loaders
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	r := &ImageLoaderRegistry{loaders: make(map[string]ImageLoader)}

	standard := NewStandardImageLoader()
	for _, ext := range extensionsOf(standard.SupportedFormats...) {
		r.RegisterLoader(ext, standard)
	}

	raw := NewRawImageLoader()
	for _, ext := range extensionsOf(FormatRAW) {
		r.RegisterLoader(ext, raw)
	}
	return r
}

// RegisterLoader registers a loader for a file extension, replacing any previous one
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.loaders[ext] = loader
}

// GetLoader returns the loader for path, or nil
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.loaders[strings.ToLower(filepath.Ext(path))]
}

// LoadImage loads path with its registered loader
func (r *ImageLoaderRegistry) LoadImage(path string) (gocv.Mat, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return gocv.NewMat(), fmt.Errorf("%w for %s", types.ErrNoLoader, path)
	}
	if !loader.CanLoad(path) {
		return gocv.NewMat(), newImageLoadError("file is not readable", path)
	}
	return loader.LoadImage(path)
}

// Close releases loaders holding external resources
func (r *ImageLoaderRegistry) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	seen := make(map[ImageLoader]bool)
	var firstErr error
	for _, loader := range r.loaders {
		if seen[loader] {
			continue
		}
		seen[loader] = true
		if closer, ok := loader.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
