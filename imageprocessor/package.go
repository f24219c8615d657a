// Package imageprocessor loads image files of many formats into OpenCV
// matrices and turns them into feature vectors with a pretrained network.
package imageprocessor

import "gocv.io/x/gocv"

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage loads the file as a 3-channel BGR matrix
	LoadImage(path string) (gocv.Mat, error)
}
