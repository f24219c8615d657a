package imageprocessor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"sync"

	"foldersort/logging"

	"github.com/barasher/go-exiftool"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	format := GetFileFormat(path)
	for _, supported := range l.SupportedFormats {
		if format == supported {
			return fileExists(path)
		}
	}
	return false
}

// StandardImageLoader reads formats OpenCV decodes natively and falls back
// to the Go image decoders when the OpenCV build lacks a codec
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a loader for common raster formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{BaseImageLoader{SupportedFormats: []FormatType{
		FormatJPEG, FormatPNG, FormatGIF, FormatBMP, FormatWEBP, FormatTIFF, FormatHEIC,
	}}}
}

// LoadImage loads path as a colour image
func (l *StandardImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if !img.Empty() {
		return img, nil
	}
	img.Close()

	logging.DebugLog("OpenCV could not read %s, trying Go image decoders", path)
	return loadWithGoImage(path)
}

// RawImageLoader extracts the JPEG preview embedded in camera RAW files
// through a long-running exiftool process
type RawImageLoader struct {
	BaseImageLoader

	once    sync.Once
	mu      sync.Mutex
	et      *exiftool.Exiftool
	initErr error
}

// previewTags are tried in order; the first non-empty one is decoded
var previewTags = []string{"LargestImagePreview", "JpgFromRaw", "PreviewImage", "OtherImage", "ThumbnailImage"}

// NewRawImageLoader creates a RAW loader. exiftool starts on first use.
func NewRawImageLoader() *RawImageLoader {
	return &RawImageLoader{BaseImageLoader: BaseImageLoader{SupportedFormats: []FormatType{FormatRAW}}}
}

func (l *RawImageLoader) tool() (*exiftool.Exiftool, error) {
	l.once.Do(func() {
		// Previews are returned base64 encoded on a single line
		l.et, l.initErr = exiftool.NewExiftool(
			exiftool.ExtractAllBinaryMetadata(),
			exiftool.Buffer(make([]byte, 256*1024), 128*1024*1024),
		)
		if l.initErr != nil {
			logging.LogWarning("exiftool unavailable, RAW previews disabled: %v", l.initErr)
		}
	})
	return l.et, l.initErr
}

// LoadImage decodes the embedded preview, or reads the file directly when
// OpenCV understands it (most DNGs)
func (l *RawImageLoader) LoadImage(path string) (gocv.Mat, error) {
	data, err := l.extractPreview(path)
	if err == nil {
		img, decErr := gocv.IMDecode(data, gocv.IMReadColor)
		if decErr == nil && !img.Empty() {
			return img, nil
		}
		img.Close()
		err = fmt.Errorf("embedded preview is not decodable: %v", decErr)
	}
	logging.DebugLog("RAW preview extraction failed for %s: %v", path, err)

	img := gocv.IMRead(path, gocv.IMReadColor)
	if !img.Empty() {
		return img, nil
	}
	img.Close()
	return gocv.NewMat(), newImageLoadError("failed to load RAW image", path)
}

func (l *RawImageLoader) extractPreview(path string) ([]byte, error) {
	if _, err := l.tool(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	if l.et == nil {
		l.mu.Unlock()
		return nil, errors.New("exiftool already closed")
	}
	metas := l.et.ExtractMetadata(path)
	l.mu.Unlock()

	if len(metas) == 0 {
		return nil, errors.New("no metadata returned")
	}
	if metas[0].Err != nil {
		return nil, metas[0].Err
	}

	for _, tag := range previewTags {
		value, err := metas[0].GetString(tag)
		if err != nil || value == "" {
			continue
		}
		data, err := decodeBinaryTag(value)
		if err != nil {
			logging.DebugLog("Cannot decode %s of %s: %v", tag, path, err)
			continue
		}
		return data, nil
	}
	return nil, errors.New("no embedded preview")
}

// Close stops the exiftool process if it was started
func (l *RawImageLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.et == nil {
		return nil
	}
	err := l.et.Close()
	l.et = nil
	return err
}

// decodeBinaryTag turns exiftool's "base64:..." binary value into bytes
func decodeBinaryTag(value string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(value, "base64:")
	if !ok {
		return nil, errors.New("value is not binary")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// loadWithGoImage decodes path with the registered Go decoders and converts
// the result into a BGR matrix
func loadWithGoImage(path string) (gocv.Mat, error) {
	f, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer f.Close()

	goImg, _, err := image.Decode(f)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%s: %w", path, err)
	}

	img, err := gocv.ImageToMatRGB(goImg)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("convert %s: %w", path, err)
	}
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), newImageLoadError("decoded image is empty", path)
	}
	return img, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func newImageLoadError(message, path string) error {
	return fmt.Errorf("%s: %s", message, path)
}
