package imageprocessor

import (
	"path/filepath"
	"strings"
)

// FormatType represents an image format family
type FormatType int

const (
	FormatUnknown FormatType = iota
	FormatJPEG
	FormatPNG
	FormatGIF
	FormatBMP
	FormatWEBP
	FormatTIFF
	FormatHEIC
	FormatRAW
)

var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".webp": FormatWEBP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".heic": FormatHEIC,
	".heif": FormatHEIC,
	".dng":  FormatRAW,
	".cr2":  FormatRAW,
	".cr3":  FormatRAW,
	".nef":  FormatRAW,
	".nrw":  FormatRAW,
	".arw":  FormatRAW,
	".srf":  FormatRAW,
	".raf":  FormatRAW,
	".orf":  FormatRAW,
	".rw2":  FormatRAW,
}

// GetFileFormat determines the format family from the file extension
func GetFileFormat(path string) FormatType {
	if format, ok := formatExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return format
	}
	return FormatUnknown
}

// extensionsOf lists the registered extensions of the given formats
func extensionsOf(formats ...FormatType) []string {
	var exts []string
	for ext, format := range formatExtensions {
		for _, f := range formats {
			if format == f {
				exts = append(exts, ext)
				break
			}
		}
	}
	return exts
}

func (f FormatType) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatGIF:
		return "gif"
	case FormatBMP:
		return "bmp"
	case FormatWEBP:
		return "webp"
	case FormatTIFF:
		return "tiff"
	case FormatHEIC:
		return "heic"
	case FormatRAW:
		return "raw"
	default:
		return "unknown"
	}
}
