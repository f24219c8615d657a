package fsops

import "strings"

// markerNames are system files dropped by file browsers
var markerNames = map[string]bool{
	".ds_store":   true,
	"thumbs.db":   true,
	"desktop.ini": true,
	".localized":  true,
}

// IsMarkerFile reports whether name is an OS-generated marker file that is
// safe to delete (.DS_Store, Thumbs.db, AppleDouble "._" files...)
func IsMarkerFile(name string) bool {
	lower := strings.ToLower(name)
	if markerNames[lower] || strings.HasPrefix(lower, ".ds_store") {
		return true
	}
	return strings.HasPrefix(name, "._")
}

// IsHidden reports whether name is a dotfile or a marker file
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") || IsMarkerFile(name)
}
