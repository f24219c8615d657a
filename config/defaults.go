package config

const (
	defaultModelInputSize = 224
	defaultMaxDepth       = 1
	defaultFolderPrefix   = "folder_"
	defaultImageCategory  = "images"
)

func defaultCategories() map[string][]string {
	return map[string][]string{
		"images":    {"jpg", "jpeg", "png", "gif", "bmp", "webp", "tif", "tiff", "heic", "dng", "cr2", "cr3", "nef", "arw", "raf"},
		"documents": {"pdf", "doc", "docx", "txt", "md", "odt", "rtf", "xls", "xlsx", "csv", "ppt", "pptx"},
		"audio":     {"mp3", "wav", "flac", "aac", "ogg", "m4a"},
		"video":     {"mp4", "mov", "avi", "mkv", "webm"},
		"archives":  {"zip", "tar", "gz", "rar", "7z"},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Categories: defaultCategories(),
		Model: Model{
			InputSize: defaultModelInputSize,
		},
		Rearrange: Rearrange{
			Categories:   []string{defaultImageCategory},
			MaxDepth:     defaultMaxDepth,
			FolderPrefix: defaultFolderPrefix,
		},
		Journal: Journal{
			Enabled: true,
		},
	}
}
