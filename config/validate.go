package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

func (c *Config) normalize() error {
	categories := make(map[string][]string, len(c.Categories))
	for name, exts := range c.Categories {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("categories: empty category name")
		}
		seen := make(map[string]struct{}, len(exts))
		var cleaned []string
		for _, ext := range exts {
			ext = normalizeExtension(ext)
			if ext == "" {
				continue
			}
			if _, dup := seen[ext]; dup {
				continue
			}
			seen[ext] = struct{}{}
			cleaned = append(cleaned, ext)
		}
		categories[name] = cleaned
	}
	c.Categories = categories

	if c.Model.InputSize <= 0 {
		c.Model.InputSize = defaultModelInputSize
	}
	if c.Rearrange.MaxDepth <= 0 {
		c.Rearrange.MaxDepth = defaultMaxDepth
	}
	if strings.TrimSpace(c.Rearrange.FolderPrefix) == "" {
		c.Rearrange.FolderPrefix = defaultFolderPrefix
	}
	for i, name := range c.Rearrange.Categories {
		c.Rearrange.Categories[i] = strings.TrimSpace(name)
	}

	var err error
	if c.Model.Path, err = expandPath(c.Model.Path); err != nil {
		return fmt.Errorf("model.path: %w", err)
	}
	if c.Model.ConfigPath, err = expandPath(c.Model.ConfigPath); err != nil {
		return fmt.Errorf("model.config_path: %w", err)
	}
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

// Validate ensures the configuration contains usable values.
func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return errors.New("categories: at least one category is required")
	}

	names := c.CategoryNames()
	sort.Strings(names)

	owner := make(map[string]string)
	for _, name := range names {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("categories: %q must be a plain folder name", name)
		}
		if len(c.Categories[name]) == 0 {
			return fmt.Errorf("categories: %q has no extensions", name)
		}
		for _, ext := range c.Categories[name] {
			if prev, ok := owner[ext]; ok {
				return fmt.Errorf("categories: extension %q listed under both %q and %q", ext, prev, name)
			}
			owner[ext] = name
		}
	}

	if strings.ContainsAny(c.Rearrange.FolderPrefix, `/\`) {
		return fmt.Errorf("rearrange.folder_prefix: %q must not contain path separators", c.Rearrange.FolderPrefix)
	}
	return nil
}
