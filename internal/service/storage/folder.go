package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrFilesystem marks failures creating folders or writing output files.
var ErrFilesystem = errors.New("filesystem error")

// ErrNoImages is returned by Scan when the folder holds no image files.
var ErrNoImages = errors.New("no image files found in the specified folder")

// Folder is the target folder being browsed and its output subfolder.
type Folder struct {
	root       string
	outputName string
}

// NewFolder describes root with crops written to root/outputName.
func NewFolder(root, outputName string) *Folder {
	return &Folder{root: root, outputName: outputName}
}

// Root returns the target folder.
func (f *Folder) Root() string {
	return f.root
}

// OutputName returns the name of the output subfolder.
func (f *Folder) OutputName() string {
	return f.outputName
}

// OutputDir returns the absolute path of the output subfolder.
func (f *Folder) OutputDir() string {
	return filepath.Join(f.root, f.outputName)
}

// EnsureOutputDir creates the output subfolder if it is missing and reports
// whether it had to be created.
func (f *Folder) EnsureOutputDir() (bool, error) {
	dir := f.OutputDir()

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%w: %s is not a directory", ErrFilesystem, dir)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("%w: %v", ErrFilesystem, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("%w: error creating %s subfolder: %v", ErrFilesystem, f.outputName, err)
	}
	return true, nil
}

// Scan lists the image files directly inside the folder, sorted by name.
// Matching is by case-insensitive extension.
func (f *Folder) Scan(extensions []string) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFilesystem, err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsImageFile(entry.Name(), extensions) {
			images = append(images, entry.Name())
		}
	}

	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}

// SourcePath returns the path of a source image inside the folder.
func (f *Folder) SourcePath(filename string) string {
	return filepath.Join(f.root, filename)
}

// OutputPath returns the path of an output file inside the output subfolder.
func (f *Folder) OutputPath(filename string) string {
	return filepath.Join(f.OutputDir(), filename)
}

// Exists reports whether a file with that name already exists in the output subfolder.
func (f *Folder) Exists(filename string) bool {
	_, err := os.Stat(f.OutputPath(filename))
	return err == nil
}

// UniqueFilename returns base+ext, or base_1+ext, base_2+ext, ... whichever
// is the first name not already present in the output subfolder.
func (f *Folder) UniqueFilename(base, ext string) string {
	filename := base + ext
	for counter := 1; f.Exists(filename); counter++ {
		filename = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
	return filename
}

// IsImageFile checks the extension of name against extensions.
func IsImageFile(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, candidate := range extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
