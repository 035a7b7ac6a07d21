package chart

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveOutputPath returns where an image should be written. An existing
// directory gets defaultFilename appended; anything else is used verbatim.
func ResolveOutputPath(savePath, defaultFilename string) string {
	if info, err := os.Stat(savePath); err == nil && info.IsDir() {
		return filepath.Join(savePath, defaultFilename)
	}
	return savePath
}

// withPNGExt appends ".png" when path has no extension.
func withPNGExt(path string) string {
	if filepath.Ext(path) == "" {
		return path + ".png"
	}
	return path
}

// outputPath resolves savePath, falling back to outputDir when it is empty.
func outputPath(savePath, outputDir, defaultFilename string) string {
	if savePath != "" {
		return ResolveOutputPath(savePath, defaultFilename)
	}
	if outputDir == "" {
		outputDir = "."
	}
	return filepath.Join(outputDir, defaultFilename)
}

// writeImage persists data at path through a temp file in the same
// directory, so path is either untouched or holds the complete image.
func writeImage(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrWriteFailed, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrWriteFailed, path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %v", ErrWriteFailed, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrWriteFailed, path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: renaming into %s: %v", ErrWriteFailed, path, err)
	}
	return nil
}
