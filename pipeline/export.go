package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sg6/epub-translator/book"
)

const (
	// DefaultOutputDir is where finished books are placed, relative to the
	// working directory.
	DefaultOutputDir = "translated_books"
	// DefaultSuffix is appended to the input's base name.
	DefaultSuffix = "_translated"
)

// OutputName derives the output file name from the input path:
// "books/Dune.epub" becomes "Dune_translated.epub".
func OutputName(input, suffix string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + suffix + ext
}

// Exporter writes finished books. The zero value writes in the working
// directory and moves into DefaultOutputDir with DefaultSuffix.
type Exporter struct {
	// WorkDir is where the book is written before being moved.
	WorkDir   string
	OutputDir string
	Suffix    string
}

// Export writes pkg under a temporary name in WorkDir, then moves it into
// OutputDir, which is created if missing. It returns the final path.
// Nothing is left in OutputDir when writing or moving fails.
func (e Exporter) Export(pkg *book.Package, input string) (string, error) {
	workDir, outDir, suffix := e.WorkDir, e.OutputDir, e.Suffix
	if workDir == "" {
		workDir = "."
	}
	if outDir == "" {
		outDir = DefaultOutputDir
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}
	name := OutputName(input, suffix)

	tmp, err := os.CreateTemp(workDir, "."+name+".*.tmp")
	if err != nil {
		return "", &book.WriteError{Path: filepath.Join(workDir, name), Err: err}
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := book.WriteFile(tmpPath, pkg); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	final := filepath.Join(outDir, name)
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", &book.WriteError{Path: tmpPath, Err: err}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		os.Remove(tmpPath)
		return "", &RelocationError{From: tmpPath, To: final, Err: err}
	}
	if err := move(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", &RelocationError{From: tmpPath, To: final, Err: err}
	}
	return final, nil
}

// move renames src to dst, copying when they are on different filesystems.
// dst only appears once it is complete.
func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	part := dst + ".part"
	if err := os.WriteFile(part, data, 0o644); err != nil {
		os.Remove(part)
		return err
	}
	if err := os.Rename(part, dst); err != nil {
		os.Remove(part)
		return err
	}
	return os.Remove(src)
}
