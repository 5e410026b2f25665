package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Readme file names, by preference.
const (
	ReadmeText     = "README.txt"
	ReadmeMarkdown = "README.md"
	ReadmeRST      = "README.rst"
)

// readmeWidth is the wrap width of README.txt rendered from markdown.
const readmeWidth = 78

// Readme returns the plain text README of an installed model without its
// trailing newline. README.txt is generated from README.md or README.rst
// the first time it is needed.
func (r *Registry) Readme(model string) (string, error) {
	if !r.Layout.IsInstalled(model) {
		return "", fmt.Errorf("%s: %w", model, ErrModelNotInstalled)
	}
	dir := r.Layout.PackageDir(model)
	txt := filepath.Join(dir, ReadmeText)

	if _, err := os.Stat(txt); os.IsNotExist(err) {
		if err := generateReadme(dir); err != nil {
			return "", fmt.Errorf("%s: %w", model, err)
		}
		r.logger().Debug("generated README.txt", "model", model)
	}

	data, err := os.ReadFile(txt)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", txt, err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func generateReadme(dir string) error {
	txt := filepath.Join(dir, ReadmeText)

	if md, err := os.ReadFile(filepath.Join(dir, ReadmeMarkdown)); err == nil {
		text, err := RenderMarkdown(string(md))
		if err != nil {
			return err
		}
		return os.WriteFile(txt, []byte(text), 0644)
	}
	if rst, err := os.ReadFile(filepath.Join(dir, ReadmeRST)); err == nil {
		return os.WriteFile(txt, rst, 0644)
	}
	return ErrReadmeNotFound
}

// RenderMarkdown renders markdown as plain, unstyled text.
func RenderMarkdown(md string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(readmeWidth),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering README.md: %w", err)
	}
	return strings.TrimLeft(out, "\n"), nil
}
