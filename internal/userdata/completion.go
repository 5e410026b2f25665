package userdata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CompletionKind names a completion word list.
type CompletionKind string

const (
	CompletionModels   CompletionKind = "models"
	CompletionCommands CompletionKind = "commands"
)

// ReadCompletion returns the words cached for kind. A missing file yields
// an empty list.
func (l Layout) ReadCompletion(kind CompletionKind) ([]string, error) {
	data, err := os.ReadFile(l.CompletionPath(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading completion list: %w", err)
	}

	var words []string
	for _, line := range strings.Split(string(data), "\n") {
		if w := strings.TrimSpace(line); w != "" {
			words = append(words, w)
		}
	}
	return words, nil
}

// AddCompletion merges words into the cached list for kind and rewrites it
// sorted and de-duplicated.
func (l Layout) AddCompletion(kind CompletionKind, words ...string) error {
	existing, err := l.ReadCompletion(kind)
	if err != nil {
		return err
	}

	set := make(map[string]bool, len(existing)+len(words))
	for _, w := range existing {
		set[w] = true
	}
	changed := false
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" && !set[w] {
			set[w] = true
			changed = true
		}
	}
	if !changed && len(existing) > 0 {
		return nil
	}

	merged := make([]string, 0, len(set))
	for w := range set {
		merged = append(merged, w)
	}
	sort.Strings(merged)

	path := l.CompletionPath(kind)
	if err := os.MkdirAll(filepath.Dir(path), DirPermNormal); err != nil {
		return fmt.Errorf("creating completion dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(merged, "\n")+"\n"), FilePermNormal); err != nil {
		return fmt.Errorf("writing completion list: %w", err)
	}
	return nil
}
