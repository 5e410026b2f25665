// Package credentials collects the private information a model package
// declares (API keys, endpoints) into private.json. The file is kept in the
// package cache so that it survives reinstalls, and is symlinked into the
// package directory where model scripts read it.
package credentials

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mlhub-labs/mlhub/internal/manifest"
	"github.com/mlhub-labs/mlhub/internal/platform"
	"github.com/mlhub-labs/mlhub/internal/prompt"
	"github.com/mlhub-labs/mlhub/internal/userdata"
)

const msgRequest = `Private information is required to access this service.
See the README for more details.`

// Collector gathers private information interactively.
type Collector struct {
	Prompter *prompt.Prompter
	// Out receives the explanatory messages, normally stderr.
	Out io.Writer
	// Yes keeps an existing file and skips collection.
	Yes bool
}

// Configure makes sure cachePath holds the private information for groups
// and links it to linkPath.
func (c *Collector) Configure(groups []manifest.PrivateGroup, cachePath, linkPath string) error {
	if len(groups) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cachePath), userdata.DirPermSecure); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	collect := true
	if info, err := os.Stat(cachePath); err == nil && info.Size() > 0 {
		fmt.Fprintf(c.Out, "The following file has been found and is assumed to\ncontain the private information for %s.\n\n    %s\n",
			serviceNames(groups), cachePath)
		if stored, err := Load(cachePath); err == nil && len(stored) > 0 {
			fmt.Fprintf(c.Out, "\nIt provides: %s\n", strings.Join(sortedKeys(stored), ", "))
		}
		collect = !c.Yes && !c.Prompter.YesOrNo(prompt.Yes, "\nUse this private information (type 'n' to update)")
		if collect {
			fmt.Fprintln(c.Out)
		}
	} else if c.Yes {
		fmt.Fprintln(c.Out, msgRequest)
		collect = false
	}

	if collect {
		fmt.Fprintln(c.Out, msgRequest)
		data, err := c.ask(groups)
		if err != nil {
			return err
		}
		if err := Save(cachePath, data); err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "\nThat information has been saved into the file:\n\n    %s\n", cachePath)
	}

	if _, err := os.Stat(cachePath); err != nil {
		return nil
	}
	if err := platform.ReplaceSymlink(cachePath, linkPath); err != nil {
		return fmt.Errorf("linking private information: %w", err)
	}
	return nil
}

func (c *Collector) ask(groups []manifest.PrivateGroup) (map[string]any, error) {
	out := map[string]any{}
	for _, g := range groups {
		values, err := c.askGroup(g)
		if err != nil {
			return nil, err
		}
		if g.Service == "" {
			for k, v := range values {
				out[k] = v
			}
			continue
		}
		out[g.Service] = values
	}
	return out, nil
}

func (c *Collector) askGroup(g manifest.PrivateGroup) (map[string]string, error) {
	values := map[string]string{}
	label := "your "
	if g.Service != "" {
		label += g.Service + " "
	}
	for _, item := range g.Items {
		name := strings.ReplaceAll(item, "*", "")
		key := JSONKey(item)
		if strings.Contains(item, "*") {
			v, err := c.Prompter.Secret(fmt.Sprintf("\nPlease paste %s%s: ", label, name))
			if err != nil && err != io.EOF {
				return nil, err
			}
			if v != "" {
				values[key] = v
			}
			continue
		}
		v, err := c.Prompter.Line(fmt.Sprintf("Please paste %s%s: ", label, name))
		if err != nil && err != io.EOF {
			return nil, err
		}
		values[key] = v
	}
	return values, nil
}

// JSONKey is the key an item is stored under: "*" removed, spaces as "_".
func JSONKey(item string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ReplaceAll(item, "*", "")), " ", "_")
}

// Save writes data as JSON readable only by the user.
func Save(path string, data map[string]any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding private information: %w", err)
	}
	if err := os.WriteFile(path, b, userdata.FilePermSecure); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return platform.Chmod(path, userdata.FilePermSecure)
}

// Load reads a private.json file.
func Load(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return data, nil
}

func serviceNames(groups []manifest.PrivateGroup) string {
	var names []string
	for _, g := range groups {
		if g.Service != "" {
			names = append(names, g.Service)
		}
	}
	if len(names) == 0 {
		return "this model"
	}
	return strings.Join(names, ", ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
