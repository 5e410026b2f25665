package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/descriptor.schema.json
var schemaBytes []byte

const schemaID = "descriptor.schema.json"

var (
	descriptorSchema *jsonschema.Schema
	schemaOnce       sync.Once
	schemaErr        error
	printer          = message.NewPrinter(language.English)
)

// Report is the outcome of checking a descriptor against the schema.
type Report struct {
	Valid  bool
	Issues []Issue
}

// Issue is one schema violation.
type Issue struct {
	// Field is the dotted descriptor path, e.g. "meta.name" or
	// "dependencies.python[0]". Empty means the whole document.
	Field string
	// Line is the 1-based line of Field in the descriptor, 0 if unknown.
	Line    int
	Message string
	// Keyword is the schema keyword that failed.
	Keyword string
}

func (i Issue) String() string {
	where := i.Field
	if where == "" {
		where = "descriptor"
	}
	if i.Line > 0 {
		where = fmt.Sprintf("%s (line %d)", where, i.Line)
	}
	return where + ": " + i.Message
}

func getSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			schemaErr = fmt.Errorf("reading descriptor schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaID, doc); err != nil {
			schemaErr = fmt.Errorf("adding descriptor schema: %w", err)
			return
		}
		if descriptorSchema, err = c.Compile(schemaID); err != nil {
			schemaErr = fmt.Errorf("compiling descriptor schema: %w", err)
		}
	})
	return descriptorSchema, schemaErr
}

// Validate checks descriptor YAML against the schema. The error covers
// unreadable YAML and schema failures; violations land in the Report.
func Validate(data []byte) (*Report, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	loc := &locator{lines: map[string]int{}, seqs: map[string]bool{}}
	value := loc.walk(&doc, nil)

	// The schema library takes JSON values, numbers as json.Number.
	js, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("converting descriptor to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return nil, fmt.Errorf("converting descriptor to JSON: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return &Report{Valid: true}, nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("validating descriptor: %w", err)
	}

	issues := loc.issues(ve)
	if len(issues) == 0 {
		issues = []Issue{{Message: ve.Error()}}
	}
	return &Report{Issues: issues}, nil
}

// ValidateFile validates a descriptor file, or the descriptor found in a
// package directory.
func ValidateFile(path string) (*Report, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		found, err := Find(path)
		if err != nil {
			return nil, err
		}
		path = found
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(data)
}

// locator remembers where each value sits in the YAML source.
type locator struct {
	lines map[string]int  // JSON pointer -> line
	seqs  map[string]bool // JSON pointers of sequences
}

func pointer(loc []string) string {
	return "/" + strings.Join(loc, "/")
}

// walk turns a YAML node into a JSON-compatible value, recording lines.
func (l *locator) walk(n *yaml.Node, loc []string) any {
	if _, seen := l.lines[pointer(loc)]; !seen {
		l.lines[pointer(loc)] = n.Line
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return l.walk(n.Content[0], loc)
	case yaml.AliasNode:
		return l.walk(n.Alias, loc)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			child := append(loc[:len(loc):len(loc)], key)
			l.lines[pointer(child)] = n.Content[i].Line
			m[key] = l.walk(n.Content[i+1], child)
		}
		return m
	case yaml.SequenceNode:
		l.seqs[pointer(loc)] = true
		a := make([]any, len(n.Content))
		for i, item := range n.Content {
			a[i] = l.walk(item, append(loc[:len(loc):len(loc)], fmt.Sprint(i)))
		}
		return a
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return n.Value
	}
	return v
}

// field renders a location the way descriptors are written.
func (l *locator) field(loc []string) string {
	var b strings.Builder
	for i, seg := range loc {
		switch {
		case l.seqs[pointer(loc[:i])]:
			b.WriteString("[" + seg + "]")
		case i > 0:
			b.WriteString("." + seg)
		default:
			b.WriteString(seg)
		}
	}
	return b.String()
}

// line finds the line of loc or of its closest located parent.
func (l *locator) line(loc []string) int {
	for i := len(loc); i >= 0; i-- {
		if n, ok := l.lines[pointer(loc[:i])]; ok {
			return n
		}
	}
	return 0
}

// issues flattens the error tree into leaf violations, one per missing or
// unknown field, sorted by line.
func (l *locator) issues(ve *jsonschema.ValidationError) []Issue {
	var out []Issue
	seen := map[string]bool{}
	add := func(is Issue) {
		key := is.Field + "|" + is.Keyword + "|" + is.Message
		if !seen[key] {
			seen[key] = true
			out = append(out, is)
		}
	}

	var visit func(*jsonschema.ValidationError)
	visit = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				visit(c)
			}
			return
		}
		if e.ErrorKind == nil {
			return
		}
		kw := e.ErrorKind.KeywordPath()
		if len(kw) == 0 {
			return
		}
		keyword := kw[len(kw)-1]
		loc := e.InstanceLocation

		switch k := e.ErrorKind.(type) {
		case *kind.Required:
			for _, name := range k.Missing {
				add(Issue{Field: l.field(loc), Line: l.line(loc), Keyword: keyword,
					Message: fmt.Sprintf("missing required field '%s'", name)})
			}
		case *kind.AdditionalProperties:
			for _, name := range k.Properties {
				child := append(loc[:len(loc):len(loc)], name)
				add(Issue{Field: l.field(loc), Line: l.line(child), Keyword: keyword,
					Message: fmt.Sprintf("unknown field '%s'", name)})
			}
		default:
			switch keyword {
			case "oneOf", "allOf", "anyOf", "$ref":
				return
			}
			add(Issue{Field: l.field(loc), Line: l.line(loc), Keyword: keyword,
				Message: e.ErrorKind.LocalizedString(printer)})
		}
	}
	visit(ve)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}
