package manifest

import (
	"fmt"
	"os"

	"github.com/zmkbuild/zmkbuild/internal/fault"
	"gopkg.in/yaml.v3"
)

// A single firmware image to build.
type Target struct {
	Board     string // Board identifier passed to west build -b.
	Shield    string // Shield name, also the artifact base name.
	Snippet   string // Optional Zephyr snippet. Empty when unset.
	CMakeArgs string // Optional extra CMake arguments, verbatim. Empty when unset.
}

// Returns "board/shield", the label used in logs.
func (t Target) String() string {
	return t.Board + "/" + t.Shield
}

// Raw manifest document.
type document struct {
	Include *[]entry `yaml:"include"`
}

// Raw include entry.
type entry struct {
	Board     string  `yaml:"board"`
	Shield    shields `yaml:"shield"`
	Snippet   string  `yaml:"snippet"`
	CMakeArgs string  `yaml:"cmake-args"`
}

// Shield names of an entry, decoded from a scalar or a sequence.
type shields []string

func (s *shields) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*s = shields{name}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*s = names
		return nil
	default:
		return fmt.Errorf("line %d: shield must be a name or a list of names", node.Line)
	}
}

// Reads and parses the manifest at path.
func Load(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(ErrManifest, err)
	}

	targets, err := parse(data)
	if err != nil {
		return nil, fault.Wrapf(ErrManifest, "%s: %w", path, err)
	}
	return targets, nil
}

// Parses a manifest document into build targets, in document order.
//
// The document must not be empty and must contain an include sequence. Each
// entry must name a board and at least one shield. Targets are not
// deduplicated. Errors match [ErrManifest].
func Parse(data []byte) ([]Target, error) {
	targets, err := parse(data)
	if err != nil {
		return nil, fault.Wrap(ErrManifest, err)
	}
	return targets, nil
}

func parse(data []byte) ([]Target, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if isEmpty(&root) {
		return nil, ErrEmpty
	}

	var doc document
	if err := root.Decode(&doc); err != nil {
		return nil, err
	}
	if doc.Include == nil {
		return nil, ErrMissingInclude
	}

	var targets []Target
	for i, e := range *doc.Include {
		if e.Board == "" || len(e.Shield) == 0 {
			return nil, fmt.Errorf("entry %d: %w", i+1, ErrMissingField)
		}
		for _, shield := range e.Shield {
			if shield == "" {
				return nil, fmt.Errorf("entry %d: %w", i+1, ErrMissingField)
			}
			targets = append(targets, Target{
				Board:     e.Board,
				Shield:    shield,
				Snippet:   e.Snippet,
				CMakeArgs: e.CMakeArgs,
			})
		}
	}
	return targets, nil
}

// Reports whether a parsed document has no content. Whitespace-only,
// comment-only and explicit null documents are all empty.
func isEmpty(root *yaml.Node) bool {
	if root.Kind == 0 || len(root.Content) == 0 {
		return true
	}
	n := root.Content[0]
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
