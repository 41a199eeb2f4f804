package dsl

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrInvalidTree is returned when a definition cannot describe a command tree.
var ErrInvalidTree = errors.New("invalid command tree")

// Tree is the document root of a definition file.
type Tree struct {
	Commands []NodeSpec `json:"commands" yaml:"commands" mapstructure:"commands"`
}

// NodeSpec describes one command node and its subtree.
// Pointer messages distinguish "absent" (inherit) from "empty" (silent).
type NodeSpec struct {
	Name    string   `json:"name" yaml:"name" mapstructure:"name"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty" mapstructure:"aliases"`

	Permission        string  `json:"permission,omitempty" yaml:"permission,omitempty" mapstructure:"permission"`
	PermissionMessage *string `json:"permission_message,omitempty" yaml:"permission_message,omitempty" mapstructure:"permission_message"`
	PlayerOnlyMessage *string `json:"player_only_message,omitempty" yaml:"player_only_message,omitempty" mapstructure:"player_only_message"`
	Usage             *string `json:"usage,omitempty" yaml:"usage,omitempty" mapstructure:"usage"`

	CancelOnDisconnect bool `json:"cancel_on_disconnect,omitempty" yaml:"cancel_on_disconnect,omitempty" mapstructure:"cancel_on_disconnect"`

	// Handler names resolved against Bindings.
	Handler   string      `json:"handler,omitempty" yaml:"handler,omitempty" mapstructure:"handler"`
	Player    string      `json:"player,omitempty" yaml:"player,omitempty" mapstructure:"player"`
	Typed     []TypedSpec `json:"typed,omitempty" yaml:"typed,omitempty" mapstructure:"typed"`
	Completer string      `json:"completer,omitempty" yaml:"completer,omitempty" mapstructure:"completer"`

	Children []NodeSpec `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children"`
}

// TypedSpec binds a handler to callers accepted by a named matcher.
type TypedSpec struct {
	Match   string `json:"match" yaml:"match" mapstructure:"match"`
	Handler string `json:"handler" yaml:"handler" mapstructure:"handler"`
}

// Parse decodes a YAML or JSON definition.
// Unknown keys are rejected so typos surface at load time.
func Parse(data []byte) (*Tree, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidTree)
	}

	var tree Tree
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &tree,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	return &tree, nil
}

// LoadFile reads and parses a definition file.
func LoadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree %s: %w", path, err)
	}
	tree, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// Validate checks structural rules that do not depend on bindings.
func (t *Tree) Validate() error {
	if len(t.Commands) == 0 {
		return fmt.Errorf("%w: no commands", ErrInvalidTree)
	}
	if err := uniqueLabels(nil, t.Commands); err != nil {
		return err
	}
	for i := range t.Commands {
		if err := t.Commands[i].validate(nil); err != nil {
			return err
		}
	}
	return nil
}

// Labels returns the name and aliases of the node.
func (s *NodeSpec) Labels() []string {
	return append([]string{s.Name}, s.Aliases...)
}

func (s *NodeSpec) validate(parent []string) error {
	path := append(append([]string(nil), parent...), s.Name)
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: blank name under %q", ErrInvalidTree, strings.Join(parent, " "))
	}
	for _, ts := range s.Typed {
		if ts.Match == "" || ts.Handler == "" {
			return fmt.Errorf("%w: %q has a typed handler without match or handler", ErrInvalidTree, strings.Join(path, " "))
		}
	}
	// Only player handlers are bound to a connection.
	if s.CancelOnDisconnect && s.Player == "" {
		return fmt.Errorf("%w: %q sets cancel_on_disconnect without a player handler", ErrInvalidTree, strings.Join(path, " "))
	}
	if err := uniqueLabels(path, s.Children); err != nil {
		return err
	}
	for i := range s.Children {
		if err := s.Children[i].validate(path); err != nil {
			return err
		}
	}
	return nil
}

func uniqueLabels(path []string, siblings []NodeSpec) error {
	seen := make(map[string]string)
	for i := range siblings {
		node := &siblings[i]
		for _, label := range node.Labels() {
			key := strings.ToLower(strings.TrimSpace(label))
			if key == "" {
				continue
			}
			if other, ok := seen[key]; ok {
				return fmt.Errorf("%w: %q: label %q used by %q and %q", ErrInvalidTree, strings.Join(path, " "), label, other, node.Name)
			}
			seen[key] = node.Name
		}
	}
	return nil
}
