// Package demo holds the guild command tree the arbor CLI serves when no
// tree file is given. It doubles as a worked example of the public API.
package demo

import (
	_ "embed"

	"github.com/aretw0/arbor/pkg/dsl"
)

//go:embed tree.yaml
var treeYAML []byte

// TreeYAML returns the embedded tree definition.
func TreeYAML() []byte {
	return append([]byte(nil), treeYAML...)
}

// Install registers the guild tree on r, reading the definition from path
// when it is not empty and from the embedded tree otherwise.
func Install(r dsl.Registrar, h *Guild, path string) error {
	var (
		tree *dsl.Tree
		err  error
	)
	if path != "" {
		tree, err = dsl.LoadFile(path)
	} else {
		tree, err = dsl.Parse(treeYAML)
	}
	if err != nil {
		return err
	}
	return dsl.Build(r, tree, h.Bindings())
}
