// Package static embeds the hand-written support files copied verbatim into
// the generated projects: the backend's validation pipe, decorators and
// pagination helpers, and the frontend's API client, hooks, table and form
// components. Generated files import them; they never import generated code
// except through the fixed DataContext and nav-data paths.
package static

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/matthewbaird/crudgen/internal/emit"
)

//go:embed all:backend all:frontend
var files embed.FS

// Tree returns the static files of an output root, rooted so that paths
// match the project layout. The shared root has no static files.
func Tree(root emit.Root) (fs.FS, error) {
	switch root {
	case emit.RootBackend, emit.RootFrontend:
		return fs.Sub(files, string(root))
	default:
		return nil, fmt.Errorf("no static tree for %s", root)
	}
}

// Paths lists the files of root's tree in walk order.
func Paths(root emit.Root) ([]string, error) {
	tree, err := Tree(root)
	if err != nil {
		return nil, err
	}
	var out []string
	err = fs.WalkDir(tree, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			out = append(out, p)
		}
		return nil
	})
	return out, err
}
