// Package assets embeds the shader sources and texture images the renderers
// load at surface creation.
package assets

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed shaders/*.vert shaders/*.frag textures/*.png
var embedded embed.FS

// Default returns the embedded asset tree.
func Default() fs.FS {
	return embedded
}

// Open returns the asset tree rooted at dir, or the embedded tree when dir is
// empty.
func Open(dir string) (fs.FS, error) {
	if dir == "" {
		return embedded, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: fs.ErrInvalid}
	}
	return os.DirFS(dir), nil
}
