package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/glgrid/graphics"
	"github.com/richinsley/glgrid/mesh"
	"github.com/richinsley/glgrid/shader"
	"github.com/richinsley/glgrid/texture"
)

const (
	attrPosition = "a_Position"
	attrTexCoord = "a_TexCoordinate"
	attrColor    = "a_Color"
	attrNormal   = "a_Normal"
)

// tileTexCoords map the image top-left to the first vertex; image rows grow
// downward, so t is not flipped.
var tileTexCoords = []float32{
	0, 0,
	0, 1,
	1, 0,
	0, 1,
	1, 1,
	1, 0,
}

// gridRenderer tiles a textured quad over a rows x columns grid.
type gridRenderer struct {
	core
	columns int
	layout  Layout
	program *shader.Program
	texture *texture.Texture
	tile    *mesh.Buffer
}

// tileMesh is a square of half-extent ratio at z = -1, so that C tiles
// translated 2*ratio apart span [-C*ratio, C*ratio].
func tileMesh(ratio float32) (*mesh.Mesh, error) {
	r := ratio
	positions := []float32{
		-r, r, -1,
		-r, -r, -1,
		r, r, -1,
		-r, -r, -1,
		r, -r, -1,
		r, r, -1,
	}
	return mesh.New(graphics.Triangles, []mesh.Attribute{
		{Name: attrPosition, Size: mesh.PositionSize, Data: positions},
		{Name: attrTexCoord, Size: mesh.TexCoordSize, Data: tileTexCoords},
	}, nil)
}

func (r *gridRenderer) OnSurfaceCreated() error {
	return r.create(func() error {
		p, err := r.buildProgram("per_pixel", []string{attrPosition, attrTexCoord})
		if err != nil {
			return err
		}
		r.program = p
		t, err := r.loadTexture(r.cfg.Texture)
		if err != nil {
			return err
		}
		r.texture = t
		return nil
	})
}

// OnSurfaceChanged recomputes the layout and rebuilds the tile, whose
// vertices depend on the aspect ratio.
func (r *gridRenderer) OnSurfaceChanged(width, height int) error {
	if err := r.resize(width, height); err != nil {
		return err
	}
	return r.relayout()
}

func (r *gridRenderer) relayout() error {
	l, err := ComputeLayout(r.columns, r.cfg.Offset, r.width, r.height)
	if err != nil {
		return err
	}
	m, err := tileMesh(l.Ratio)
	if err != nil {
		return err
	}
	r.releaseTile()
	r.tile = mesh.Upload(r.driver, m)
	r.layout = l

	Logger().Debug("grid layout", "columns", l.Columns, "rows", l.Rows, "cell", l.CellSize)
	return nil
}

func (r *gridRenderer) releaseTile() {
	if r.tile != nil {
		r.tile.Release(r.driver)
		r.tile = nil
	}
}

// SetColumns changes the column count. A sized surface is laid out again
// immediately; otherwise the count applies on the next OnSurfaceChanged.
func (r *gridRenderer) SetColumns(columns int) error {
	if columns < 1 {
		return fmt.Errorf("columns %d must be at least 1", columns)
	}
	r.columns = columns
	if r.state == Rendering {
		return r.relayout()
	}
	return nil
}

// Layout returns the grid geometry of the last resize.
func (r *gridRenderer) Layout() Layout { return r.layout }

func (r *gridRenderer) OnDrawFrame() error {
	if err := r.beginFrame(); err != nil {
		return err
	}
	d := r.driver
	d.UseProgram(r.program.Handle)
	d.BindTexture(0, r.texture.Handle)
	d.Uniform1i(r.program.Uniform(d, r.cfg.Uniforms.Texture), 0)

	bindings := mesh.Bindings(r.program.Attributes())
	for row := 0; row < r.layout.Rows; row++ {
		for col := 0; col < r.layout.Columns; col++ {
			model := mgl32.Translate3D(r.layout.CellTranslation(row, col).Elem())
			r.setMatrices(r.program, model)
			r.tile.Draw(d, bindings)
		}
	}
	return nil
}

func (r *gridRenderer) OnSurfaceDestroyed() {
	if r.state == Uninitialized || r.state == Destroyed {
		return
	}
	r.releaseTile()
	r.destroy()
	r.program, r.texture = nil, nil
	r.layout = Layout{}
}
