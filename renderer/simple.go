package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/glgrid/mesh"
	"github.com/richinsley/glgrid/shader"
)

const colorPosition = "aPosition"

// simpleRenderer draws one flat-colored square through the color program.
type simpleRenderer struct {
	core
	program *shader.Program
	square  *mesh.Square
}

func (r *simpleRenderer) OnSurfaceCreated() error {
	return r.create(func() error {
		p, err := r.buildProgram("color", []string{colorPosition})
		if err != nil {
			return err
		}
		r.program = p
		r.square = mesh.NewSquare(r.driver, colorPosition)
		r.track(r.square.Release)
		return nil
	})
}

func (r *simpleRenderer) OnSurfaceChanged(width, height int) error {
	return r.resize(width, height)
}

func (r *simpleRenderer) OnDrawFrame() error {
	if err := r.beginFrame(); err != nil {
		return err
	}
	r.driver.UseProgram(r.program.Handle)
	r.setMatrices(r.program, mgl32.Ident4())

	pos, _ := r.program.Attribute(colorPosition)
	r.square.Draw(r.driver, r.program.Uniform(r.driver, r.cfg.Uniforms.Color), pos)
	return nil
}

func (r *simpleRenderer) OnSurfaceDestroyed() {
	r.destroy()
	r.program, r.square = nil, nil
}
