package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/glgrid/graphics"
	"github.com/richinsley/glgrid/mesh"
	"github.com/richinsley/glgrid/shader"
	"github.com/richinsley/glgrid/texture"
)

// Front face of the cube: two triangles in the z = 0 plane.
var (
	facePositions = []float32{
		-0.5, 0.5, 0,
		-0.5, -0.5, 0,
		0.5, 0.5, 0,
		-0.5, -0.5, 0,
		0.5, -0.5, 0,
		0.5, 0.5, 0,
	}
	faceColors = []float32{
		1, 0, 0, 1,
		1, 0, 0, 1,
		1, 0, 0, 1,
		1, 0, 0, 1,
		1, 0, 0, 1,
		1, 0, 0, 1,
	}
	faceNormals = []float32{
		0, 0, 1,
		0, 0, 1,
		0, 0, 1,
		0, 0, 1,
		0, 0, 1,
		0, 0, 1,
	}
)

func cubeMesh() (*mesh.Mesh, error) {
	return mesh.New(graphics.Triangles, []mesh.Attribute{
		{Name: attrPosition, Size: mesh.PositionSize, Data: facePositions},
		{Name: attrColor, Size: mesh.ColorSize, Data: faceColors},
		{Name: attrNormal, Size: mesh.NormalSize, Data: faceNormals},
		{Name: attrTexCoord, Size: mesh.TexCoordSize, Data: tileTexCoords},
	}, nil)
}

// cubeRenderer draws the textured, per-fragment lit cube face with back
// faces culled.
type cubeRenderer struct {
	core
	program *shader.Program
	texture *texture.Texture
	face    *mesh.Buffer
}

func (r *cubeRenderer) OnSurfaceCreated() error {
	return r.create(func() error {
		p, err := r.buildProgram("lit", []string{attrPosition, attrColor, attrNormal, attrTexCoord})
		if err != nil {
			return err
		}
		r.program = p
		t, err := r.loadTexture(r.cfg.Texture)
		if err != nil {
			return err
		}
		r.texture = t
		m, err := cubeMesh()
		if err != nil {
			return err
		}
		r.face = mesh.Upload(r.driver, m)
		r.track(r.face.Release)
		return nil
	})
}

func (r *cubeRenderer) OnSurfaceChanged(width, height int) error {
	return r.resize(width, height)
}

func (r *cubeRenderer) OnDrawFrame() error {
	if err := r.beginFrame(); err != nil {
		return err
	}
	d := r.driver
	d.UseProgram(r.program.Handle)
	d.BindTexture(0, r.texture.Handle)
	d.Uniform1i(r.program.Uniform(d, r.cfg.Uniforms.Texture), 0)
	d.Uniform3fv(r.program.Uniform(d, r.cfg.Uniforms.LightPos), r.cfg.LightPos)

	r.setMatrices(r.program, mgl32.Ident4())
	r.face.Draw(d, mesh.Bindings(r.program.Attributes()))
	return nil
}

func (r *cubeRenderer) OnSurfaceDestroyed() {
	r.destroy()
	r.program, r.texture, r.face = nil, nil, nil
}
