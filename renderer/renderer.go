// Package renderer implements the three demo renderers behind one
// lifecycle interface driven by a host surface.
package renderer

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/glgrid/graphics"
	"github.com/richinsley/glgrid/shader"
	"github.com/richinsley/glgrid/texture"
)

var (
	// ErrNotCreated is returned when the surface has not been created, or
	// was destroyed.
	ErrNotCreated = errors.New("surface not created")
	// ErrAlreadyCreated is returned by OnSurfaceCreated on a live surface.
	ErrAlreadyCreated = errors.New("surface already created")
	// ErrNotReady is returned by OnDrawFrame before the first OnSurfaceChanged.
	ErrNotReady = errors.New("surface size not set")
)

// State is the lifecycle position of a renderer.
type State int

const (
	Uninitialized State = iota
	Ready
	Rendering
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Rendering:
		return "rendering"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Renderer receives the lifecycle callbacks of a host surface. All methods
// must be called from the thread that owns the graphics context.
type Renderer interface {
	// OnSurfaceCreated acquires every GPU resource. On failure nothing stays
	// allocated.
	OnSurfaceCreated() error
	// OnSurfaceChanged sets the viewport and projection. It must run at least
	// once before the first frame and again on every resize.
	OnSurfaceChanged(width, height int) error
	// OnDrawFrame renders one frame.
	OnDrawFrame() error
	// OnSurfaceDestroyed releases every GPU resource. The renderer may be
	// created again afterwards.
	OnSurfaceDestroyed()
	State() State
}

// ColumnSetter is implemented by renderers whose grid column count can be
// changed at runtime.
type ColumnSetter interface {
	SetColumns(columns int) error
}

// Deps are the collaborators a renderer draws through.
type Deps struct {
	Driver graphics.Driver
	// Assets holds shaders/ and textures/.
	Assets fs.FS
	// Translator is optional; see shader.Translator.
	Translator shader.Translator
}

// New builds the renderer cfg.Variant names. No GPU work happens until
// OnSurfaceCreated.
func New(cfg Config, deps Deps) (Renderer, error) {
	if deps.Driver == nil {
		return nil, fmt.Errorf("renderer needs a graphics driver")
	}
	if deps.Assets == nil {
		return nil, fmt.Errorf("renderer needs an asset tree")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := core{cfg: cfg, deps: deps, driver: deps.Driver}
	switch cfg.Variant {
	case SimpleQuad:
		return &simpleRenderer{core: c}, nil
	case TiledGrid:
		return &gridRenderer{core: c, columns: cfg.Columns}, nil
	case TexturedCube:
		return &cubeRenderer{core: c}, nil
	default:
		return nil, fmt.Errorf("unknown renderer variant %v", cfg.Variant)
	}
}

// core is the state every variant shares: matrices, lifecycle state and the
// GPU objects to release on destruction.
type core struct {
	cfg    Config
	deps   Deps
	driver graphics.Driver

	state      State
	width      int
	height     int
	frustum    Frustum
	view       mgl32.Mat4
	projection mgl32.Mat4

	releasers []func(graphics.Driver)
}

func (c *core) State() State { return c.state }

// create runs the shared created transition and then setup. A setup failure
// releases whatever setup acquired.
func (c *core) create(setup func() error) error {
	if c.state == Ready || c.state == Rendering {
		return ErrAlreadyCreated
	}

	d := c.driver
	cc := c.cfg.ClearColor
	d.ClearColor(cc[0], cc[1], cc[2], cc[3])
	d.Enable(graphics.DepthTest)
	if c.cfg.CullFace {
		d.Enable(graphics.CullFace)
	}
	c.view = c.cfg.Camera.ViewMatrix()

	if err := setup(); err != nil {
		c.releaseAll()
		return fmt.Errorf("failed to initialize %s renderer: %w", c.cfg.Variant, err)
	}

	c.state = Ready
	Logger().Info("surface created", "variant", c.cfg.Variant.String())
	return nil
}

// resize runs the shared changed transition.
func (c *core) resize(width, height int) error {
	if c.state != Ready && c.state != Rendering {
		return ErrNotCreated
	}
	f, err := FrustumFor(width, height, c.cfg.Projection)
	if err != nil {
		return err
	}
	c.driver.Viewport(0, 0, int32(width), int32(height))
	c.width, c.height = width, height
	c.frustum = f
	c.projection = f.Matrix()
	c.state = Rendering

	Logger().Debug("surface changed", "width", width, "height", height, "ratio", f.Ratio())
	return nil
}

// beginFrame checks the state and clears the color and depth buffers.
func (c *core) beginFrame() error {
	switch c.state {
	case Rendering:
	case Ready:
		return ErrNotReady
	default:
		return ErrNotCreated
	}
	c.driver.Clear()
	return nil
}

// setMatrices uploads view × model and projection × view × model.
func (c *core) setMatrices(p *shader.Program, model mgl32.Mat4) {
	mv := ModelView(c.view, model)
	c.driver.UniformMatrix4fv(p.Uniform(c.driver, c.cfg.Uniforms.MV), [16]float32(mv))
	mvp := ModelViewProjection(c.projection, mv)
	c.driver.UniformMatrix4fv(p.Uniform(c.driver, c.cfg.Uniforms.MVP), [16]float32(mvp))
}

func (c *core) buildProgram(name string, attributes []string) (*shader.Program, error) {
	vs, frag, err := shader.LoadSources(c.deps.Assets, name)
	if err != nil {
		return nil, err
	}
	p, err := shader.NewBuilder(c.driver, c.deps.Translator).Build(vs, frag, attributes)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", name, err)
	}
	c.track(p.Release)
	return p, nil
}

func (c *core) loadTexture(name string) (*texture.Texture, error) {
	t, err := texture.NewLoader(c.driver, c.deps.Assets).LoadTexture(name)
	if err != nil {
		return nil, err
	}
	c.track(t.Release)
	return t, nil
}

func (c *core) track(release func(graphics.Driver)) {
	c.releasers = append(c.releasers, release)
}

func (c *core) releaseAll() {
	for i := len(c.releasers) - 1; i >= 0; i-- {
		c.releasers[i](c.driver)
	}
	c.releasers = nil
}

// destroy releases every tracked object. Destroying a surface that was never
// created is a no-op.
func (c *core) destroy() {
	if c.state == Uninitialized || c.state == Destroyed {
		return
	}
	c.releaseAll()
	c.state = Destroyed
	Logger().Info("surface destroyed", "variant", c.cfg.Variant.String())
}

// Frustum returns the projection volume of the last resize.
func (c *core) Frustum() Frustum { return c.frustum }

// View returns the view matrix.
func (c *core) View() mgl32.Mat4 { return c.view }

// Projection returns the projection matrix of the last resize.
func (c *core) Projection() mgl32.Mat4 { return c.projection }
