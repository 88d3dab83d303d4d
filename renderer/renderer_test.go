package renderer

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io/fs"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/glgrid/assets"
	"github.com/richinsley/glgrid/graphics"
	"github.com/richinsley/glgrid/graphics/graphicstest"
	"github.com/richinsley/glgrid/mesh"
	"github.com/richinsley/glgrid/shader"
)

func newRenderer(t *testing.T, cfg Config) (Renderer, *graphicstest.Driver) {
	t.Helper()
	d := graphicstest.New()
	r, err := New(cfg, Deps{Driver: d, Assets: assets.Default()})
	if err != nil {
		t.Fatalf("New(%v) error = %v", cfg.Variant, err)
	}
	return r, d
}

// startRenderer runs created and changed.
func startRenderer(t *testing.T, r Renderer, width, height int) {
	t.Helper()
	if err := r.OnSurfaceCreated(); err != nil {
		t.Fatalf("OnSurfaceCreated() error = %v", err)
	}
	if err := r.OnSurfaceChanged(width, height); err != nil {
		t.Fatalf("OnSurfaceChanged(%d, %d) error = %v", width, height, err)
	}
}

func uniformLocation(t *testing.T, d *graphicstest.Driver, name string) int32 {
	t.Helper()
	for loc, n := range d.UniformNames {
		if n == name {
			return loc
		}
	}
	t.Fatalf("uniform %q was never looked up", name)
	return -1
}

func TestNewRejectsMissingDeps(t *testing.T) {
	cfg := DefaultConfig(SimpleQuad)
	if _, err := New(cfg, Deps{Assets: assets.Default()}); err == nil {
		t.Error("New() without driver succeeded")
	}
	if _, err := New(cfg, Deps{Driver: graphicstest.New()}); err == nil {
		t.Error("New() without assets succeeded")
	}
	cfg.Projection.Far = 0
	if _, err := New(cfg, Deps{Driver: graphicstest.New(), Assets: assets.Default()}); err == nil {
		t.Error("New() with invalid config succeeded")
	}
}

func TestSimpleQuadFrame(t *testing.T) {
	r, d := newRenderer(t, DefaultConfig(SimpleQuad))
	startRenderer(t, r, 800, 480)
	d.Reset()

	if err := r.OnDrawFrame(); err != nil {
		t.Fatalf("OnDrawFrame() error = %v", err)
	}

	s := r.(*simpleRenderer)
	f := s.Frustum()
	if !approx(f.Left, -1.6667) || !approx(f.Right, 1.6667) || f.Near != 0.999999 || f.Far != 10 {
		t.Errorf("Frustum() = %+v", f)
	}
	wantView := mgl32.LookAt(0, 0, 0, 0, 0, -5, 0, 1, 0)
	if !s.View().ApproxEqual(wantView) {
		t.Errorf("View() = %v, want %v", s.View(), wantView)
	}
	if d.ViewportValue != [4]int32{0, 0, 800, 480} {
		t.Errorf("viewport = %v", d.ViewportValue)
	}
	if d.ClearColorValue != [4]float32{1, 1, 1, 1} {
		t.Errorf("clear color = %v, want white", d.ClearColorValue)
	}
	if !d.Capabilities[graphics.DepthTest] || d.Capabilities[graphics.CullFace] {
		t.Errorf("capabilities = %v, want depth test only", d.Capabilities)
	}

	if len(d.Draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(d.Draws))
	}
	draw := d.Draws[0]
	if !draw.Indexed || draw.Count != 6 || draw.Mode != graphics.Triangles {
		t.Errorf("draw = %+v, want 6 indexed triangles", draw)
	}
	if d.CallCount("Clear") != 1 {
		t.Errorf("Clear calls = %d, want 1", d.CallCount("Clear"))
	}

	mv := mgl32.Mat4(draw.Uniforms[uniformLocation(t, d, "u_MVMatrix")])
	if !mv.ApproxEqual(wantView) {
		t.Errorf("MV = %v, want view", mv)
	}
	mvp := mgl32.Mat4(draw.Uniforms[uniformLocation(t, d, "u_MVPMatrix")])
	if want := s.Projection().Mul4(wantView); !mvp.ApproxEqualThreshold(want, 1e-6) {
		t.Errorf("MVP = %v, want %v", mvp, want)
	}
	last, ok := d.MatrixNamed("u_MVPMatrix")
	if !ok || mgl32.Mat4(last) != mvp {
		t.Errorf("MatrixNamed(u_MVPMatrix) = %v, %v, want the drawn MVP", last, ok)
	}
	if got := d.Vectors[uniformLocation(t, d, "u_Color")]; got != mesh.SquareColor {
		t.Errorf("color = %v, want %v", got, mesh.SquareColor)
	}
}

func TestMatrixUploadOrder(t *testing.T) {
	r, d := newRenderer(t, DefaultConfig(SimpleQuad))
	startRenderer(t, r, 320, 240)
	d.Reset()
	if err := r.OnDrawFrame(); err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, c := range d.Calls {
		if c.Name == "UniformMatrix4fv" {
			names = append(names, d.UniformNames[c.Args[0].(int32)])
		}
	}
	if strings.Join(names, ",") != "u_MVMatrix,u_MVPMatrix" {
		t.Errorf("matrix uploads = %v, want MV then MVP", names)
	}
}

func TestTiledGridFrame(t *testing.T) {
	r, d := newRenderer(t, DefaultConfig(TiledGrid))
	startRenderer(t, r, 900, 300)
	d.Reset()

	if err := r.OnDrawFrame(); err != nil {
		t.Fatalf("OnDrawFrame() error = %v", err)
	}

	g := r.(*gridRenderer)
	l := g.Layout()
	if l.Rows != 2 || l.Columns != 3 || l.CellSize != 300 {
		t.Errorf("Layout() = %+v, want 2 rows of 3 cells of 300", l)
	}
	if len(d.Draws) != 6 {
		t.Fatalf("draws = %d, want 6", len(d.Draws))
	}

	mvLoc := uniformLocation(t, d, "u_MVMatrix")
	mvpLoc := uniformLocation(t, d, "u_MVPMatrix")
	counts := map[float32]int{}
	for i, draw := range d.Draws {
		if draw.Indexed || draw.Count != 6 {
			t.Errorf("draw %d = %+v, want 6 array vertices", i, draw)
		}
		if len(draw.Enabled) != 2 {
			t.Errorf("draw %d enabled %v, want position and texcoord", i, draw.Enabled)
		}
		mv := mgl32.Mat4(draw.Uniforms[mvLoc])
		model := g.View().Inv().Mul4(mv)
		x := model[12]
		switch {
		case approx(x, -6):
			counts[-6]++
		case approx(x, 0):
			counts[0]++
		case approx(x, 6):
			counts[6]++
		default:
			t.Errorf("draw %d translated to x = %v", i, x)
		}
		if !approx(model[13], 0) {
			t.Errorf("draw %d translated to y = %v, want 0", i, model[13])
		}
		mvp := mgl32.Mat4(draw.Uniforms[mvpLoc])
		if want := g.Projection().Mul4(mv); !mvp.ApproxEqualThreshold(want, 1e-5) {
			t.Errorf("draw %d MVP = %v, want P×MV %v", i, mvp, want)
		}
	}
	for _, x := range []float32{-6, 0, 6} {
		if counts[x] != 2 {
			t.Errorf("draws at x = %v: %d, want 2", x, counts[x])
		}
	}

	if d.Ints[uniformLocation(t, d, "u_Texture")] != 0 {
		t.Error("texture sampler not bound to unit 0")
	}
	for h, f := range d.TextureFilters {
		if f != [2]graphics.Filter{graphics.Nearest, graphics.Nearest} {
			t.Errorf("texture %d filters = %v, want nearest", h, f)
		}
	}
}

func TestTiledGridResizeRebuildsTile(t *testing.T) {
	r, d := newRenderer(t, DefaultConfig(TiledGrid))
	startRenderer(t, r, 900, 300)
	live := d.Live()

	if err := r.OnSurfaceChanged(300, 300); err != nil {
		t.Fatal(err)
	}
	if d.Live() != live {
		t.Errorf("live objects after resize = %d, want %d", d.Live(), live)
	}
	if l := r.(*gridRenderer).Layout(); l.Rows != 4 || l.Ratio != 1 {
		t.Errorf("Layout() after resize = %+v, want 4 rows at ratio 1", l)
	}
}

func TestSetColumns(t *testing.T) {
	r, d := newRenderer(t, DefaultConfig(TiledGrid))
	cs, ok := r.(ColumnSetter)
	if !ok {
		t.Fatal("grid renderer does not implement ColumnSetter")
	}
	if err := cs.SetColumns(0); err == nil {
		t.Error("SetColumns(0) succeeded")
	}

	// Before the surface is sized the count waits for OnSurfaceChanged.
	if err := cs.SetColumns(1); err != nil {
		t.Fatal(err)
	}
	startRenderer(t, r, 900, 300)
	if l := r.(*gridRenderer).Layout(); l.Columns != 1 || l.Rows != 1 {
		t.Errorf("Layout() = %+v, want 1x1", l)
	}

	if err := cs.SetColumns(6); err != nil {
		t.Fatal(err)
	}
	d.Reset()
	if err := r.OnDrawFrame(); err != nil {
		t.Fatal(err)
	}
	// 6 columns at ratio 3: rows = 6/3 + 1.
	if len(d.Draws) != 18 {
		t.Errorf("draws = %d, want 18", len(d.Draws))
	}

	if _, ok := Renderer(&simpleRenderer{}).(ColumnSetter); ok {
		t.Error("simple renderer should not implement ColumnSetter")
	}
}

func TestTexturedCubeFrame(t *testing.T) {
	cfg := DefaultConfig(TexturedCube)
	cfg.LightPos = [3]float32{0, 0, 1}
	r, d := newRenderer(t, cfg)
	startRenderer(t, r, 640, 480)
	d.Reset()

	if err := r.OnDrawFrame(); err != nil {
		t.Fatalf("OnDrawFrame() error = %v", err)
	}
	if !d.Capabilities[graphics.CullFace] || !d.Capabilities[graphics.DepthTest] {
		t.Errorf("capabilities = %v, want cull face and depth test", d.Capabilities)
	}
	if len(d.Draws) != 1 || d.Draws[0].Count != 6 {
		t.Fatalf("draws = %+v, want one draw of 6", d.Draws)
	}
	if n := len(d.Draws[0].Enabled); n != 4 {
		t.Errorf("enabled attributes = %d, want 4", n)
	}
	if got := d.Vectors[uniformLocation(t, d, "u_LightPos")]; got != [4]float32{0, 0, 1, 0} {
		t.Errorf("light position = %v", got)
	}
	f := r.(*cubeRenderer).Frustum()
	if f.Near != 3 || f.Far != 7 {
		t.Errorf("Frustum() = %+v, want near 3 far 7", f)
	}
}

func TestLifecycleErrors(t *testing.T) {
	for _, v := range []Variant{SimpleQuad, TiledGrid, TexturedCube} {
		t.Run(v.String(), func(t *testing.T) {
			r, _ := newRenderer(t, DefaultConfig(v))
			if r.State() != Uninitialized {
				t.Errorf("State() = %v, want uninitialized", r.State())
			}
			if err := r.OnDrawFrame(); !errors.Is(err, ErrNotCreated) {
				t.Errorf("OnDrawFrame() before create = %v, want ErrNotCreated", err)
			}
			if err := r.OnSurfaceChanged(10, 10); !errors.Is(err, ErrNotCreated) {
				t.Errorf("OnSurfaceChanged() before create = %v, want ErrNotCreated", err)
			}
			r.OnSurfaceDestroyed()
			if r.State() != Uninitialized {
				t.Errorf("State() after early destroy = %v, want uninitialized", r.State())
			}

			if err := r.OnSurfaceCreated(); err != nil {
				t.Fatal(err)
			}
			if err := r.OnSurfaceCreated(); !errors.Is(err, ErrAlreadyCreated) {
				t.Errorf("second OnSurfaceCreated() = %v, want ErrAlreadyCreated", err)
			}
			if err := r.OnDrawFrame(); !errors.Is(err, ErrNotReady) {
				t.Errorf("OnDrawFrame() before resize = %v, want ErrNotReady", err)
			}
			if err := r.OnSurfaceChanged(800, 0); !errors.Is(err, ErrInvalidViewport) {
				t.Errorf("OnSurfaceChanged(800, 0) = %v, want ErrInvalidViewport", err)
			}
			if r.State() != Ready {
				t.Errorf("State() after rejected resize = %v, want ready", r.State())
			}
		})
	}
}

func TestDestroyReleasesEverything(t *testing.T) {
	for _, v := range []Variant{SimpleQuad, TiledGrid, TexturedCube} {
		t.Run(v.String(), func(t *testing.T) {
			r, d := newRenderer(t, DefaultConfig(v))
			startRenderer(t, r, 800, 480)
			if err := r.OnDrawFrame(); err != nil {
				t.Fatal(err)
			}
			if d.Live() == 0 {
				t.Fatal("no live objects after create")
			}

			r.OnSurfaceDestroyed()
			if d.Live() != 0 {
				t.Errorf("live objects after destroy = %d (programs %v, textures %v, buffers %d)",
					d.Live(), d.Programs, d.Textures, len(d.Buffers))
			}
			if r.State() != Destroyed {
				t.Errorf("State() = %v, want destroyed", r.State())
			}
			if err := r.OnDrawFrame(); !errors.Is(err, ErrNotCreated) {
				t.Errorf("OnDrawFrame() after destroy = %v, want ErrNotCreated", err)
			}
			r.OnSurfaceDestroyed()

			// A destroyed surface can be created again.
			startRenderer(t, r, 480, 800)
			d.Reset()
			if err := r.OnDrawFrame(); err != nil {
				t.Fatalf("OnDrawFrame() after re-create error = %v", err)
			}
			if len(d.Draws) == 0 {
				t.Error("no draws after re-create")
			}
		})
	}
}

func TestCreateFailureReleasesEverything(t *testing.T) {
	t.Run("compile", func(t *testing.T) {
		for _, v := range []Variant{SimpleQuad, TiledGrid, TexturedCube} {
			r, d := newRenderer(t, DefaultConfig(v))
			d.CompileFailures[graphics.FragmentStage] = "0:1: syntax error"
			err := r.OnSurfaceCreated()
			var ce *shader.CompileError
			if !errors.As(err, &ce) || ce.Stage != graphics.FragmentStage {
				t.Errorf("%v: OnSurfaceCreated() = %v, want fragment CompileError", v, err)
			}
			if d.Live() != 0 {
				t.Errorf("%v: live objects = %d, want 0", v, d.Live())
			}
			if r.State() != Uninitialized {
				t.Errorf("%v: State() = %v, want uninitialized", v, r.State())
			}
		}
	})

	t.Run("link", func(t *testing.T) {
		r, d := newRenderer(t, DefaultConfig(TiledGrid))
		d.LinkFailure = "attribute limit exceeded"
		var le *shader.LinkError
		if err := r.OnSurfaceCreated(); !errors.As(err, &le) {
			t.Errorf("OnSurfaceCreated() = %v, want LinkError", err)
		}
		if d.Live() != 0 {
			t.Errorf("live objects = %d, want 0", d.Live())
		}
	})

	t.Run("missing texture", func(t *testing.T) {
		cfg := DefaultConfig(TexturedCube)
		cfg.Texture = "missing.png"
		r, d := newRenderer(t, cfg)
		if err := r.OnSurfaceCreated(); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("OnSurfaceCreated() = %v, want fs.ErrNotExist", err)
		}
		if d.Live() != 0 {
			t.Errorf("live objects = %d, want 0", d.Live())
		}
		// The program built before the texture failed was released.
		if d.CallCount("DeleteProgram") != 1 {
			t.Errorf("DeleteProgram calls = %d, want 1", d.CallCount("DeleteProgram"))
		}
	})
}

func TestCustomAssetTree(t *testing.T) {
	base := assets.Default()
	read := func(name string) []byte {
		data, err := fs.ReadFile(base, name)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 3, 5))); err != nil {
		t.Fatal(err)
	}
	fsys := fstest.MapFS{
		"shaders/per_pixel.vert": {Data: read("shaders/per_pixel.vert")},
		"shaders/per_pixel.frag": {Data: read("shaders/per_pixel.frag")},
		"textures/tile.png":      {Data: img.Bytes()},
	}

	cfg := DefaultConfig(TiledGrid)
	cfg.Texture = "tile.png"
	d := graphicstest.New()
	r, err := New(cfg, Deps{Driver: d, Assets: fsys})
	if err != nil {
		t.Fatal(err)
	}
	startRenderer(t, r, 100, 100)
	if len(d.Textures) != 1 {
		t.Fatalf("textures = %v, want one", d.Textures)
	}
	for _, size := range d.Textures {
		if size != [2]int32{3, 5} {
			t.Errorf("texture size = %v, want 3x5", size)
		}
	}
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	r, _ := newRenderer(t, DefaultConfig(TiledGrid))
	startRenderer(t, r, 900, 300)
	r.OnSurfaceDestroyed()

	out := buf.String()
	for _, want := range []string{"surface created", "surface changed", "grid layout", "surface destroyed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output lacks %q:\n%s", want, out)
		}
	}

	SetLogger(nil)
	if Logger() == nil {
		t.Error("Logger() = nil after SetLogger(nil)")
	}
}
