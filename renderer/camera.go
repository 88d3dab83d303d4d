package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidViewport is returned for a surface with a non-positive dimension.
var ErrInvalidViewport = errors.New("invalid viewport")

// Frustum is a perspective projection volume.
type Frustum struct {
	Left, Right, Bottom, Top, Near, Far float32
}

// FrustumFor widens p to the aspect ratio of a width x height viewport.
func FrustumFor(width, height int, p Projection) (Frustum, error) {
	if width <= 0 || height <= 0 {
		return Frustum{}, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	ratio := float32(width) / float32(height)
	return Frustum{
		Left:   -ratio,
		Right:  ratio,
		Bottom: p.Bottom,
		Top:    p.Top,
		Near:   p.Near,
		Far:    p.Far,
	}, nil
}

// Ratio returns the aspect ratio the frustum was built for.
func (f Frustum) Ratio() float32 {
	return f.Right
}

// Matrix returns the projection matrix.
func (f Frustum) Matrix() mgl32.Mat4 {
	return mgl32.Frustum(f.Left, f.Right, f.Bottom, f.Top, f.Near, f.Far)
}

// ViewMatrix returns the look-at matrix of the camera.
func (c Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(mgl32.Vec3(c.Eye), mgl32.Vec3(c.Look), mgl32.Vec3(c.Up))
}

// ModelView composes view × model.
func ModelView(view, model mgl32.Mat4) mgl32.Mat4 {
	return view.Mul4(model)
}

// ModelViewProjection composes projection × modelView.
func ModelViewProjection(projection, modelView mgl32.Mat4) mgl32.Mat4 {
	return projection.Mul4(modelView)
}

// Layout is the grid geometry derived from the viewport.
type Layout struct {
	Columns  int
	Rows     int
	CellSize int
	Offset   int
	Ratio    float32
}

// ComputeLayout derives rows and cell size from the viewport and the column
// count. Rows always overshoot the viewport by one.
func ComputeLayout(columns, offset, width, height int) (Layout, error) {
	if width <= 0 || height <= 0 {
		return Layout{}, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	if columns < 1 {
		return Layout{}, fmt.Errorf("columns %d must be at least 1", columns)
	}
	ratio := float32(width) / float32(height)
	return Layout{
		Columns:  columns,
		Rows:     int(float32(columns)/ratio) + 1,
		CellSize: width/columns - 2*offset,
		Offset:   offset,
		Ratio:    ratio,
	}, nil
}

// CellTranslation returns the model translation of a grid cell. Columns are
// spread over [-C*ratio, C*ratio]; every row sits at y = 0.
func (l Layout) CellTranslation(row, col int) mgl32.Vec3 {
	x := float32(-l.Columns+col*2+1) * l.Ratio
	return mgl32.Vec3{x, 0, 0}
}

// Cells returns the number of cells drawn per frame.
func (l Layout) Cells() int {
	return l.Rows * l.Columns
}
