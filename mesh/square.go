package mesh

import "github.com/richinsley/glgrid/graphics"

// SquareColor is the fill color of Square.
var SquareColor = [4]float32{0.63671875, 0.76953125, 0.22265625, 1.0}

// squareCoords are topLeft, bottomLeft, bottomRight, topRight.
var squareCoords = []float32{
	-0.5, 0.5, -1.0,
	-0.5, -0.5, -1.0,
	0.5, -0.5, -1.0,
	0.5, 0.5, -1.0,
}

// Square is a flat-colored quad drawn through its index buffer.
type Square struct {
	Color  [4]float32
	buffer *Buffer
}

// SquareMesh returns the square geometry with the quad draw order under the
// given position attribute name.
func SquareMesh(positionName string) *Mesh {
	m, err := New(graphics.Triangles, []Attribute{
		{Name: positionName, Size: PositionSize, Data: squareCoords},
	}, QuadIndices)
	if err != nil {
		panic(err)
	}
	return m
}

// NewSquare uploads the square geometry.
func NewSquare(d graphics.Driver, positionName string) *Square {
	return &Square{
		Color:  SquareColor,
		buffer: Upload(d, SquareMesh(positionName)),
	}
}

// Draw sets the color uniform and draws the square with its position
// attribute at positionLocation.
func (s *Square) Draw(d graphics.Driver, colorUniform int32, positionLocation uint32) {
	d.Uniform4fv(colorUniform, s.Color)
	a := s.buffer.mesh.attributes[0]
	s.buffer.Draw(d, Bindings{a.Name: positionLocation})
}

// Release deletes the square's buffers.
func (s *Square) Release(d graphics.Driver) {
	s.buffer.Release(d)
}
