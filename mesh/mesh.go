// Package mesh packs per-vertex attribute arrays into GPU buffers and draws
// them.
package mesh

import (
	"encoding/binary"
	"fmt"

	"github.com/richinsley/glgrid/graphics"
	"golang.org/x/mobile/exp/f32"
)

// Components per vertex of the standard attributes.
const (
	PositionSize = 3
	TexCoordSize = 2
	ColorSize    = 4
	NormalSize   = 3

	bytesPerFloat = 4
	bytesPerIndex = 2
)

// QuadIndices splits the quad {topLeft, bottomLeft, bottomRight, topRight}
// into two counter-clockwise triangles.
var QuadIndices = []uint16{0, 1, 2, 0, 2, 3}

// Attribute is one named per-vertex float array.
type Attribute struct {
	Name string
	Size int32
	Data []float32
}

// Mesh is an immutable set of attribute arrays with an optional draw order.
type Mesh struct {
	mode        graphics.Primitive
	attributes  []Attribute
	indices     []uint16
	vertexCount int
}

// New validates the arrays and returns a mesh. Every attribute must describe
// the same number of vertices and every index must address one of them.
func New(mode graphics.Primitive, attributes []Attribute, indices []uint16) (*Mesh, error) {
	if len(attributes) == 0 {
		return nil, fmt.Errorf("mesh has no attributes")
	}
	vertexCount := -1
	for _, a := range attributes {
		if a.Size <= 0 {
			return nil, fmt.Errorf("attribute %q: invalid component count %d", a.Name, a.Size)
		}
		if len(a.Data)%int(a.Size) != 0 {
			return nil, fmt.Errorf("attribute %q: %d floats is not a multiple of %d", a.Name, len(a.Data), a.Size)
		}
		n := len(a.Data) / int(a.Size)
		if vertexCount >= 0 && n != vertexCount {
			return nil, fmt.Errorf("attribute %q: %d vertices, want %d", a.Name, n, vertexCount)
		}
		vertexCount = n
	}
	for i, idx := range indices {
		if int(idx) >= vertexCount {
			return nil, fmt.Errorf("index %d (position %d) out of range for %d vertices", idx, i, vertexCount)
		}
	}

	m := &Mesh{
		mode:        mode,
		attributes:  make([]Attribute, len(attributes)),
		vertexCount: vertexCount,
	}
	for i, a := range attributes {
		m.attributes[i] = Attribute{Name: a.Name, Size: a.Size, Data: append([]float32(nil), a.Data...)}
	}
	if len(indices) > 0 {
		m.indices = append([]uint16(nil), indices...)
	}
	return m, nil
}

// Mode returns the primitive topology.
func (m *Mesh) Mode() graphics.Primitive { return m.mode }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return m.vertexCount }

// Indices returns a copy of the draw order, or nil.
func (m *Mesh) Indices() []uint16 { return append([]uint16(nil), m.indices...) }

// Attribute returns the named attribute array.
func (m *Mesh) Attribute(name string) (Attribute, bool) {
	for _, a := range m.attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// DrawCount is the number of vertices a draw call covers.
func (m *Mesh) DrawCount() int {
	if m.indices != nil {
		return len(m.indices)
	}
	return m.vertexCount
}

// nativeOrder is the concrete byte order of the host. f32.Bytes only
// accepts binary.LittleEndian or binary.BigEndian.
var nativeOrder = func() binary.ByteOrder {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}()

// PackFloats encodes values in native byte order.
func PackFloats(values []float32) []byte {
	return f32.Bytes(nativeOrder, values...)
}

// PackIndices encodes values in native byte order.
func PackIndices(values []uint16) []byte {
	b := make([]byte, len(values)*bytesPerIndex)
	for i, v := range values {
		binary.NativeEndian.PutUint16(b[i*bytesPerIndex:], v)
	}
	return b
}

// Bindings maps attribute names to the locations a program bound them to.
type Bindings map[string]uint32

// Buffer is a mesh uploaded to the GPU.
type Buffer struct {
	mesh    *Mesh
	buffers []uint32
	indices uint32
}

// Upload packs every array of m and uploads it once.
func Upload(d graphics.Driver, m *Mesh) *Buffer {
	b := &Buffer{mesh: m, buffers: make([]uint32, len(m.attributes))}
	for i, a := range m.attributes {
		b.buffers[i] = d.CreateBuffer(graphics.ArrayBuffer, PackFloats(a.Data))
	}
	if m.indices != nil {
		b.indices = d.CreateBuffer(graphics.ElementArrayBuffer, PackIndices(m.indices))
	}
	return b
}

// Mesh returns the source mesh.
func (b *Buffer) Mesh() *Mesh { return b.mesh }

// Draw enables and describes every attribute present in bindings, issues one
// draw call and disables the attributes again. Attributes without a binding
// are skipped.
func (b *Buffer) Draw(d graphics.Driver, bindings Bindings) {
	enabled := make([]uint32, 0, len(b.mesh.attributes))
	for i, a := range b.mesh.attributes {
		loc, ok := bindings[a.Name]
		if !ok {
			continue
		}
		d.BindBuffer(graphics.ArrayBuffer, b.buffers[i])
		d.EnableVertexAttribArray(loc)
		d.VertexAttribPointer(loc, a.Size, a.Size*bytesPerFloat, 0)
		enabled = append(enabled, loc)
	}
	d.BindBuffer(graphics.ArrayBuffer, 0)

	if b.mesh.indices != nil {
		d.BindBuffer(graphics.ElementArrayBuffer, b.indices)
		d.DrawElements(b.mesh.mode, int32(len(b.mesh.indices)))
		d.BindBuffer(graphics.ElementArrayBuffer, 0)
	} else {
		d.DrawArrays(b.mesh.mode, 0, int32(b.mesh.vertexCount))
	}

	for _, loc := range enabled {
		d.DisableVertexAttribArray(loc)
	}
}

// Release deletes the GPU buffers.
func (b *Buffer) Release(d graphics.Driver) {
	for _, h := range b.buffers {
		d.DeleteBuffer(h)
	}
	b.buffers = nil
	if b.indices != 0 {
		d.DeleteBuffer(b.indices)
		b.indices = 0
	}
}

// Triangles expands a draw of count vertices (or of indices when non-nil)
// in the given mode into explicit vertex triples.
func Triangles(mode graphics.Primitive, count int, indices []uint16) [][3]uint16 {
	order := indices
	if order == nil {
		order = make([]uint16, count)
		for i := range order {
			order[i] = uint16(i)
		}
	}

	var tris [][3]uint16
	switch mode {
	case graphics.TriangleFan:
		for i := 2; i < len(order); i++ {
			tris = append(tris, [3]uint16{order[0], order[i-1], order[i]})
		}
	default:
		for i := 0; i+2 < len(order); i += 3 {
			tris = append(tris, [3]uint16{order[i], order[i+1], order[i+2]})
		}
	}
	return tris
}
