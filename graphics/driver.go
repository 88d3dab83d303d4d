package graphics

import "fmt"

// Stage identifies a shader pipeline stage.
type Stage uint32

const (
	VertexStage Stage = iota + 1
	FragmentStage
)

func (s Stage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return fmt.Sprintf("stage(%d)", uint32(s))
	}
}

// Primitive is the topology used by a draw call.
type Primitive uint32

const (
	Triangles Primitive = iota + 1
	TriangleFan
)

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case TriangleFan:
		return "triangle-fan"
	default:
		return fmt.Sprintf("primitive(%d)", uint32(p))
	}
}

// Capability is a server-side capability toggled with Enable.
type Capability uint32

const (
	DepthTest Capability = iota + 1
	CullFace
)

// Filter is a texture sampling filter.
type Filter uint32

const (
	Nearest Filter = iota + 1
	Linear
)

// BufferTarget selects the binding point of a GPU buffer.
type BufferTarget uint32

const (
	ArrayBuffer BufferTarget = iota + 1
	ElementArrayBuffer
)

// Driver is the subset of the OpenGL (ES) API used by the renderers. Every
// method must be called on the thread that owns the current context.
type Driver interface {
	ClearColor(r, g, b, a float32)
	Clear()
	Enable(c Capability)
	Viewport(x, y, width, height int32)

	// CreateShader compiles source for stage. ok is false when the compile
	// failed; log then carries the driver's diagnostics.
	CreateShader(stage Stage, source string) (handle uint32, ok bool, log string)
	DeleteShader(handle uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	BindAttribLocation(program, index uint32, name string)
	// LinkProgram links program. ok is false when linking failed; log then
	// carries the driver's diagnostics.
	LinkProgram(program uint32) (ok bool, log string)
	UseProgram(program uint32)
	DeleteProgram(program uint32)
	GetUniformLocation(program uint32, name string) int32

	UniformMatrix4fv(location int32, m [16]float32)
	Uniform4fv(location int32, v [4]float32)
	Uniform3fv(location int32, v [3]float32)
	Uniform1i(location int32, v int32)

	// CreateTexture uploads an RGBA8 image as a new 2D texture with the given
	// filters and no mipmaps.
	CreateTexture(width, height int32, pix []byte, min, mag Filter) uint32
	BindTexture(unit uint32, texture uint32)
	DeleteTexture(texture uint32)

	// CreateBuffer uploads data into a new static buffer object.
	CreateBuffer(target BufferTarget, data []byte) uint32
	BindBuffer(target BufferTarget, buffer uint32)
	DeleteBuffer(buffer uint32)

	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	// VertexAttribPointer describes float attribute data in the currently
	// bound array buffer.
	VertexAttribPointer(index uint32, size, stride int32, offset int)

	DrawArrays(mode Primitive, first, count int32)
	// DrawElements draws count unsigned 16-bit indices from the currently
	// bound element array buffer.
	DrawElements(mode Primitive, count int32)

	// ReadPixels returns the RGBA8 contents of the current framebuffer,
	// bottom row first.
	ReadPixels(width, height int32) []byte
}
