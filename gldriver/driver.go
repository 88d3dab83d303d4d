// Package gldriver implements graphics.Driver on top of go-gl.
package gldriver

import (
	"fmt"
	"strings"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/glgrid/graphics"
)

var glInitOnce sync.Once

// Driver issues real OpenGL calls. The context it was created under must be
// current on the calling thread.
type Driver struct {
	vao uint32
}

// New loads the OpenGL bindings (once per process) and binds the vertex array
// object every attribute description is recorded into.
func New() (*Driver, error) {
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	d := &Driver{}
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	return d, nil
}

// Version returns the GL_VERSION string of the current context.
func (d *Driver) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// Destroy releases the vertex array object.
func (d *Driver) Destroy() {
	gl.BindVertexArray(0)
	gl.DeleteVertexArrays(1, &d.vao)
}

func (d *Driver) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (d *Driver) Clear() { gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT) }

func (d *Driver) Enable(c graphics.Capability) {
	switch c {
	case graphics.DepthTest:
		gl.Enable(gl.DEPTH_TEST)
	case graphics.CullFace:
		gl.Enable(gl.CULL_FACE)
	}
}

func (d *Driver) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func (d *Driver) CreateShader(stage graphics.Stage, source string) (uint32, bool, string) {
	shader := gl.CreateShader(shaderType(stage))
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		return shader, false, strings.TrimRight(logText, "\x00")
	}
	return shader, true, ""
}

func (d *Driver) DeleteShader(handle uint32) { gl.DeleteShader(handle) }

func (d *Driver) CreateProgram() uint32 { return gl.CreateProgram() }

func (d *Driver) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (d *Driver) BindAttribLocation(program, index uint32, name string) {
	gl.BindAttribLocation(program, index, gl.Str(name+"\x00"))
}

func (d *Driver) LinkProgram(program uint32) (bool, string) {
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return false, strings.TrimRight(log, "\x00")
	}
	return true, ""
}

func (d *Driver) UseProgram(program uint32) { gl.UseProgram(program) }

func (d *Driver) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (d *Driver) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Driver) UniformMatrix4fv(location int32, m [16]float32) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (d *Driver) Uniform4fv(location int32, v [4]float32) { gl.Uniform4fv(location, 1, &v[0]) }

func (d *Driver) Uniform3fv(location int32, v [3]float32) { gl.Uniform3fv(location, 1, &v[0]) }

func (d *Driver) Uniform1i(location int32, v int32) { gl.Uniform1i(location, v) }

func (d *Driver) CreateTexture(width, height int32, pix []byte, min, mag graphics.Filter) uint32 {
	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterMode(min))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterMode(mag))

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return textureID
}

func (d *Driver) BindTexture(unit uint32, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func (d *Driver) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }

func (d *Driver) CreateBuffer(target graphics.BufferTarget, data []byte) uint32 {
	var buffer uint32
	gl.GenBuffers(1, &buffer)
	t := bufferTarget(target)
	gl.BindBuffer(t, buffer)
	gl.BufferData(t, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	if target == graphics.ArrayBuffer {
		gl.BindBuffer(t, 0)
	}
	return buffer
}

func (d *Driver) BindBuffer(target graphics.BufferTarget, buffer uint32) {
	gl.BindBuffer(bufferTarget(target), buffer)
}

func (d *Driver) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }

func (d *Driver) EnableVertexAttribArray(index uint32) { gl.EnableVertexAttribArray(index) }

func (d *Driver) DisableVertexAttribArray(index uint32) { gl.DisableVertexAttribArray(index) }

func (d *Driver) VertexAttribPointer(index uint32, size, stride int32, offset int) {
	gl.VertexAttribPointer(index, size, gl.FLOAT, false, stride, gl.PtrOffset(offset))
}

func (d *Driver) DrawArrays(mode graphics.Primitive, first, count int32) {
	gl.DrawArrays(primitiveMode(mode), first, count)
}

func (d *Driver) DrawElements(mode graphics.Primitive, count int32) {
	gl.DrawElements(primitiveMode(mode), count, gl.UNSIGNED_SHORT, gl.PtrOffset(0))
}

func (d *Driver) ReadPixels(width, height int32) []byte {
	pix := make([]byte, int(width)*int(height)*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	return pix
}

func shaderType(stage graphics.Stage) uint32 {
	if stage == graphics.FragmentStage {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

func filterMode(f graphics.Filter) int32 {
	if f == graphics.Linear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

func bufferTarget(t graphics.BufferTarget) uint32 {
	if t == graphics.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func primitiveMode(p graphics.Primitive) uint32 {
	if p == graphics.TriangleFan {
		return gl.TRIANGLE_FAN
	}
	return gl.TRIANGLES
}
