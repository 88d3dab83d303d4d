// Package graphicstest provides a recording graphics.Driver for tests.
package graphicstest

import (
	"fmt"

	"github.com/richinsley/glgrid/graphics"
)

// Call is one recorded driver call.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Name, c.Args)
}

// Draw is a recorded DrawArrays or DrawElements call together with the
// state it was issued under.
type Draw struct {
	Mode    graphics.Primitive
	First   int32
	Count   int32
	Indexed bool
	Program uint32
	// Enabled holds the attribute locations enabled at draw time.
	Enabled []uint32
	// Uniforms is a snapshot of the matrix uniforms at draw time.
	Uniforms map[int32][16]float32
}

// Driver records every call and hands out sequential handles. It never
// touches a GPU.
type Driver struct {
	Calls []Call
	Draws []Draw

	// CompileFailures makes CreateShader fail for a stage with the given log.
	CompileFailures map[graphics.Stage]string
	// LinkFailure makes LinkProgram fail with the given log when non-empty.
	LinkFailure string

	nextHandle uint32
	program    uint32
	enabled    map[uint32]bool
	bound      map[graphics.BufferTarget]uint32

	// Live handles by kind; entries are removed on delete.
	Shaders  map[uint32]graphics.Stage
	Programs map[uint32]bool
	Textures map[uint32][2]int32
	Buffers  map[uint32][]byte

	// AttribLocations records BindAttribLocation per program.
	AttribLocations map[uint32]map[string]uint32
	// UniformNames maps handed-out uniform locations back to their names.
	UniformNames map[int32]string
	Matrices     map[int32][16]float32
	Vectors      map[int32][4]float32
	Ints         map[int32]int32

	ClearColorValue [4]float32
	Capabilities    map[graphics.Capability]bool
	ViewportValue   [4]int32
	TextureFilters  map[uint32][2]graphics.Filter

	uniformLocations map[string]int32
}

// New returns an empty recording driver.
func New() *Driver {
	return &Driver{
		CompileFailures:  make(map[graphics.Stage]string),
		enabled:          make(map[uint32]bool),
		bound:            make(map[graphics.BufferTarget]uint32),
		Shaders:          make(map[uint32]graphics.Stage),
		Programs:         make(map[uint32]bool),
		Textures:         make(map[uint32][2]int32),
		Buffers:          make(map[uint32][]byte),
		AttribLocations:  make(map[uint32]map[string]uint32),
		UniformNames:     make(map[int32]string),
		Matrices:         make(map[int32][16]float32),
		Vectors:          make(map[int32][4]float32),
		Ints:             make(map[int32]int32),
		Capabilities:     make(map[graphics.Capability]bool),
		TextureFilters:   make(map[uint32][2]graphics.Filter),
		uniformLocations: make(map[string]int32),
	}
}

func (d *Driver) record(name string, args ...any) {
	d.Calls = append(d.Calls, Call{Name: name, Args: args})
}

func (d *Driver) handle() uint32 {
	d.nextHandle++
	return d.nextHandle
}

// CallCount returns how many times the named call was recorded.
func (d *Driver) CallCount(name string) int {
	n := 0
	for _, c := range d.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Live returns the number of live GPU objects of every kind.
func (d *Driver) Live() int {
	return len(d.Shaders) + len(d.Programs) + len(d.Textures) + len(d.Buffers)
}

// MatrixNamed returns the last value uploaded to the uniform with the given name.
func (d *Driver) MatrixNamed(name string) ([16]float32, bool) {
	for loc, n := range d.UniformNames {
		if n == name {
			m, ok := d.Matrices[loc]
			return m, ok
		}
	}
	return [16]float32{}, false
}

// Reset drops recorded calls and draws but keeps object state.
func (d *Driver) Reset() {
	d.Calls = nil
	d.Draws = nil
}

func (d *Driver) ClearColor(r, g, b, a float32) {
	d.record("ClearColor", r, g, b, a)
	d.ClearColorValue = [4]float32{r, g, b, a}
}

func (d *Driver) Clear() { d.record("Clear") }

func (d *Driver) Enable(c graphics.Capability) {
	d.record("Enable", c)
	d.Capabilities[c] = true
}

func (d *Driver) Viewport(x, y, width, height int32) {
	d.record("Viewport", x, y, width, height)
	d.ViewportValue = [4]int32{x, y, width, height}
}

func (d *Driver) CreateShader(stage graphics.Stage, source string) (uint32, bool, string) {
	d.record("CreateShader", stage)
	h := d.handle()
	d.Shaders[h] = stage
	if log, fail := d.CompileFailures[stage]; fail {
		return h, false, log
	}
	return h, true, ""
}

func (d *Driver) DeleteShader(handle uint32) {
	d.record("DeleteShader", handle)
	delete(d.Shaders, handle)
}

func (d *Driver) CreateProgram() uint32 {
	d.record("CreateProgram")
	h := d.handle()
	d.Programs[h] = true
	d.AttribLocations[h] = make(map[string]uint32)
	return h
}

func (d *Driver) AttachShader(program, shader uint32) {
	d.record("AttachShader", program, shader)
}

func (d *Driver) BindAttribLocation(program, index uint32, name string) {
	d.record("BindAttribLocation", program, index, name)
	if m, ok := d.AttribLocations[program]; ok {
		m[name] = index
	}
}

func (d *Driver) LinkProgram(program uint32) (bool, string) {
	d.record("LinkProgram", program)
	if d.LinkFailure != "" {
		return false, d.LinkFailure
	}
	return true, ""
}

func (d *Driver) UseProgram(program uint32) {
	d.record("UseProgram", program)
	d.program = program
}

func (d *Driver) DeleteProgram(program uint32) {
	d.record("DeleteProgram", program)
	delete(d.Programs, program)
	delete(d.AttribLocations, program)
}

// GetUniformLocation hands out one location per (program, name) pair.
func (d *Driver) GetUniformLocation(program uint32, name string) int32 {
	d.record("GetUniformLocation", program, name)
	key := fmt.Sprintf("%d/%s", program, name)
	if loc, ok := d.uniformLocations[key]; ok {
		return loc
	}
	loc := int32(len(d.uniformLocations))
	d.uniformLocations[key] = loc
	d.UniformNames[loc] = name
	return loc
}

func (d *Driver) UniformMatrix4fv(location int32, m [16]float32) {
	d.record("UniformMatrix4fv", location, m)
	d.Matrices[location] = m
}

func (d *Driver) Uniform4fv(location int32, v [4]float32) {
	d.record("Uniform4fv", location, v)
	d.Vectors[location] = v
}

func (d *Driver) Uniform3fv(location int32, v [3]float32) {
	d.record("Uniform3fv", location, v)
	d.Vectors[location] = [4]float32{v[0], v[1], v[2], 0}
}

func (d *Driver) Uniform1i(location int32, v int32) {
	d.record("Uniform1i", location, v)
	d.Ints[location] = v
}

func (d *Driver) CreateTexture(width, height int32, pix []byte, min, mag graphics.Filter) uint32 {
	d.record("CreateTexture", width, height, min, mag)
	h := d.handle()
	d.Textures[h] = [2]int32{width, height}
	d.TextureFilters[h] = [2]graphics.Filter{min, mag}
	return h
}

func (d *Driver) BindTexture(unit uint32, texture uint32) {
	d.record("BindTexture", unit, texture)
}

func (d *Driver) DeleteTexture(texture uint32) {
	d.record("DeleteTexture", texture)
	delete(d.Textures, texture)
}

func (d *Driver) CreateBuffer(target graphics.BufferTarget, data []byte) uint32 {
	d.record("CreateBuffer", target, len(data))
	h := d.handle()
	d.Buffers[h] = append([]byte(nil), data...)
	return h
}

func (d *Driver) BindBuffer(target graphics.BufferTarget, buffer uint32) {
	d.record("BindBuffer", target, buffer)
	d.bound[target] = buffer
}

func (d *Driver) DeleteBuffer(buffer uint32) {
	d.record("DeleteBuffer", buffer)
	delete(d.Buffers, buffer)
}

func (d *Driver) EnableVertexAttribArray(index uint32) {
	d.record("EnableVertexAttribArray", index)
	d.enabled[index] = true
}

func (d *Driver) DisableVertexAttribArray(index uint32) {
	d.record("DisableVertexAttribArray", index)
	delete(d.enabled, index)
}

func (d *Driver) VertexAttribPointer(index uint32, size, stride int32, offset int) {
	d.record("VertexAttribPointer", index, size, stride, offset)
}

func (d *Driver) DrawArrays(mode graphics.Primitive, first, count int32) {
	d.record("DrawArrays", mode, first, count)
	d.Draws = append(d.Draws, d.snapshot(Draw{Mode: mode, First: first, Count: count}))
}

func (d *Driver) DrawElements(mode graphics.Primitive, count int32) {
	d.record("DrawElements", mode, count)
	d.Draws = append(d.Draws, d.snapshot(Draw{Mode: mode, Count: count, Indexed: true}))
}

func (d *Driver) ReadPixels(width, height int32) []byte {
	d.record("ReadPixels", width, height)
	return make([]byte, int(width)*int(height)*4)
}

// BoundBuffer reports the buffer currently bound to target.
func (d *Driver) BoundBuffer(target graphics.BufferTarget) uint32 {
	return d.bound[target]
}

func (d *Driver) snapshot(draw Draw) Draw {
	draw.Program = d.program
	for idx := range d.enabled {
		draw.Enabled = append(draw.Enabled, idx)
	}
	draw.Uniforms = make(map[int32][16]float32, len(d.Matrices))
	for loc, m := range d.Matrices {
		draw.Uniforms[loc] = m
	}
	return draw
}
