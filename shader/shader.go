// Package shader compiles GLSL source pairs into linked program objects.
package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/richinsley/glgrid/graphics"
)

// ErrEmptySource is returned when a stage is given no source text.
var ErrEmptySource = errors.New("empty shader source")

// CompileError carries the driver diagnostics of a failed compile.
type CompileError struct {
	Stage graphics.Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}

// LinkError carries the driver diagnostics of a failed link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link program: %s", e.Log)
}

// Translation is the output of a Translator: driver-ready code and the
// mapping from names used in the source to names visible to the driver.
type Translation struct {
	Code  string
	Names map[string]string
}

// Translator rewrites shader source into the dialect the current context
// accepts.
type Translator interface {
	Translate(stage graphics.Stage, source string) (*Translation, error)
}

// Program is a linked program object.
type Program struct {
	Handle     uint32
	attributes map[string]uint32
	names      map[string]string
	uniforms   map[string]int32
}

// Attribute returns the location name was bound to at link time.
func (p *Program) Attribute(name string) (uint32, bool) {
	loc, ok := p.attributes[name]
	return loc, ok
}

// Attributes returns the name → location table fixed at link time.
func (p *Program) Attributes() map[string]uint32 {
	out := make(map[string]uint32, len(p.attributes))
	for k, v := range p.attributes {
		out[k] = v
	}
	return out
}

// Uniform returns the location of a uniform by its source name, or -1.
func (p *Program) Uniform(d graphics.Driver, name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := d.GetUniformLocation(p.Handle, p.mapped(name))
	p.uniforms[name] = loc
	return loc
}

func (p *Program) mapped(name string) string {
	if m, ok := p.names[name]; ok && m != "" {
		return m
	}
	return name
}

// Builder compiles and links programs through a driver. It keeps no cache:
// every Build produces a new program.
type Builder struct {
	driver     graphics.Driver
	translator Translator
	names      map[uint32]map[string]string
}

// NewBuilder returns a builder. tr may be nil when sources are already in
// the driver's dialect.
func NewBuilder(d graphics.Driver, tr Translator) *Builder {
	return &Builder{
		driver:     d,
		translator: tr,
		names:      make(map[uint32]map[string]string),
	}
}

// Compile compiles a single stage.
func (b *Builder) Compile(stage graphics.Stage, source string) (uint32, error) {
	if source == "" {
		return 0, fmt.Errorf("%s shader: %w", stage, ErrEmptySource)
	}

	var names map[string]string
	if b.translator != nil {
		t, err := b.translator.Translate(stage, source)
		if err != nil {
			return 0, fmt.Errorf("%s shader translation failed: %w", stage, err)
		}
		source = t.Code
		names = t.Names
	}

	handle, ok, log := b.driver.CreateShader(stage, source)
	if !ok {
		b.driver.DeleteShader(handle)
		return 0, &CompileError{Stage: stage, Log: log}
	}
	if names != nil {
		b.names[handle] = names
	}
	return handle, nil
}

// LinkProgram links a vertex and fragment stage, binding attributes[i] to
// location i before linking. Both stages are released whatever the outcome.
func (b *Builder) LinkProgram(vertex, fragment uint32, attributes []string) (*Program, error) {
	p := &Program{
		attributes: make(map[string]uint32, len(attributes)),
		names:      make(map[string]string),
		uniforms:   make(map[string]int32),
	}
	for _, h := range []uint32{vertex, fragment} {
		for k, v := range b.names[h] {
			p.names[k] = v
		}
		delete(b.names, h)
	}

	p.Handle = b.driver.CreateProgram()
	b.driver.AttachShader(p.Handle, vertex)
	b.driver.AttachShader(p.Handle, fragment)
	for i, name := range attributes {
		b.driver.BindAttribLocation(p.Handle, uint32(i), p.mapped(name))
		p.attributes[name] = uint32(i)
	}

	ok, log := b.driver.LinkProgram(p.Handle)
	b.driver.DeleteShader(vertex)
	b.driver.DeleteShader(fragment)
	if !ok {
		b.driver.DeleteProgram(p.Handle)
		return nil, &LinkError{Log: log}
	}
	return p, nil
}

// Build compiles both stages and links them.
func (b *Builder) Build(vertexSource, fragmentSource string, attributes []string) (*Program, error) {
	vs, err := b.Compile(graphics.VertexStage, vertexSource)
	if err != nil {
		return nil, err
	}
	frag, err := b.Compile(graphics.FragmentStage, fragmentSource)
	if err != nil {
		b.driver.DeleteShader(vs)
		delete(b.names, vs)
		return nil, err
	}
	return b.LinkProgram(vs, frag, attributes)
}

// Release deletes the program object.
func (p *Program) Release(d graphics.Driver) {
	d.DeleteProgram(p.Handle)
}

// LoadSources reads shaders/<name>.vert and shaders/<name>.frag from fsys.
func LoadSources(fsys fs.FS, name string) (vertex, fragment string, err error) {
	vs, err := fs.ReadFile(fsys, path.Join("shaders", name+".vert"))
	if err != nil {
		return "", "", fmt.Errorf("failed to read vertex shader %q: %w", name, err)
	}
	frag, err := fs.ReadFile(fsys, path.Join("shaders", name+".frag"))
	if err != nil {
		return "", "", fmt.Errorf("failed to read fragment shader %q: %w", name, err)
	}
	return string(vs), string(frag), nil
}
