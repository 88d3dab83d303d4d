package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Variant selects which renderer New builds.
type Variant int

const (
	SimpleQuad Variant = iota
	TiledGrid
	TexturedCube
)

var variantNames = map[Variant]string{
	SimpleQuad:   "simple",
	TiledGrid:    "grid",
	TexturedCube: "cube",
}

func (v Variant) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// ParseVariant accepts the names printed by Variant.String.
func ParseVariant(s string) (Variant, error) {
	for v, name := range variantNames {
		if strings.EqualFold(s, name) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown renderer variant %q (want simple, grid or cube)", s)
}

// UnmarshalYAML implements yaml.Unmarshaler for Variant.
func (v *Variant) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseVariant(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler for Variant.
func (v Variant) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

// DefaultColumns is the grid column count when none is configured.
const DefaultColumns = 3

// Camera is the fixed look-at configuration of the view matrix.
type Camera struct {
	Eye  [3]float32 `yaml:"eye"`
	Look [3]float32 `yaml:"look"`
	Up   [3]float32 `yaml:"up"`
}

// Projection holds the constant frustum planes; left and right follow the
// viewport aspect ratio.
type Projection struct {
	Bottom float32 `yaml:"bottom"`
	Top    float32 `yaml:"top"`
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"`
}

// UniformNames are the shader uniforms the renderers write.
type UniformNames struct {
	MVP      string `yaml:"mvp"`
	MV       string `yaml:"mv"`
	Texture  string `yaml:"texture"`
	Color    string `yaml:"color"`
	LightPos string `yaml:"light_pos"`
}

// Config collects every constant a renderer uses.
type Config struct {
	Variant    Variant      `yaml:"variant"`
	ClearColor [4]float32   `yaml:"clear_color"`
	CullFace   bool         `yaml:"cull_face"`
	Camera     Camera       `yaml:"camera"`
	Projection Projection   `yaml:"projection"`
	Uniforms   UniformNames `yaml:"uniforms"`
	// Texture is the image under textures/ in the asset tree.
	Texture string `yaml:"texture"`
	// Columns and Offset only apply to the grid variant.
	Columns  int        `yaml:"columns"`
	Offset   int        `yaml:"offset"`
	LightPos [3]float32 `yaml:"light_pos"`
}

// DefaultConfig returns the stock configuration of a variant.
func DefaultConfig(v Variant) Config {
	cfg := Config{
		Variant:    v,
		ClearColor: [4]float32{1, 1, 1, 1},
		Camera: Camera{
			Eye:  [3]float32{0, 0, 0},
			Look: [3]float32{0, 0, -5},
			Up:   [3]float32{0, 1, 0},
		},
		Projection: Projection{Bottom: -1, Top: 1, Near: 0.999999, Far: 10},
		Uniforms: UniformNames{
			MVP:      "u_MVPMatrix",
			MV:       "u_MVMatrix",
			Texture:  "u_Texture",
			Color:    "u_Color",
			LightPos: "u_LightPos",
		},
		Columns: DefaultColumns,
	}
	switch v {
	case TiledGrid:
		cfg.Camera.Eye[2] = DefaultColumns - 1
		cfg.Texture = "pirate.png"
	case TexturedCube:
		cfg.CullFace = true
		cfg.Camera.Eye[2] = -0.5
		cfg.Projection.Near = 3
		cfg.Projection.Far = 7
		cfg.Texture = "launcher.png"
	}
	return cfg
}

// Validate reports configuration values no renderer can work with.
func (c Config) Validate() error {
	var errs []error
	if _, ok := variantNames[c.Variant]; !ok {
		errs = append(errs, fmt.Errorf("unknown variant %d", int(c.Variant)))
	}
	if c.Projection.Near <= 0 {
		errs = append(errs, fmt.Errorf("projection near %v must be positive", c.Projection.Near))
	}
	if c.Projection.Far <= c.Projection.Near {
		errs = append(errs, fmt.Errorf("projection far %v must exceed near %v", c.Projection.Far, c.Projection.Near))
	}
	if c.Projection.Top == c.Projection.Bottom {
		errs = append(errs, fmt.Errorf("projection top and bottom are both %v", c.Projection.Top))
	}
	if c.Camera.Eye == c.Camera.Look {
		errs = append(errs, fmt.Errorf("camera eye and look point coincide"))
	}
	if c.Uniforms.MVP == "" || c.Uniforms.MV == "" {
		errs = append(errs, fmt.Errorf("matrix uniform names must be set"))
	}
	switch c.Variant {
	case TiledGrid:
		if c.Columns < 1 {
			errs = append(errs, fmt.Errorf("columns %d must be at least 1", c.Columns))
		}
		if c.Offset < 0 {
			errs = append(errs, fmt.Errorf("offset %d must not be negative", c.Offset))
		}
		fallthrough
	case TexturedCube:
		if c.Texture == "" {
			errs = append(errs, fmt.Errorf("%s renderer needs a texture", c.Variant))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML configuration. Fields missing from the file keep
// the defaults of the variant the file names.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration data on top of the defaults of the
// variant it names (SimpleQuad when absent). Unknown keys are an error.
func ParseConfig(data []byte) (Config, error) {
	var head struct {
		Variant Variant `yaml:"variant"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := DefaultConfig(head.Variant)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
