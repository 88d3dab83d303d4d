package renderer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"simple", SimpleQuad, false},
		{"GRID", TiledGrid, false},
		{"cube", TexturedCube, false},
		{"sphere", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVariant(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseVariant(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultConfigs(t *testing.T) {
	for _, v := range []Variant{SimpleQuad, TiledGrid, TexturedCube} {
		cfg := DefaultConfig(v)
		if err := cfg.Validate(); err != nil {
			t.Errorf("DefaultConfig(%v).Validate() = %v", v, err)
		}
	}

	grid := DefaultConfig(TiledGrid)
	if grid.Camera.Eye[2] != 2 {
		t.Errorf("grid eye z = %v, want 2", grid.Camera.Eye[2])
	}
	if grid.Columns != 3 {
		t.Errorf("grid columns = %d, want 3", grid.Columns)
	}
	cube := DefaultConfig(TexturedCube)
	if !cube.CullFace || cube.Projection.Near != 3 || cube.Projection.Far != 7 {
		t.Errorf("cube config = %+v, want cull face and near 3 far 7", cube)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"near", func(c *Config) { c.Projection.Near = 0 }, "near"},
		{"far", func(c *Config) { c.Projection.Far = 0.5 }, "far"},
		{"top", func(c *Config) { c.Projection.Top = c.Projection.Bottom }, "top"},
		{"eye", func(c *Config) { c.Camera.Eye = c.Camera.Look }, "eye"},
		{"uniform", func(c *Config) { c.Uniforms.MVP = "" }, "uniform"},
		{"columns", func(c *Config) { c.Columns = 0 }, "columns"},
		{"offset", func(c *Config) { c.Offset = -1 }, "offset"},
		{"texture", func(c *Config) { c.Texture = "" }, "texture"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(TiledGrid)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestParseConfigKeepsVariantDefaults(t *testing.T) {
	data := []byte("variant: grid\ncolumns: 4\nclear_color: [0, 0, 0, 1]\n")
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Variant != TiledGrid {
		t.Errorf("Variant = %v, want grid", cfg.Variant)
	}
	if cfg.Columns != 4 {
		t.Errorf("Columns = %d, want 4", cfg.Columns)
	}
	if cfg.ClearColor != [4]float32{0, 0, 0, 1} {
		t.Errorf("ClearColor = %v", cfg.ClearColor)
	}
	if cfg.Texture != "pirate.png" {
		t.Errorf("Texture = %q, want grid default", cfg.Texture)
	}
	if cfg.Uniforms.MVP != "u_MVPMatrix" {
		t.Errorf("Uniforms.MVP = %q, want default", cfg.Uniforms.MVP)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad variant", "variant: sphere\n"},
		{"bad yaml", "variant: [\n"},
		{"invalid", "projection:\n  near: 5\n  far: 1\n"},
		{"unknown key", "variant: grid\ncolums: 6\n"},
		{"unknown nested key", "camera:\n  eyes: [0, 0, 1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.data)); err == nil {
				t.Error("ParseConfig() succeeded, want error")
			}
		})
	}
}

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig(nil) error = %v", err)
	}
	if cfg != DefaultConfig(SimpleQuad) {
		t.Errorf("ParseConfig(nil) = %+v, want simple defaults", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glgrid.yaml")
	if err := os.WriteFile(path, []byte("variant: cube\nlight_pos: [0, 1, 0]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Variant != TexturedCube || cfg.LightPos != [3]float32{0, 1, 0} {
		t.Errorf("LoadConfig() = %+v", cfg)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("LoadConfig(missing) error = %v, want fs.ErrNotExist", err)
	}
}

func TestVariantMarshalRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(DefaultConfig(TexturedCube))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "variant: cube") {
		t.Errorf("marshalled config lacks variant name:\n%s", out)
	}
	cfg, err := ParseConfig(out)
	if err != nil {
		t.Fatalf("ParseConfig(marshalled) error = %v", err)
	}
	if cfg != DefaultConfig(TexturedCube) {
		t.Errorf("round trip changed config: %+v", cfg)
	}
}
