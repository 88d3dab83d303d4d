package options

type RenderOptions struct {
	Variant    *string
	Columns    *int
	Width      *int
	Height     *int
	ConfigFile *string // YAML renderer configuration. Flags given explicitly override it.
	AssetsDir  *string // Directory with shaders/ and textures/. Empty uses the embedded assets.
	Headless   *bool
	Frames     *int // Frame budget in headless mode.
	OutputFile *string
	FPS        *int
	Codec      *string
	FFMPEGPath *string
	Verbose    *bool
	Help       *bool
}
