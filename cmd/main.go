package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	assets "github.com/richinsley/glgrid/assets"
	glfwcontext "github.com/richinsley/glgrid/glfwcontext"
	gldriver "github.com/richinsley/glgrid/gldriver"
	graphics "github.com/richinsley/glgrid/graphics"
	headless "github.com/richinsley/glgrid/headless"
	options "github.com/richinsley/glgrid/options"
	record "github.com/richinsley/glgrid/record"
	renderer "github.com/richinsley/glgrid/renderer"
	surface "github.com/richinsley/glgrid/surface"
	translator "github.com/richinsley/glgrid/translator"
)

func init() {
	runtime.LockOSThread()
}

// loadConfig builds the renderer configuration from the config file, if any,
// and the flags given on the command line.
func loadConfig(opts *options.RenderOptions) (renderer.Config, error) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	variant, err := renderer.ParseVariant(*opts.Variant)
	if err != nil {
		return renderer.Config{}, err
	}

	cfg := renderer.DefaultConfig(variant)
	if *opts.ConfigFile != "" {
		cfg, err = renderer.LoadConfig(*opts.ConfigFile)
		if err != nil {
			return renderer.Config{}, err
		}
		if set["variant"] && cfg.Variant != variant {
			return renderer.Config{}, fmt.Errorf("-variant %s conflicts with %s in %s", variant, cfg.Variant, *opts.ConfigFile)
		}
	}
	if set["columns"] || *opts.ConfigFile == "" {
		cfg.Columns = *opts.Columns
	}
	if err := cfg.Validate(); err != nil {
		return renderer.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// registerColumnKeys binds the arrow keys to the grid column count.
func registerColumnKeys(ctx *glfwcontext.Context, r renderer.Renderer, columns int) {
	cs, ok := r.(renderer.ColumnSetter)
	if !ok {
		return
	}
	set := func(n int) {
		if n < 1 {
			return
		}
		if err := cs.SetColumns(n); err != nil {
			log.Printf("Failed to set columns: %v", err)
			return
		}
		columns = n
		log.Printf("Columns: %d", columns)
	}
	ctx.RegisterKeyCallback(glfw.KeyUp, func() { set(columns + 1) })
	ctx.RegisterKeyCallback(glfw.KeyDown, func() { set(columns - 1) })
}

func run(opts *options.RenderOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	fsys, err := assets.Open(*opts.AssetsDir)
	if err != nil {
		return fmt.Errorf("failed to open assets: %w", err)
	}

	var host graphics.Context
	var window *glfwcontext.Context
	if *opts.Headless {
		h, err := headless.NewHeadless(*opts.Width, *opts.Height, *opts.Frames)
		if err != nil {
			return fmt.Errorf("failed to create headless context: %w", err)
		}
		host = h
	} else {
		if err := glfwcontext.InitGraphics(); err != nil {
			return fmt.Errorf("failed to initialize GLFW: %w", err)
		}
		defer glfwcontext.TerminateGraphics()
		window, err = glfwcontext.New(opts, true)
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
		host = window
	}
	defer host.Shutdown()
	host.MakeCurrent()

	driver, err := gldriver.New()
	if err != nil {
		return err
	}
	defer driver.Destroy()
	log.Printf("OpenGL version: %s", driver.Version())

	tr, err := translator.New(context.Background(), host.IsGLES())
	if err != nil {
		return err
	}

	r, err := renderer.New(cfg, renderer.Deps{Driver: driver, Assets: fsys, Translator: tr})
	if err != nil {
		return err
	}
	if window != nil {
		registerColumnKeys(window, r, cfg.Columns)
	}

	var hooks surface.Hooks
	if *opts.OutputFile != "" {
		width, height := host.GetFramebufferSize()
		rec, err := record.Start(record.Settings{
			Width:      width,
			Height:     height,
			FPS:        *opts.FPS,
			Output:     *opts.OutputFile,
			Codec:      *opts.Codec,
			FFmpegPath: *opts.FFMPEGPath,
		})
		if err != nil {
			return err
		}
		hooks.AfterDraw = func(w, h int) error {
			return rec.WriteFrame(driver.ReadPixels(int32(w), int32(h)))
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Printf("Recording failed: %v", err)
			}
		}()
	}

	log.Printf("Starting %s render loop...", cfg.Variant)
	return surface.Run(host, r, hooks)
}

func main() {
	opts := &options.RenderOptions{
		Variant:    flag.String("variant", "grid", "Renderer variant: simple, grid or cube"),
		Columns:    flag.Int("columns", renderer.DefaultColumns, "Grid column count"),
		Width:      flag.Int("width", 800, "Width of the window or pbuffer"),
		Height:     flag.Int("height", 480, "Height of the window or pbuffer"),
		ConfigFile: flag.String("config", "", "YAML renderer configuration"),
		AssetsDir:  flag.String("assets", "", "Directory with shaders/ and textures/ (default: embedded)"),
		Headless:   flag.Bool("headless", false, "Render offscreen through EGL"),
		Frames:     flag.Int("frames", 120, "Number of frames to render in headless mode"),
		OutputFile: flag.String("record", "", "Record frames to this file through ffmpeg"),
		FPS:        flag.Int("fps", 60, "Frames per second for recording"),
		Codec:      flag.String("codec", "", "ffmpeg video encoder (default libx264)"),
		FFMPEGPath: flag.String("ffmpeg", "", "Path to ffmpeg executable"),
		Verbose:    flag.Bool("verbose", false, "Log renderer lifecycle and layout"),
		Help:       flag.Bool("help", false, "Show help message"),
	}
	flag.Parse()

	if *opts.Help {
		fmt.Println("glgrid: OpenGL grid renderer")
		flag.PrintDefaults()
		return
	}
	if *opts.Verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		renderer.SetLogger(slog.Default())
	}

	if err := run(opts); err != nil {
		log.Fatalf("%v", err)
	}
}
