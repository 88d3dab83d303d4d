// Package surface drives a renderer from a host graphics context.
package surface

import (
	"fmt"

	"github.com/richinsley/glgrid/graphics"
	"github.com/richinsley/glgrid/renderer"
)

// Hooks are optional callbacks around each frame.
type Hooks struct {
	// AfterDraw runs after OnDrawFrame and before the host presents the
	// frame, with the framebuffer size the frame was drawn at.
	AfterDraw func(width, height int) error
	// Resized runs after every successful OnSurfaceChanged.
	Resized func(width, height int)
}

// Run makes host current and drives r until the host asks to close. The
// surface is destroyed while the host is paused and created again on
// resume. On return every GPU resource of r has been released.
func Run(host graphics.Context, r renderer.Renderer, hooks Hooks) error {
	host.MakeCurrent()
	if err := r.OnSurfaceCreated(); err != nil {
		return fmt.Errorf("failed to create surface: %w", err)
	}
	defer r.OnSurfaceDestroyed()

	start, frames := host.Time(), 0
	defer func() {
		elapsed := host.Time() - start
		fps := 0.0
		if elapsed > 0 {
			fps = float64(frames) / elapsed
		}
		renderer.Logger().Info("render loop finished", "frames", frames, "seconds", elapsed, "fps", fps)
	}()

	width, height := 0, 0
	sized := false
	for !host.ShouldClose() {
		if host.Paused() {
			if r.State() != renderer.Destroyed {
				r.OnSurfaceDestroyed()
				renderer.Logger().Info("host paused")
			}
			host.WaitEvents()
			continue
		}
		if r.State() == renderer.Destroyed {
			renderer.Logger().Info("host resumed")
			if err := r.OnSurfaceCreated(); err != nil {
				return fmt.Errorf("failed to re-create surface: %w", err)
			}
			sized = false
		}

		w, h := host.GetFramebufferSize()
		if w <= 0 || h <= 0 {
			host.WaitEvents()
			continue
		}
		if !sized || w != width || h != height {
			if err := r.OnSurfaceChanged(w, h); err != nil {
				return fmt.Errorf("failed to resize surface to %dx%d: %w", w, h, err)
			}
			width, height, sized = w, h, true
			if hooks.Resized != nil {
				hooks.Resized(w, h)
			}
		}

		if err := r.OnDrawFrame(); err != nil {
			return fmt.Errorf("failed to draw frame: %w", err)
		}
		if hooks.AfterDraw != nil {
			if err := hooks.AfterDraw(w, h); err != nil {
				return err
			}
		}
		host.EndFrame()
		frames++
	}
	return nil
}
