package graphics

// Context defines the interface for a host rendering surface.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	// Paused reports whether the surface is currently hidden (iconified,
	// backgrounded) and should not be drawn to.
	Paused() bool
	// WaitEvents blocks until the host has something to report. Used while paused.
	WaitEvents()
	IsGLES() bool
}
