//go:build cgo && !nogl

package glfwsurface

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/glstate"
	glbackend "github.com/gogpu/glstate/backend/gl"
)

// Surface is a GLFW window with a current OpenGL 3.3 core context and the
// glstate.Context driving it.
type Surface struct {
	window *glfw.Window
	device *glbackend.Device
	ctx    *glstate.Context
}

// New initializes GLFW, opens a window according to opts, makes its GL
// context current on the calling thread and creates a glstate.Context for
// it. The GL backend is registered with the backend registry.
func New(title string, opts WindowOptions) (*Surface, error) {
	opts = opts.normalized()
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, &InitError{Err: err}
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, opts.Samples)

	window, err := createWindow(title, opts)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	window.MakeContextCurrent()
	window.SetInputMode(glfw.CursorMode, cursorMode(opts.Cursor))
	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	dev, err := glbackend.New()
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, &GraphicsStateError{Err: err}
	}
	ctx, err := glstate.New(dev, opts.ContextOptions...)
	if err != nil {
		dev.Close()
		window.Destroy()
		glfw.Terminate()
		return nil, &GraphicsStateError{Err: err}
	}
	glbackend.Register()

	w, h := window.GetFramebufferSize()
	glstate.Logger().Info("glfwsurface: surface opened",
		"title", title,
		"mode", opts.Mode.String(),
		"width", w,
		"height", h,
		"gl", dev.Version(),
		"units", ctx.Capacity())

	return &Surface{window: window, device: dev, ctx: ctx}, nil
}

func createWindow(title string, opts WindowOptions) (*glfw.Window, error) {
	var (
		monitor       *glfw.Monitor
		width, height = opts.Width, opts.Height
	)
	if opts.Mode == Fullscreen || opts.Mode == FullscreenRestricted {
		monitor = glfw.GetPrimaryMonitor()
		if monitor == nil {
			return nil, ErrNoPrimaryMonitor
		}
	}
	if opts.Mode == Fullscreen {
		mode := monitor.GetVideoMode()
		if mode == nil {
			return nil, ErrNoVideoMode
		}
		width, height = mode.Width, mode.Height
	}

	window, err := glfw.CreateWindow(width, height, title, monitor, nil)
	if err != nil || window == nil {
		glstate.Logger().Warn("glfwsurface: window creation failed", "error", err)
		return nil, ErrWindowCreationFailed
	}
	return window, nil
}

func cursorMode(m CursorMode) int {
	switch m {
	case CursorInvisible:
		return glfw.CursorHidden
	case CursorDisabled:
		return glfw.CursorDisabled
	default:
		return glfw.CursorNormal
	}
}

// Context returns the glstate.Context bound to the window's GL context.
func (s *Surface) Context() *glstate.Context {
	return s.ctx
}

// Window returns the underlying GLFW window.
func (s *Surface) Window() *glfw.Window {
	return s.window
}

// BackBufferSize returns the framebuffer size in pixels, which differs from
// the window size on high-DPI displays.
func (s *Surface) BackBufferSize() (width, height int) {
	return s.window.GetFramebufferSize()
}

// SwapBuffers presents the back buffer.
func (s *Surface) SwapBuffers() {
	s.window.SwapBuffers()
}

// PollEvents processes pending window events.
func (s *Surface) PollEvents() {
	glfw.PollEvents()
}

// ShouldClose reports whether the user asked to close the window.
func (s *Surface) ShouldClose() bool {
	return s.window.ShouldClose()
}

// Close releases the context, the GL device and the window, then
// terminates GLFW. Close is idempotent.
func (s *Surface) Close() {
	if s.window == nil {
		return
	}
	s.ctx.Release()
	s.device.Close()
	s.window.Destroy()
	glfw.Terminate()
	s.window = nil
	runtime.UnlockOSThread()
}
