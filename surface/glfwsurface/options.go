package glfwsurface

import (
	"fmt"

	"github.com/gogpu/glstate"
)

// WindowMode selects how the window is placed on screen.
type WindowMode uint8

const (
	// Windowed opens a regular window of the requested size.
	Windowed WindowMode = iota

	// Fullscreen covers the primary monitor using its current video mode.
	Fullscreen

	// FullscreenRestricted covers the primary monitor with the requested
	// size, letting the monitor switch video mode.
	FullscreenRestricted
)

// String returns the mode name.
func (m WindowMode) String() string {
	switch m {
	case Windowed:
		return "windowed"
	case Fullscreen:
		return "fullscreen"
	case FullscreenRestricted:
		return "fullscreen-restricted"
	default:
		return fmt.Sprintf("WindowMode(%d)", uint8(m))
	}
}

// CursorMode selects the cursor behavior inside the window.
type CursorMode uint8

const (
	// CursorVisible shows the normal cursor.
	CursorVisible CursorMode = iota

	// CursorInvisible hides the cursor over the window.
	CursorInvisible

	// CursorDisabled hides and captures the cursor.
	CursorDisabled
)

// WindowOptions configures New.
type WindowOptions struct {
	// Mode is the window placement.
	Mode WindowMode

	// Width and Height are the window size in screen coordinates. They are
	// ignored in Fullscreen mode.
	Width  int
	Height int

	// Samples is the MSAA sample count of the default framebuffer. Zero
	// disables multisampling.
	Samples int

	// Cursor is the cursor mode.
	Cursor CursorMode

	// VSync synchronizes SwapBuffers with the display refresh.
	VSync bool

	// ContextOptions are passed to glstate.New.
	ContextOptions []glstate.Option
}

// Default window settings.
const (
	DefaultWidth  = 960
	DefaultHeight = 540
)

// DefaultWindowOptions returns a vsynced 960x540 window without MSAA.
func DefaultWindowOptions() WindowOptions {
	return WindowOptions{
		Mode:   Windowed,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Cursor: CursorVisible,
		VSync:  true,
	}
}

// normalized returns o with non-positive sizes replaced by the defaults and
// a negative sample count treated as zero.
func (o WindowOptions) normalized() WindowOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	o.Samples = max(o.Samples, 0)
	return o
}
