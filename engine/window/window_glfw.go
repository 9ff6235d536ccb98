package window

import (
	"fmt"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow is the GLFW state behind an engineWindow.
type glfwWindow struct {
	window *glfw.Window

	// closing is set by RequestClose from any goroutine and read by the message loop.
	closing atomic.Bool

	dragging     bool
	lastX, lastY float64
}

// openPlatformWindow creates the GLFW window without a client API (WebGPU owns the surface) and
// installs the input callbacks.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func openPlatformWindow(w *engineWindow) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if w.resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}

	maxW, maxH := glfw.DontCare, glfw.DontCare
	if w.maxWidth > 0 {
		maxW = w.maxWidth
	}
	if w.maxHeight > 0 {
		maxH = w.maxHeight
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, maxW, maxH)

	gw := &glfwWindow{window: win}
	w.platform = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gw.requestClose()
			return
		}
		if (action == glfw.Press || action == glfw.Repeat) && w.onKeyDown != nil {
			w.onKeyDown(uint32(key))
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		gw.dragging = action == glfw.Press
		gw.lastX, gw.lastY = win.GetCursorPos()
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if !gw.dragging {
			return
		}
		dx, dy := x-gw.lastX, y-gw.lastY
		gw.lastX, gw.lastY = x, y
		if w.onDrag != nil {
			w.onDrag(float32(dx), float32(dy))
		}
	})

	// Framebuffer size differs from window size on high-DPI displays; the surface needs pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})

	w.width, w.height = win.GetFramebufferSize()
	return nil
}

// surfaceDescriptor returns the wgpuglfw descriptor for the current platform (Win32, X11, Wayland, Metal).
func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

func (g *glfwWindow) isRunning() bool {
	return !g.closing.Load() && !g.window.ShouldClose()
}

func (g *glfwWindow) requestClose() {
	g.closing.Store(true)
}

// poll processes pending events, waking at least every few milliseconds so a close requested
// from another goroutine is observed promptly.
func (g *glfwWindow) poll() {
	glfw.WaitEventsTimeout(0.005)
}

func (g *glfwWindow) destroy() {
	g.closing.Store(true)
	g.window.Destroy()
	glfw.Terminate()
}
