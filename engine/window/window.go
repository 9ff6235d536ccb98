// Package window opens the desktop window the wgpu backend presents into and forwards its input
// events to the demo's camera controls.
package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is a native window with a WebGPU-compatible surface.
type Window interface {
	// SetResizeCallback sets the function called with the new framebuffer size in pixels.
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse wheel events (positive = away from the user).
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetDragCallback sets the callback for cursor movement while the left button is held.
	//
	// Parameters:
	//   - callback: function receiving the cursor delta in pixels since the last event
	SetDragCallback(callback func(dx, dy float32))

	// SetUpdateCallback sets the function called once per message loop iteration on the main thread.
	SetUpdateCallback(callback func())

	// SurfaceDescriptor returns the platform surface descriptor produced by the wgpuglfw bridge.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is open and no close was requested.
	IsRunning() bool

	// RequestClose asks the message loop to stop. Safe to call from any goroutine.
	RequestClose()

	// ProcessMessages pumps window events until the window closes. Must run on the main thread.
	ProcessMessages()

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: error if the window was never created or already closed
	Close() error

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// engineWindow holds the window configuration and the registered callbacks.
type engineWindow struct {
	title string

	// width and height are the framebuffer size, updated on resize.
	width  int
	height int

	minWidth, minHeight int
	maxWidth, maxHeight int

	resizable bool

	platform *glfwWindow

	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onDrag    func(dx, dy float32)
	onUpdate  func()
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. The calling goroutine is locked to its OS thread, which
// must stay the one calling ProcessMessages.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: error if GLFW or the window cannot be initialized
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	runtime.LockOSThread()
	if err := openPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

// newEngineWindow applies defaults and options without touching the platform layer.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     "oxy-crowd",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 200,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.maxWidth > 0 && w.maxWidth < w.minWidth {
		w.maxWidth = w.minWidth
	}
	if w.maxHeight > 0 && w.maxHeight < w.minHeight {
		w.maxHeight = w.minHeight
	}
	return w
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.platform != nil && w.platform.isRunning()
}

func (w *engineWindow) RequestClose() {
	if w.platform != nil {
		w.platform.requestClose()
	}
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		w.platform.poll()
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return fmt.Errorf("window is not open")
	}
	w.platform.destroy()
	w.platform = nil
	return nil
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// resized records a new framebuffer size and notifies the resize callback.
func (w *engineWindow) resized(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
