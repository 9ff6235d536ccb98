// Package renderer draws the billboard scene and registered instanced command lists in a fixed
// per-camera pass order through a pluggable Backend.
package renderer

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/light"
)

// FrameStats counts the work recorded by the last Render call.
type FrameStats struct {
	Cameras   int
	DrawCalls int
	Instances int
	// Culled sums, over every camera, the scene renderables outside that camera's frustum.
	Culled int
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithClearColor sets the color every camera clears to.
func WithClearColor(c [4]float32) DriverOption {
	return func(d *Driver) {
		d.clearColor = c
	}
}

// Driver runs the fixed billboard pass order for every camera of a frame. External producers
// plug their command lists in at named insertion points; the driver knows nothing else about
// them. Several drivers may coexist, each with its own backend.
type Driver struct {
	mu *sync.Mutex

	backend    Backend
	clearColor [4]float32
	lists      [insertionPointCount][]*CommandList

	// per-frame scratch, reused across frames
	visible    []Renderable
	background []Renderable
	characters []Renderable
	opaque     []Renderable
	shadows    []Renderable
	single     DrawCommand
	transform  [1]common.Mat4
	rect       [1]common.Rect

	stats FrameStats
}

// NewDriver creates a driver submitting through backend.
//
// Parameters:
//   - backend: the GPU (or headless) backend
//   - opts: driver options
//
// Returns:
//   - *Driver: the driver
func NewDriver(backend Backend, opts ...DriverOption) *Driver {
	if backend == nil {
		panic("renderer: NewDriver requires a non-nil Backend")
	}
	d := &Driver{
		mu:         &sync.Mutex{},
		backend:    backend,
		clearColor: [4]float32{0.1, 0.1, 0.1, 1},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Backend returns the driver's backend.
func (d *Driver) Backend() Backend {
	return d.backend
}

// Register adds list at point. Registering the same list twice at one point is a no-op.
//
// Parameters:
//   - point: the insertion point
//   - list: the command list, rebuilt by its producer each frame
func (d *Driver) Register(point InsertionPoint, list *CommandList) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if point < 0 || point >= insertionPointCount || list == nil {
		return
	}
	if slices.Contains(d.lists[point], list) {
		return
	}
	d.lists[point] = append(d.lists[point], list)
	slog.Debug("renderer: command list registered", "point", point.String(), "list", list.Name())
}

// Deregister removes list from point.
//
// Returns:
//   - bool: true if the list was registered there
func (d *Driver) Deregister(point InsertionPoint, list *CommandList) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if point < 0 || point >= insertionPointCount {
		return false
	}
	i := slices.Index(d.lists[point], list)
	if i < 0 {
		return false
	}
	d.lists[point] = slices.Delete(d.lists[point], i, i+1)
	slog.Debug("renderer: command list deregistered", "point", point.String(), "list", list.Name())
	return true
}

// Lists returns a copy of the lists registered at point, in registration order.
func (d *Driver) Lists(point InsertionPoint) []*CommandList {
	d.mu.Lock()
	defer d.mu.Unlock()
	if point < 0 || point >= insertionPointCount {
		return nil
	}
	return slices.Clone(d.lists[point])
}

// Stats returns the counters of the last Render call.
func (d *Driver) Stats() FrameStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Render draws one frame. Per camera, in order: cull, camera setup, clear, directional light
// (skipped when the scene has none), BeforeOpaque lists, background front-to-back, character
// depth prepass, BeforeAlpha lists, characters by material then depth, shadows back-to-front,
// AfterAlpha lists, submit. The frame is presented once after the last camera.
//
// Parameters:
//   - cameras: the cameras to render, in order
//   - scene: the scene, or nil for command lists only
//
// Returns:
//   - error: error if the backend could not acquire or submit the frame
func (d *Driver) Render(cameras []camera.Camera, scene SceneView) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats = FrameStats{}
	if len(cameras) == 0 {
		return nil
	}
	if err := d.backend.BeginFrame(); err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}

	for _, cam := range cameras {
		if err := d.renderCamera(cam, scene); err != nil {
			return fmt.Errorf("camera %s: %w", cam.Label(), err)
		}
		d.stats.Cameras++
	}

	d.backend.Present()
	return nil
}

func (d *Driver) renderCamera(cam camera.Camera, scene SceneView) error {
	eye := cam.Position()

	d.visible = d.visible[:0]
	if scene != nil {
		var culled int
		d.visible, culled = scene.Cull(cam.Frustum(), d.visible)
		d.stats.Culled += culled
	}
	d.partition()

	d.backend.SetupCamera(CameraParams{
		Label:          cam.Label(),
		View:           cam.ViewMatrix(),
		Projection:     cam.ProjectionMatrix(),
		ViewProjection: cam.ViewProjectionMatrix(),
		Position:       eye,
	})
	if err := d.backend.Clear(d.clearColor); err != nil {
		return err
	}
	if scene != nil {
		if l := scene.DirectionalLight(); l != nil {
			d.backend.SetLightGlobals(light.DirectionalGlobals(l, scene.Ambient()))
		}
	}

	d.runLists(BeforeOpaque)

	sortByDistance(d.background, eye, false)
	d.drawRenderables(d.background, PassBackground)

	sortByDistance(d.opaque, eye, false)
	d.drawRenderables(d.opaque, PassDepthPrepass)

	d.runLists(BeforeAlpha)

	sortByMaterialThenDistance(d.characters, eye)
	d.drawRenderables(d.characters, PassMain)

	sortByDistance(d.shadows, eye, true)
	d.drawRenderables(d.shadows, PassShadow)

	d.runLists(AfterAlpha)

	return d.backend.Submit()
}

// partition splits the visible renderables by layer and queue.
func (d *Driver) partition() {
	d.background = d.background[:0]
	d.characters = d.characters[:0]
	d.opaque = d.opaque[:0]
	d.shadows = d.shadows[:0]
	for _, r := range d.visible {
		switch r.Layer {
		case LayerBackground:
			d.background = append(d.background, r)
		case LayerCharacter:
			d.characters = append(d.characters, r)
			if r.Queue == QueueOpaque {
				d.opaque = append(d.opaque, r)
			}
		case LayerShadow:
			d.shadows = append(d.shadows, r)
		}
	}
}

func (d *Driver) runLists(point InsertionPoint) {
	for _, list := range d.lists[point] {
		cmds := list.Commands()
		for i := range cmds {
			d.draw(&cmds[i])
		}
	}
}

func (d *Driver) drawRenderables(rs []Renderable, pass PassKind) {
	for i := range rs {
		r := &rs[i]
		d.transform[0] = r.Transform
		d.rect[0] = r.Rect
		d.single = DrawCommand{
			Label:      r.Label,
			Pass:       pass,
			Material:   r.Material,
			Instances:  1,
			Transforms: d.transform[:],
			Rects:      d.rect[:],
			Tint:       r.Tint,
		}
		d.draw(&d.single)
	}
}

func (d *Driver) draw(cmd *DrawCommand) {
	n := cmd.InstanceCount()
	if n == 0 {
		return
	}
	d.backend.Draw(cmd)
	d.stats.DrawCalls++
	d.stats.Instances += n
}

func distance2(a, b common.Vec3) float32 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}

// sortByDistance orders rs front-to-back, or back-to-front when farFirst is set. Ties keep their
// scene order.
func sortByDistance(rs []Renderable, eye common.Vec3, farFirst bool) {
	slices.SortStableFunc(rs, func(a, b Renderable) int {
		c := cmp.Compare(distance2(a.Center, eye), distance2(b.Center, eye))
		if farFirst {
			return -c
		}
		return c
	})
}

// sortByMaterialThenDistance groups rs by material to minimise state changes, front-to-back
// inside each group.
func sortByMaterialThenDistance(rs []Renderable, eye common.Vec3) {
	slices.SortStableFunc(rs, func(a, b Renderable) int {
		if c := cmp.Compare(materialID(a), materialID(b)); c != 0 {
			return c
		}
		return cmp.Compare(distance2(a.Center, eye), distance2(b.Center, eye))
	})
}

func materialID(r Renderable) uint64 {
	if r.Material == nil {
		return 0
	}
	return r.Material.ID()
}
