package board

import (
	"cmp"
	"image/color"
	"log/slog"
	"math"
	"slices"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/crowd"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"
)

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithBoardSize sets the world size of every billboard.
func WithBoardSize(width, height float32) StageOption {
	return func(s *Stage) {
		if width > 0 && height > 0 {
			s.size = rl.NewVector2(width, height)
		}
	}
}

// WithGround sets the size and color of the ground plane. A non-positive size disables it.
func WithGround(size float32, c [4]float32) StageOption {
	return func(s *Stage) {
		s.groundSize = size
		s.groundColor = toColor(c)
	}
}

// WithShadows enables blob shadows under every board with the given color.
func WithShadows(enabled bool, c [4]float32) StageOption {
	return func(s *Stage) {
		s.shadows = enabled
		s.shadowColor = toColor(c)
	}
}

// WithObstacles sets the boxes drawn as solid cubes.
func WithObstacles(boxes []r3.Box) StageOption {
	return func(s *Stage) {
		s.obstacles = slices.Clone(boxes)
	}
}

// Stage owns one Board per entity and draws them with raylib.
type Stage struct {
	boards []Board
	order  []int

	size        rl.Vector2
	tint        color.RGBA
	groundSize  float32
	groundColor color.RGBA
	shadows     bool
	shadowColor color.RGBA
	obstacles   []r3.Box

	// textures caches uploaded sprite sheets by texture key.
	textures map[string]rl.Texture2D
}

// NewStage allocates count boards.
//
// Parameters:
//   - count: number of boards
//   - opts: functional options
//
// Returns:
//   - *Stage: the stage; nothing is uploaded to the GPU before the first Draw
func NewStage(count int, opts ...StageOption) *Stage {
	s := &Stage{
		boards:      make([]Board, max(count, 0)),
		order:       make([]int, max(count, 0)),
		size:        rl.NewVector2(1, 1),
		tint:        rl.White,
		groundSize:  60,
		groundColor: color.RGBA{R: 77, G: 107, B: 71, A: 255},
		shadowColor: color.RGBA{A: 128},
		textures:    make(map[string]rl.Texture2D),
	}
	for i := range s.order {
		s.order[i] = i
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Boards returns the boards as crowd.Board values, board i for entity i.
func (s *Stage) Boards() []crowd.Board {
	out := make([]crowd.Board, len(s.boards))
	for i := range s.boards {
		out[i] = &s.boards[i]
	}
	return out
}

// Board returns board i.
func (s *Stage) Board(i int) *Board {
	return &s.boards[i]
}

// Len returns the number of boards.
func (s *Stage) Len() int {
	return len(s.boards)
}

// SortBackToFront orders the draw sequence by decreasing distance to eye so alpha blending
// composites correctly. The order slice is reused across frames.
//
// Parameters:
//   - eye: camera position
//
// Returns:
//   - []int: board indices, farthest first
func (s *Stage) SortBackToFront(eye common.Vec3) []int {
	slices.SortFunc(s.order, func(a, b int) int {
		return cmp.Compare(s.distance2(b, eye), s.distance2(a, eye))
	})
	return s.order
}

func (s *Stage) distance2(i int, eye common.Vec3) float32 {
	m := &s.boards[i].placement
	dx, dy, dz := m[12]-eye[0], m[13]-eye[1], m[14]-eye[2]
	return dx*dx + dy*dy + dz*dz
}

// Draw renders the ground, obstacles, shadows and boards from cam. Must be called on the raylib
// thread between rl.BeginDrawing and rl.EndDrawing.
//
// Parameters:
//   - cam: the viewing camera
func (s *Stage) Draw(cam camera.Camera) {
	rcam := Camera3D(cam)
	rl.BeginMode3D(rcam)
	defer rl.EndMode3D()

	if s.groundSize > 0 {
		rl.DrawPlane(rl.NewVector3(0, 0, 0), rl.NewVector2(s.groundSize, s.groundSize), s.groundColor)
	}
	for _, b := range s.obstacles {
		c := b.Center()
		sz := b.Size()
		rl.DrawCube(rl.NewVector3(float32(c.X), float32(c.Y), float32(c.Z)),
			float32(sz.X), float32(sz.Y), float32(sz.Z), rl.Gray)
		rl.DrawCubeWires(rl.NewVector3(float32(c.X), float32(c.Y), float32(c.Z)),
			float32(sz.X), float32(sz.Y), float32(sz.Z), rl.DarkGray)
	}

	order := s.SortBackToFront(cam.Position())

	if s.shadows {
		radius := s.size.X * 0.4
		for _, i := range order {
			p := s.boards[i].Position()
			rl.DrawCylinder(rl.NewVector3(p.X, 0.01, p.Z), radius, radius, 0.01, 12, s.shadowColor)
		}
	}

	for _, i := range order {
		b := &s.boards[i]
		if b.texture == nil {
			continue
		}
		tex := s.texture(b)
		rl.DrawBillboardRec(rcam, tex, b.Source(tex.Width, tex.Height), b.Position(), s.size, s.tint)
	}
}

// texture returns the uploaded sprite sheet of b, uploading it on first use.
func (s *Stage) texture(b *Board) rl.Texture2D {
	key := b.texture.Key
	if tex, ok := s.textures[key]; ok {
		return tex
	}

	w, h := int(b.texture.Width), int(b.texture.Height)
	img := rl.GenImageColor(w, h, rl.Blank)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	if len(b.texture.Pixels) >= w*h*4 && w*h > 0 {
		pixels := unsafe.Slice((*color.RGBA)(unsafe.Pointer(&b.texture.Pixels[0])), w*h)
		rl.UpdateTexture(tex, pixels)
	}
	rl.SetTextureFilter(tex, rl.FilterPoint)

	s.textures[key] = tex
	slog.Info("board: texture uploaded", "key", key, "width", w, "height", h)
	return tex
}

// Unload releases every uploaded texture. Must be called before rl.CloseWindow.
func (s *Stage) Unload() {
	for key, tex := range s.textures {
		rl.UnloadTexture(tex)
		delete(s.textures, key)
	}
}

// Camera3D converts an engine camera to a raylib perspective camera.
//
// Parameters:
//   - cam: the engine camera (field of view in radians)
//
// Returns:
//   - rl.Camera3D: the equivalent raylib camera (field of view in degrees)
func Camera3D(cam camera.Camera) rl.Camera3D {
	p, t, u := cam.Position(), cam.Target(), cam.Up()
	return rl.Camera3D{
		Position:   rl.NewVector3(p[0], p[1], p[2]),
		Target:     rl.NewVector3(t[0], t[1], t[2]),
		Up:         rl.NewVector3(u[0], u[1], u[2]),
		Fovy:       cam.Fov() * 180 / math.Pi,
		Projection: rl.CameraPerspective,
	}
}
