package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/pipeline"
)

// InsertionPoint names a stage of the per-camera pass order where registered command lists run.
type InsertionPoint int

const (
	// BeforeOpaque runs after the light globals were pushed, before the background is drawn.
	BeforeOpaque InsertionPoint = iota
	// BeforeAlpha runs after the character depth prepass, before the main character pass.
	BeforeAlpha
	// AfterAlpha runs after the shadow pass, right before submission.
	AfterAlpha

	insertionPointCount
)

// String returns the insertion point name.
func (p InsertionPoint) String() string {
	switch p {
	case BeforeOpaque:
		return "before_opaque"
	case BeforeAlpha:
		return "before_alpha"
	case AfterAlpha:
		return "after_alpha"
	default:
		return fmt.Sprintf("InsertionPoint(%d)", int(p))
	}
}

// PassKind selects the pipeline a draw command is recorded with.
type PassKind int

const (
	// PassBackground draws opaque background geometry.
	PassBackground PassKind = iota
	// PassDepthPrepass writes character depth only.
	PassDepthPrepass
	// PassMain draws shaded characters on top of the prepass depth.
	PassMain
	// PassShadow draws flattened, blended ground shadows.
	PassShadow
)

// String returns the pass name.
func (k PassKind) String() string {
	return k.PipelineKey()
}

// PipelineKey returns the key of the pipeline the pass draws with.
func (k PassKind) PipelineKey() string {
	switch k {
	case PassBackground:
		return pipeline.KeyBackground
	case PassDepthPrepass:
		return pipeline.KeyDepthPrepass
	case PassMain:
		return pipeline.KeyMain
	case PassShadow:
		return pipeline.KeyShadow
	default:
		return fmt.Sprintf("PassKind(%d)", int(k))
	}
}

// DrawCommand is one instanced billboard draw: Instances quads, instance i placed by
// Transforms[i] and textured with Rects[i].
type DrawCommand struct {
	Label    string
	Pass     PassKind
	Material material.Material

	// Instances is the number of quads drawn; it never exceeds len(Transforms).
	Instances  int
	Transforms []common.Mat4
	// Rects may be shorter than Instances; missing entries use the whole texture.
	Rects []common.Rect
	// Tint multiplies every fragment; a zero tint is treated as opaque white.
	Tint [4]float32
}

// InstanceCount returns the number of quads the command actually draws.
func (c *DrawCommand) InstanceCount() int {
	return max(0, min(c.Instances, len(c.Transforms)))
}

// CommandList is a reusable list of pre-built draw commands registered at an insertion point.
// Producers rebuild it in place each frame; the backing array is allocated once.
type CommandList struct {
	name string
	cmds []DrawCommand
}

// NewCommandList creates an empty list with room for capacity commands.
//
// Parameters:
//   - name: debug name
//   - capacity: expected number of commands per frame
//
// Returns:
//   - *CommandList: the list
func NewCommandList(name string, capacity int) *CommandList {
	return &CommandList{
		name: name,
		cmds: make([]DrawCommand, 0, capacity),
	}
}

// Name returns the list's debug name.
func (l *CommandList) Name() string {
	return l.name
}

// Reset empties the list, keeping its backing array.
func (l *CommandList) Reset() {
	clear(l.cmds)
	l.cmds = l.cmds[:0]
}

// Append adds a command.
func (l *CommandList) Append(cmd DrawCommand) {
	l.cmds = append(l.cmds, cmd)
}

// Commands returns the recorded commands. The slice is reused by the next Reset.
func (l *CommandList) Commands() []DrawCommand {
	return l.cmds
}

// Len returns the number of recorded commands.
func (l *CommandList) Len() int {
	return len(l.cmds)
}
