package pipeline

import "github.com/cogentcore/webgpu/wgpu"

const (
	// KeyBackground is the pipeline of opaque background quads.
	KeyBackground = "background"
	// KeyDepthPrepass is the depth-only character pass.
	KeyDepthPrepass = "depth_prepass"
	// KeyMain is the shaded, blended character pass.
	KeyMain = "main"
	// KeyShadow is the blended ground shadow pass.
	KeyShadow = "shadow"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the fixed-function state of one billboard render pipeline and, once the backend
// created it, the GPU pipeline object.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexEntry   string
	fragmentEntry string

	renderPipeline *wgpu.RenderPipeline

	depthCompare        wgpu.CompareFunction
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline describes a billboard render pipeline: shader entry points plus depth, blend, cull and
// color write state. The backend turns it into a GPU pipeline with SetRenderPipeline.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	PipelineKey() string

	// VertexEntry returns the vertex shader entry point.
	VertexEntry() string

	// FragmentEntry returns the fragment shader entry point.
	FragmentEntry() string

	// RenderPipeline returns the GPU pipeline, or nil before the backend created it.
	RenderPipeline() *wgpu.RenderPipeline

	// DepthCompare returns the depth comparison function.
	DepthCompare() wgpu.CompareFunction

	// DepthWriteEnabled returns whether the pipeline writes depth.
	DepthWriteEnabled() bool

	// DepthBias returns the constant depth bias.
	DepthBias() int32

	// DepthBiasSlopeScale returns the slope-scaled depth bias.
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether alpha blending is enabled.
	BlendEnabled() bool

	// CullMode returns the face culling mode.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask.
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state used when blending is enabled.
	BlendState() *wgpu.BlendState

	// SetRenderPipeline stores the GPU pipeline created by the backend.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline description with depth test Less, depth writes on, no blending,
// no culling and triangle-list topology.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: the pipeline description
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		vertexEntry:       "vs_main",
		fragmentEntry:     "fs_main",
		depthCompare:      wgpu.CompareFunctionLess,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Defaults returns the four billboard pipelines keyed by their pipeline key.
//
//   - background: opaque, depth tested and written
//   - depth_prepass: alpha-tested characters writing depth only (no color)
//   - main: characters shaded on top of the prepass depth (LessEqual, no depth write, blended)
//   - shadow: flattened quads blended over the ground without depth writes, slightly biased
//
// Returns:
//   - map[string]Pipeline: the pipelines
func Defaults() map[string]Pipeline {
	return map[string]Pipeline{
		KeyBackground: NewPipeline(KeyBackground),
		KeyDepthPrepass: NewPipeline(KeyDepthPrepass,
			WithFragmentEntry("fs_depth"),
			WithWriteMask(wgpu.ColorWriteMaskNone),
		),
		KeyMain: NewPipeline(KeyMain,
			WithDepthCompare(wgpu.CompareFunctionLessEqual),
			WithDepthWriteEnabled(false),
			WithBlendEnabled(true),
		),
		KeyShadow: NewPipeline(KeyShadow,
			WithFragmentEntry("fs_shadow"),
			WithDepthWriteEnabled(false),
			WithDepthBias(-1, -1),
			WithBlendEnabled(true),
		),
	}
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) VertexEntry() string {
	return p.vertexEntry
}

func (p *pipeline) FragmentEntry() string {
	return p.fragmentEntry
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}
