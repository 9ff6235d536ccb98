package renderer

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/light"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed shaders/billboard.wgsl
var billboardShader string

// Frame group bindings.
const (
	bindingCamera    = 0
	bindingGlobals   = 1
	bindingInstances = 2
)

// Material group bindings.
const (
	bindingTexture  = 0
	bindingSampler  = 1
	bindingMaterial = 2
)

const (
	cameraUniformSize   = 80
	globalsUniformSize  = 48
	materialUniformSize = 32
	quadVertexCount     = 6

	// DefaultMaxInstances is the instance storage capacity of a frame unless WithMaxInstances
	// overrides it.
	DefaultMaxInstances = 16384
)

// gpuInstance matches the WGSL Instance struct (96 bytes).
type gpuInstance struct {
	Model common.Mat4
	Rect  common.Rect
	Tint  [4]float32
}

var (
	// ErrFrameInProgress is returned by BeginFrame while the previous frame was not presented.
	ErrFrameInProgress = errors.New("previous frame surface not yet presented")

	// ErrNoFrame is returned when a camera pass is started outside BeginFrame / Present.
	ErrNoFrame = errors.New("no frame acquired")
)

// WGPUBackend renders the billboard passes with WebGPU. It owns the device, the surface and
// every GPU resource the driver's draw commands need: one storage buffer holding the instance
// data of the whole frame, the camera and light uniforms, and one bind group per material.
type WGPUBackend struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        wgpu.TextureFormat
	width, height        int
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode          wgpu.PresentMode
	sampleCount          MSAASampleCount
	forceFallbackAdapter bool
	maxInstances         int

	// pipelines keyed by pipeline.Key*
	pipelines      map[string]pipeline.Pipeline
	shaderModule   *wgpu.ShaderModule
	frameLayout    *wgpu.BindGroupLayout
	materialLayout *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout

	frame           bind_group_provider.BindGroupProvider
	materials       map[uint64]bind_group_provider.BindGroupProvider
	defaultMaterial material.Material

	// per-frame state
	frameSurface  *wgpu.Texture
	frameView     *wgpu.TextureView
	encoder       *wgpu.CommandEncoder
	pass          *wgpu.RenderPassEncoder
	boundPipeline string
	boundMaterial uint64

	// instance ring, reset by BeginFrame
	instanceScratch []gpuInstance
	instanceOffset  int
	overflowLogged  bool

	cameraScratch  [cameraUniformSize]byte
	globalsScratch [globalsUniformSize]byte
}

var _ Backend = (*WGPUBackend)(nil)

// NewWGPUBackend creates the device for surfaceDescriptor, configures the surface at
// width x height and builds the billboard pipelines.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, usually from the window package
//   - width, height: the initial framebuffer size in pixels
//   - opts: backend options
//
// Returns:
//   - *WGPUBackend: the backend
//   - error: error if no adapter, device or pipeline could be created
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, opts ...BackendOption) (*WGPUBackend, error) {
	runtime.LockOSThread()
	b := &WGPUBackend{
		mu:              &sync.Mutex{},
		presentMode:     wgpu.PresentModeFifo,
		sampleCount:     MSAA4x,
		maxInstances:    DefaultMaxInstances,
		pipelines:       pipeline.Defaults(),
		materials:       make(map[uint64]bind_group_provider.BindGroupProvider),
		defaultMaterial: material.NewMaterial(material.WithName("default"), material.WithAlphaCutoff(0)),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Crowd Device",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	if err := b.ConfigureSurface(width, height); err != nil {
		return nil, err
	}
	if err := b.initLayouts(); err != nil {
		return nil, err
	}
	for _, key := range []string{pipeline.KeyBackground, pipeline.KeyDepthPrepass, pipeline.KeyMain, pipeline.KeyShadow} {
		p, ok := b.pipelines[key]
		if !ok {
			return nil, fmt.Errorf("missing pipeline %q", key)
		}
		if err := b.registerRenderPipeline(p); err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", key, err)
		}
	}
	b.instanceScratch = make([]gpuInstance, b.maxInstances)

	slog.Info("renderer: wgpu backend ready",
		"format", b.surfaceFormat,
		"msaa", int(b.sampleCount),
		"max_instances", b.maxInstances,
	)
	return b, nil
}

// ConfigureSurface (re)configures the swapchain and the MSAA and depth targets for a new size.
//
// Parameters:
//   - width, height: the framebuffer size in pixels
//
// Returns:
//   - error: error if a render target could not be created
func (b *WGPUBackend) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return nil
	}
	b.width, b.height = width, height

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseTargets()

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1
	if msaaEnabled {
		tex, view, err := b.createTarget("MSAA Texture", b.surfaceFormat, count)
		if err != nil {
			return err
		}
		b.msaaTexture, b.msaaTextureView = tex, view
	}
	tex, view, err := b.createTarget("Depth Texture", wgpu.TextureFormatDepth24Plus, count)
	if err != nil {
		return err
	}
	b.depthTexture, b.depthTextureView = tex, view

	// With MSAA the pass draws into the MSAA texture and resolves into the swapchain view set in
	// Clear; without it the swapchain view is the attachment itself.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    b.msaaTextureView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: storeOp,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	return nil
}

func (b *WGPUBackend) createTarget(label string, format wgpu.TextureFormat, samples uint32) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(b.width),
			Height:             uint32(b.height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("failed to create %s view: %w", label, err)
	}
	return tex, view, nil
}

func (b *WGPUBackend) releaseTargets() {
	for _, v := range []*wgpu.TextureView{b.msaaTextureView, b.depthTextureView} {
		if v != nil {
			v.Release()
		}
	}
	for _, t := range []*wgpu.Texture{b.msaaTexture, b.depthTexture} {
		if t != nil {
			t.Release()
		}
	}
	b.msaaTexture, b.msaaTextureView = nil, nil
	b.depthTexture, b.depthTextureView = nil, nil
}

// initLayouts creates the shader module, both bind group layouts and the frame resources.
func (b *WGPUBackend) initLayouts() error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "billboard.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: billboardShader,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to compile billboard shader: %w", err)
	}
	b.shaderModule = module

	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	b.frameLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Frame Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    bindingCamera,
				Visibility: visibility,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: cameraUniformSize},
			},
			{
				Binding:    bindingGlobals,
				Visibility: visibility,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: globalsUniformSize},
			},
			{
				Binding:    bindingInstances,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create frame bind group layout: %w", err)
	}

	b.materialLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Material Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    bindingTexture,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    bindingSampler,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
			{
				Binding:    bindingMaterial,
				Visibility: wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: materialUniformSize},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create material bind group layout: %w", err)
	}

	b.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Billboard Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.frameLayout, b.materialLayout},
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	b.frame = bind_group_provider.NewBindGroupProvider("Frame")
	sizes := map[int]uint64{
		bindingCamera:    cameraUniformSize,
		bindingGlobals:   globalsUniformSize,
		bindingInstances: uint64(b.maxInstances) * uint64(gpuInstanceSize),
	}
	usages := map[int]wgpu.BufferUsage{
		bindingCamera:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		bindingGlobals:   wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		bindingInstances: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	}
	entries := make([]wgpu.BindGroupEntry, 0, len(sizes))
	for _, binding := range []int{bindingCamera, bindingGlobals, bindingInstances} {
		buf, bufErr := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("Frame Buffer %d", binding),
			Size:  sizes[binding],
			Usage: usages[binding],
		})
		if bufErr != nil {
			return fmt.Errorf("failed to create frame buffer %d: %w", binding, bufErr)
		}
		b.frame.SetBuffer(binding, buf)
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(binding),
			Buffer:  buf,
			Size:    wgpu.WholeSize,
		})
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Frame Bind Group",
		Layout:  b.frameLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("failed to create frame bind group: %w", err)
	}
	b.frame.SetBindGroup(bg)

	// scenes without a light still need defined globals
	b.writeGlobals(light.Globals{Ambient: [3]float32{1, 1, 1}})
	return nil
}

var gpuInstanceSize = int(unsafe.Sizeof(gpuInstance{}))

func (b *WGPUBackend) registerRenderPipeline(p pipeline.Pipeline) error {
	target := wgpu.ColorTargetState{
		Format:    b.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: b.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     b.shaderModule,
			EntryPoint: p.VertexEntry(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     b.shaderModule,
			EntryPoint: p.FragmentEntry(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled:   p.DepthWriteEnabled(),
			DepthCompare:        p.DepthCompare(),
			DepthBias:           p.DepthBias(),
			DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return err
	}
	p.SetRenderPipeline(created)
	return nil
}

// materialGroup returns the cached bind group provider of m, creating its texture, sampler and
// uniform on first use.
func (b *WGPUBackend) materialGroup(m material.Material) (bind_group_provider.BindGroupProvider, error) {
	if m == nil {
		m = b.defaultMaterial
	}
	if p, ok := b.materials[m.ID()]; ok {
		return p, nil
	}

	p := bind_group_provider.NewBindGroupProvider("Material " + m.Name())
	staging := m.Texture()
	if staging == nil {
		staging = &common.TextureStagingData{Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1}
	}
	if err := b.initTextureView(p, bindingTexture, *staging); err != nil {
		p.Release()
		return nil, err
	}
	if err := b.initSampler(p, bindingSampler, m.Sampler()); err != nil {
		p.Release()
		return nil, err
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: p.Label() + " Uniform",
		Size:  materialUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	p.SetBuffer(bindingMaterial, buf)

	var params [materialUniformSize]byte
	c := m.BaseColor()
	for i := range 4 {
		binary.LittleEndian.PutUint32(params[i*4:], math.Float32bits(c[i]))
	}
	binary.LittleEndian.PutUint32(params[16:], math.Float32bits(m.AlphaCutoff()))
	b.queue.WriteBuffer(buf, 0, params[:])

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  p.Label() + " Bind Group",
		Layout: b.materialLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: bindingTexture, TextureView: p.TextureView(bindingTexture)},
			{Binding: bindingSampler, Sampler: p.Sampler(bindingSampler)},
			{Binding: bindingMaterial, Buffer: buf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	p.SetBindGroup(bg)

	b.materials[m.ID()] = p
	return p, nil
}

func (b *WGPUBackend) initTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	size := wgpu.Extent3D{
		Width:              stagingData.Width,
		Height:             stagingData.Height,
		DepthOrArrayLayers: 1,
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         provider.Label() + " Texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.Width * 4,
			RowsPerImage: stagingData.Height,
		},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTextureView(bindingKey, view, tex)
	return nil
}

func (b *WGPUBackend) initSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, s common.SamplerStagingData) error {
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " Sampler",
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, samp)
	return nil
}

// WriteBuffers writes staged data into provider buffers. Writes to missing buffers are skipped.
func (b *WGPUBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

// SetPresentMode changes the present mode; it takes effect at the next ConfigureSurface.
func (b *WGPUBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = presentMode(mode)
}

func presentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeUncapped:
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}

// BeginFrame implements Backend.
func (b *WGPUBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return ErrFrameInProgress
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.instanceOffset = 0
	return nil
}

// SetupCamera implements Backend.
func (b *WGPUBackend) SetupCamera(params CameraParams) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf := b.cameraScratch[:]
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(params.ViewProjection[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(params.Position[i]))
	}
	b.WriteBuffers([]bind_group_provider.BufferWrite{{Provider: b.frame, Binding: bindingCamera, Data: buf}})
}

// Clear implements Backend.
func (b *WGPUBackend) Clear(c [4]float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameView == nil {
		return ErrNoFrame
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}

	attachment := &b.renderPassDescriptor.ColorAttachments[0]
	if b.sampleCount > 1 {
		attachment.ResolveTarget = b.frameView
	} else {
		attachment.View = b.frameView
	}
	attachment.ClearValue = wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}

	b.encoder = encoder
	b.pass = encoder.BeginRenderPass(b.renderPassDescriptor)
	b.pass.SetBindGroup(0, b.frame.BindGroup(), nil)
	b.boundPipeline = ""
	b.boundMaterial = 0
	return nil
}

// SetLightGlobals implements Backend.
func (b *WGPUBackend) SetLightGlobals(g light.Globals) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeGlobals(g)
}

func (b *WGPUBackend) writeGlobals(g light.Globals) {
	buf := b.globalsScratch[:]
	put := func(off int, v [3]float32, w float32) {
		for i := range 3 {
			binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v[i]))
		}
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(w))
	}
	enabled := float32(0)
	if g.Enabled {
		enabled = 1
	}
	put(0, g.ToLight, 0)
	put(16, g.Color, enabled)
	put(32, g.Ambient, 1)
	b.WriteBuffers([]bind_group_provider.BufferWrite{{Provider: b.frame, Binding: bindingGlobals, Data: buf}})
}

// Draw implements Backend.
func (b *WGPUBackend) Draw(cmd *DrawCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass == nil {
		return
	}
	n := cmd.InstanceCount()
	if n == 0 {
		return
	}
	if b.instanceOffset+n > b.maxInstances {
		if !b.overflowLogged {
			slog.Warn("renderer: instance storage full, dropping draws", "command", cmd.Label, "max_instances", b.maxInstances)
			b.overflowLogged = true
		}
		return
	}

	p, ok := b.pipelines[cmd.Pass.PipelineKey()]
	if !ok || p.RenderPipeline() == nil {
		return
	}
	group, err := b.materialGroup(cmd.Material)
	if err != nil {
		slog.Error("renderer: failed to create material resources", "command", cmd.Label, "error", err)
		return
	}

	tint := cmd.Tint
	if tint == ([4]float32{}) {
		tint = [4]float32{1, 1, 1, 1}
	}
	first := b.instanceOffset
	dst := b.instanceScratch[first : first+n]
	for i := range dst {
		dst[i].Model = cmd.Transforms[i]
		dst[i].Rect = common.Rect{W: 1, H: 1}
		if i < len(cmd.Rects) {
			dst[i].Rect = cmd.Rects[i]
		}
		dst[i].Tint = tint
	}
	b.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: b.frame,
		Binding:  bindingInstances,
		Offset:   uint64(first * gpuInstanceSize),
		Data:     common.SliceToBytes(dst),
	}})
	b.instanceOffset += n

	if b.boundPipeline != p.PipelineKey() {
		b.pass.SetPipeline(p.RenderPipeline())
		b.boundPipeline = p.PipelineKey()
	}
	id := b.defaultMaterial.ID()
	if cmd.Material != nil {
		id = cmd.Material.ID()
	}
	if b.boundMaterial != id {
		b.pass.SetBindGroup(1, group.BindGroup(), nil)
		b.boundMaterial = id
	}
	b.pass.Draw(quadVertexCount, uint32(n), 0, uint32(first))
}

// Submit implements Backend.
func (b *WGPUBackend) Submit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass == nil {
		return ErrNoFrame
	}
	b.pass.End()
	b.pass = nil

	commandBuffer, err := b.encoder.Finish(nil)
	b.encoder.Release()
	b.encoder = nil
	if err != nil {
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

// Present implements Backend.
func (b *WGPUBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.frameView.Release()
	b.frameView = nil
	b.frameSurface.Release()
	b.frameSurface = nil
}

// Size returns the configured framebuffer size.
func (b *WGPUBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Release frees every GPU resource. The backend cannot be used afterwards.
func (b *WGPUBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, p := range b.materials {
		p.Release()
		delete(b.materials, id)
	}
	if b.frame != nil {
		b.frame.Release()
	}
	for _, p := range b.pipelines {
		if rp := p.RenderPipeline(); rp != nil {
			rp.Release()
			p.SetRenderPipeline(nil)
		}
	}
	if b.pipelineLayout != nil {
		b.pipelineLayout.Release()
	}
	if b.frameLayout != nil {
		b.frameLayout.Release()
	}
	if b.materialLayout != nil {
		b.materialLayout.Release()
	}
	if b.shaderModule != nil {
		b.shaderModule.Release()
	}
	b.releaseTargets()
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}
