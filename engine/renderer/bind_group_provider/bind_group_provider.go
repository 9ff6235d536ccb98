package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label, also used to name the GPU objects created for the provider.
	label string

	// GPU resources, created by the renderer backend and released together.
	bindGroup    *wgpu.BindGroup
	buffers      map[int]*wgpu.Buffer
	textureViews map[int]*wgpu.TextureView
	samplers     map[int]*wgpu.Sampler

	// textures are owned by the provider when the backend created them for a texture view.
	textures []*wgpu.Texture
}

// BindGroupProvider owns the GPU resources bound at one bind group slot: the billboard frame
// group (camera, light globals, instance storage) or one material group (texture, sampler,
// material uniform). The backend creates the resources, stores them here and sets the bind
// group on the render pass when a draw needs it.
type BindGroupProvider interface {
	// Label returns the debug label.
	Label() string

	// BindGroup returns the bind group, or nil before the backend built it.
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer at binding, or nil.
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the texture view at binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler at binding, or nil.
	Sampler(binding int) *wgpu.Sampler

	// SetBindGroup replaces the bind group, releasing the previous one.
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBuffer stores buf at binding.
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTextureView stores tv at binding. tex, when non-nil, is released with the provider.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view
	//   - tex: the texture behind tv if the provider owns it
	SetTextureView(binding int, tv *wgpu.TextureView, tex *wgpu.Texture)

	// SetSampler stores s at binding.
	SetSampler(binding int, s *wgpu.Sampler)

	// Release releases every GPU resource held by the provider. The provider can be filled again
	// afterwards.
	Release()
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider labelled label.
func NewBindGroupProvider(label string) BindGroupProvider {
	return &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView, tex *wgpu.Texture) {
	p.textureViews[binding] = tv
	if tex != nil {
		p.textures = append(p.textures, tex)
	}
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	for i, tv := range p.textureViews {
		if tv != nil {
			tv.Release()
		}
		delete(p.textureViews, i)
	}
	for i, s := range p.samplers {
		if s != nil {
			s.Release()
		}
		delete(p.samplers, i)
	}
	for _, tex := range p.textures {
		tex.Release()
	}
	p.textures = nil
}
