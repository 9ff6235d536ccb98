package bind_group_provider

import "testing"

func TestNewBindGroupProviderIsEmpty(t *testing.T) {
	p := NewBindGroupProvider("frame")
	if p.Label() != "frame" {
		t.Errorf("Label() = %q, want %q", p.Label(), "frame")
	}
	if p.BindGroup() != nil || p.Buffer(0) != nil || p.TextureView(0) != nil || p.Sampler(1) != nil {
		t.Errorf("new provider holds GPU resources")
	}
	// nothing allocated, so Release must be a no-op
	p.Release()
	p.Release()
}

func TestBufferWriteSize(t *testing.T) {
	w := BufferWrite{Binding: 2, Offset: 96, Data: make([]byte, 80)}
	if w.Size() != 80 {
		t.Errorf("Size() = %d, want 80", w.Size())
	}
}
