package bind_group_provider

// BufferWrite describes one queued write into the buffer at Binding of Provider.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Size returns the number of bytes written.
func (w BufferWrite) Size() int {
	return len(w.Data)
}
