package bitproto

// BufferSource selects where a Protocol's working buffer comes from.
type BufferSource uint8

const (
	// BufferInternal means the Protocol owns and grows its own buffer,
	// sized to exactly fit the current field layout.
	BufferInternal BufferSource = iota
	// BufferExternal means the Protocol operates on a caller-supplied
	// buffer it does not own; the caller is responsible for sizing it
	// large enough to hold the current layout.
	BufferExternal
)

func (b BufferSource) String() string {
	if b == BufferExternal {
		return "external"
	}
	return "internal"
}

// bufferBitCount returns the number of bits spanned by the last field in
// the layout, i.e. the minimum buffer size the layout requires.
func bufferBitCount(fields []FieldMetadata) uint32 {
	if len(fields) == 0 {
		return 0
	}
	last := fields[len(fields)-1]
	return last.FirstBitInd + last.BitCount
}

func bufferByteCount(bits uint32) uint32 {
	n := bits / 8
	if bits%8 != 0 {
		n++
	}
	return n
}

// WorkingBuffer returns the buffer a Protocol is currently reading and
// writing through: the internal buffer if BufferSource is BufferInternal,
// or the external buffer otherwise.
func (p *Protocol) WorkingBuffer() []byte {
	if p.source == BufferExternal {
		return p.external
	}
	return p.internal
}

// InternalBuffer returns the owned buffer, regardless of which buffer is
// currently active as the working buffer.
func (p *Protocol) InternalBuffer() []byte {
	return p.internal
}

// ExternalBuffer returns the borrowed buffer, regardless of which buffer
// is currently active as the working buffer. It is nil if one was never
// set.
func (p *Protocol) ExternalBuffer() []byte {
	return p.external
}

// SetExternalBuffer installs buf as the borrowed buffer. It does not by
// itself switch the active buffer source; call SetBufferSource(BufferExternal)
// to start reading/writing through buf.
func (p *Protocol) SetExternalBuffer(buf []byte) {
	p.external = buf
}

// BufferSource returns which buffer is currently active.
func (p *Protocol) BufferSource() BufferSource {
	return p.source
}

// SetBufferSource switches which buffer is active for subsequent reads
// and writes.
func (p *Protocol) SetBufferSource(src BufferSource) {
	p.source = src
}

// ClearWorkingBuffer zeroes bytes 0..internal_buffer_length of the
// currently active buffer without altering the field layout. An external
// buffer may be larger than the layout needs (the caller owns it and may
// be using the tail for something else), so only the bytes the layout
// actually spans are cleared, not the whole slice.
func (p *Protocol) ClearWorkingBuffer() {
	buf := p.WorkingBuffer()
	n := int(bufferByteCount(bufferBitCount(p.fieldsMeta())))
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n; i++ {
		buf[i] = 0
	}
}

// SetInternalBufferValues overwrites the owned buffer's contents with src,
// copying at most min(len(src), len(internal)) bytes.
func (p *Protocol) SetInternalBufferValues(src []byte) {
	n := copy(p.internal, src)
	_ = n
}

// fieldBytes returns the slice of the working buffer touched by a field,
// i.e. buf[meta.FirstByteInd : meta.LastByteInd+1].
func (p *Protocol) fieldBytes(meta FieldMetadata) ([]byte, ResultCode) {
	buf := p.WorkingBuffer()
	end := int(meta.LastByteInd) + 1
	if end > len(buf) {
		return nil, ResultBadInput
	}
	return buf[meta.FirstByteInd:end], ResultOk
}

// reallocateInternalBuffer drops the owned buffer and allocates a fresh,
// zeroed one exactly sized for the current layout.
func (p *Protocol) reallocateInternalBuffer() {
	bits := bufferBitCount(p.fieldsMeta())
	p.internal = make([]byte, bufferByteCount(bits))
}

// updateInternalBuffer reallocates the owned buffer to fit the current
// layout, preserving as many leading bytes of the previous contents as
// still fit.
func (p *Protocol) updateInternalBuffer() {
	old := p.internal
	p.reallocateInternalBuffer()
	copy(p.internal, old)
}
