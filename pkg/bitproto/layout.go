package bitproto

// AppendField adds a new field to the end of the layout, placing it
// immediately after the current last field (or at bit 0, if the layout is
// currently empty), then grows the owned buffer to fit. If preserve is
// true, the owned buffer's existing contents are copied into the grown
// buffer; if false, the new buffer is left zeroed and any previous
// contents are discarded. It has no effect on the external buffer, which
// remains the caller's responsibility to size.
//
// It returns ResultBadInput if name is empty, already in use, the bit
// count is zero, or the bit count does not match a floating-point field's
// required width (32 or 64). A field wider than 64 bits is accepted, so it
// can hold an array (see WriteArray); it cannot be read or written as a
// single scalar.
func (p *Protocol) AppendField(field FieldInit, preserve bool) ResultCode {
	if field.Name == "" {
		return ResultBadInput
	}
	if _, exists := p.meta[field.Name]; exists {
		return ResultBadInput
	}
	if field.BitCount == 0 {
		return ResultBadInput
	}
	if field.VisType == VisFloatingPoint && field.BitCount != 32 && field.BitCount != 64 {
		return ResultBadInput
	}

	var firstBitInd uint32
	if n := len(p.names); n > 0 {
		last := p.meta[p.names[n-1]]
		firstBitInd = last.FirstBitInd + last.BitCount
	}

	m := newFieldMetadata(field.Name, firstBitInd, field.BitCount, field.VisType)
	p.names = append(p.names, field.Name)
	p.meta[field.Name] = m

	if preserve {
		p.updateInternalBuffer()
	} else {
		p.reallocateInternalBuffer()
	}
	return ResultOk
}

// AppendProtocol appends every field in fields, in order, as if by
// repeated AppendField calls, but validates that every name is non-empty
// and unique (both within fields and against the existing layout) before
// appending any of them — a partially-applied append never happens. The
// buffer is grown once, after all fields are placed, preserving existing
// contents.
func (p *Protocol) AppendProtocol(fields []FieldInit) ResultCode {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return ResultBadInput
		}
		if _, exists := p.meta[f.Name]; exists {
			return ResultBadInput
		}
		if _, dup := seen[f.Name]; dup {
			return ResultBadInput
		}
		if f.BitCount == 0 {
			return ResultBadInput
		}
		if f.VisType == VisFloatingPoint && f.BitCount != 32 && f.BitCount != 64 {
			return ResultBadInput
		}
		seen[f.Name] = struct{}{}
	}

	for _, f := range fields {
		var firstBitInd uint32
		if n := len(p.names); n > 0 {
			last := p.meta[p.names[n-1]]
			firstBitInd = last.FirstBitInd + last.BitCount
		}
		m := newFieldMetadata(f.Name, firstBitInd, f.BitCount, f.VisType)
		p.names = append(p.names, f.Name)
		p.meta[f.Name] = m
	}
	p.updateInternalBuffer()
	return ResultOk
}

// RemoveField removes the named field from the layout and shrinks the
// owned buffer to fit. Every field that came after the removed one has its
// FirstBitInd (and every value FieldMetadata derives from it) shifted down
// by the removed field's bit count, so the layout remains contiguous with
// no gap left where the field used to be.
func (p *Protocol) RemoveField(name string) ResultCode {
	removed, ok := p.meta[name]
	if !ok {
		return ResultFieldNotFound
	}

	idx := -1
	for i, n := range p.names {
		if n == name {
			idx = i
			break
		}
	}

	for _, n := range p.names[idx+1:] {
		m := p.meta[n]
		m = newFieldMetadata(m.Name, m.FirstBitInd-removed.BitCount, m.BitCount, m.VisType)
		p.meta[n] = m
	}

	p.names = append(p.names[:idx], p.names[idx+1:]...)
	delete(p.meta, name)

	p.updateInternalBuffer()
	return ResultOk
}

// RemoveLastField removes the layout's last field, if any, and shrinks the
// owned buffer to fit.
func (p *Protocol) RemoveLastField() ResultCode {
	if len(p.names) == 0 {
		return ResultFieldNotFound
	}
	return p.RemoveField(p.names[len(p.names)-1])
}

// ClearProtocol removes every field from the layout and frees the owned
// buffer (it becomes a zero-length slice, not nil discarded along with
// still-allocated memory).
func (p *Protocol) ClearProtocol() {
	p.names = nil
	p.meta = make(map[string]FieldMetadata)
	p.internal = make([]byte, 0)
}
