package bitproto

// WriteArray writes each value in vs into the named field's own bit
// range, as if the field were actually len(vs) repetitions of an equal-
// width element back to back. The per-element width is derived from the
// field's own BitCount divided by len(vs); it returns ResultBadInput for
// an empty vs and ResultNotApplicable when BitCount doesn't divide
// evenly by len(vs), rather than letting a caller-chosen width over- or
// under-fill the field. It stops and returns the first non-ok ResultCode
// encountered (including one caused by running past the buffer), leaving
// every element up to that point already written — array writes are not
// all-or-nothing.
func WriteArray[T Scalar](p *Protocol, name string, vis VisType, vs []T) ResultCode {
	meta, rc := p.FieldMetadataOf(name)
	if !rc.Ok() {
		return rc
	}
	n := uint32(len(vs))
	if n == 0 {
		return ResultBadInput
	}
	if meta.BitCount%n != 0 {
		return ResultNotApplicable
	}
	return WriteGhostArray(p, meta.FirstBitInd, meta.BitCount/n, vis, vs)
}

// ReadArray reads count elements out of the named field's own bit range,
// mirroring WriteArray: the per-element width is BitCount/count, and it
// returns ResultBadInput for count == 0 or ResultNotApplicable when
// BitCount doesn't divide evenly by count.
func ReadArray[T Scalar](p *Protocol, name string, vis VisType, count int) ([]T, ResultCode) {
	meta, rc := p.FieldMetadataOf(name)
	if !rc.Ok() {
		return nil, rc
	}
	if count <= 0 {
		return nil, ResultBadInput
	}
	n := uint32(count)
	if meta.BitCount%n != 0 {
		return nil, ResultNotApplicable
	}
	return ReadGhostArray[T](p, meta.FirstBitInd, meta.BitCount/n, vis, count)
}

// WriteGhostArray writes each value in vs into bitCount-wide consecutive
// slots starting at firstBitInd, with no dependency on any named field.
func WriteGhostArray[T Scalar](p *Protocol, firstBitInd, elemBitCount uint32, vis VisType, vs []T) ResultCode {
	if elemBitCount == 0 || elemBitCount > 64 {
		return ResultBadInput
	}
	for i, v := range vs {
		off := firstBitInd + uint32(i)*elemBitCount
		if rc := WriteGhost(p, off, elemBitCount, vis, v); !rc.Ok() {
			return rc
		}
	}
	return ResultOk
}

// ReadGhostArray reads count bitCount-wide consecutive elements starting
// at firstBitInd, with no dependency on any named field.
func ReadGhostArray[T Scalar](p *Protocol, firstBitInd, elemBitCount uint32, vis VisType, count int) ([]T, ResultCode) {
	if elemBitCount == 0 || elemBitCount > 64 {
		return nil, ResultBadInput
	}
	out := make([]T, 0, count)
	for i := 0; i < count; i++ {
		off := firstBitInd + uint32(i)*elemBitCount
		v, rc := ReadGhost[T](p, off, elemBitCount, vis)
		if !rc.Ok() {
			return out, rc
		}
		out = append(out, v)
	}
	return out, ResultOk
}
