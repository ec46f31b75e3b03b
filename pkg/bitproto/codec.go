package bitproto

import "math"

// Scalar is the set of Go types the codec can write to and read from a
// bit-granular field. Every in-range value of every listed type round-
// trips exactly: WriteGhost followed by ReadGhost (or Write/Read on the
// same field) reproduces the original value bit-for-bit, including -0.0
// and every NaN payload for the float types.
type Scalar interface {
	int8 | int16 | int32 | int64 | int |
		uint8 | uint16 | uint32 | uint64 | uint |
		float32 | float64
}

// maxTouchedBytes bounds the scratch needed by any single scalar
// operation: a 64-bit field starting at the worst-case sub-byte offset
// (leftSpacing up to 7) touches at most 9 bytes.
const maxTouchedBytes = 9

func lowBitsMask(bitCount uint32) uint64 {
	if bitCount >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bitCount) - 1
}

func signExtend(raw uint64, bitCount uint32) int64 {
	if bitCount >= 64 {
		return int64(raw)
	}
	if raw&(uint64(1)<<(bitCount-1)) != 0 {
		raw |= ^uint64(0) << bitCount
	}
	return int64(raw)
}

func signedRange(bitCount uint32) (lo, hi int64) {
	if bitCount >= 64 {
		return math.MinInt64, math.MaxInt64
	}
	hi = int64(1)<<(bitCount-1) - 1
	lo = -hi - 1
	return lo, hi
}

func toInt64[T Scalar](v T) int64 {
	switch x := any(v).(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case int:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case uint:
		return int64(x)
	default:
		return 0
	}
}

func toUint64[T Scalar](v T) uint64 {
	switch x := any(v).(type) {
	case int8:
		return uint64(int64(x))
	case int16:
		return uint64(int64(x))
	case int32:
		return uint64(int64(x))
	case int64:
		return uint64(x)
	case int:
		return uint64(int64(x))
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	case uint:
		return uint64(x)
	default:
		return 0
	}
}

// scalarToRaw converts v into the unsigned bit pattern that belongs in the
// low bitCount bits of the field, validating that v actually fits in
// bitCount bits under vis.
func scalarToRaw[T Scalar](v T, bitCount uint32, vis VisType) (uint64, ResultCode) {
	switch vis {
	case VisFloatingPoint:
		switch x := any(v).(type) {
		case float32:
			if bitCount != 32 {
				return 0, ResultBadInput
			}
			return uint64(math.Float32bits(x)), ResultOk
		case float64:
			if bitCount != 64 {
				return 0, ResultBadInput
			}
			return math.Float64bits(x), ResultOk
		default:
			return 0, ResultBadInput
		}
	case VisSignedInteger:
		lo, hi := signedRange(bitCount)
		i64 := toInt64(v)
		if i64 < lo || i64 > hi {
			return 0, ResultBadInput
		}
		return uint64(i64) & lowBitsMask(bitCount), ResultOk
	case VisUnsignedInteger:
		u64 := toUint64(v)
		if bitCount < 64 && u64 > lowBitsMask(bitCount) {
			return 0, ResultBadInput
		}
		return u64 & lowBitsMask(bitCount), ResultOk
	default:
		return 0, ResultBadInput
	}
}

// rawToScalar converts the unsigned bit pattern read from the buffer back
// into a T, sign-extending first when vis is VisSignedInteger.
func rawToScalar[T Scalar](raw uint64, bitCount uint32, vis VisType) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(math.Float32frombits(uint32(raw))).(T)
	case float64:
		return any(math.Float64frombits(raw)).(T)
	}

	var signed int64
	if vis == VisSignedInteger {
		signed = signExtend(raw, bitCount)
	} else {
		signed = int64(raw)
	}

	switch any(zero).(type) {
	case int8:
		return any(int8(signed)).(T)
	case int16:
		return any(int16(signed)).(T)
	case int32:
		return any(int32(signed)).(T)
	case int64:
		return any(signed).(T)
	case int:
		return any(int(signed)).(T)
	case uint8:
		return any(uint8(raw)).(T)
	case uint16:
		return any(uint16(raw)).(T)
	case uint32:
		return any(uint32(raw)).(T)
	case uint64:
		return any(raw).(T)
	case uint:
		return any(uint(raw)).(T)
	default:
		return zero
	}
}

// writeRaw packs the low bitCount bits of raw into buf at the position
// described by meta, merging with the untouched bits of the first and
// last touched bytes. When littleEndian is true, the field's BytesCount
// logical bytes are stored in reverse order; little-endian is accepted
// only for fields of at most 8 bits or a whole number of bytes, and any
// other width returns ResultNotApplicable.
func writeRaw(buf []byte, meta FieldMetadata, raw uint64, littleEndian bool) ResultCode {
	if int(meta.LastByteInd) >= len(buf) {
		return ResultBadInput
	}
	if littleEndian && meta.BitCount > 8 && meta.BitCount%8 != 0 {
		return ResultNotApplicable
	}

	dst := buf[meta.FirstByteInd : meta.LastByteInd+1]

	// Fast path: fully byte-aligned field, no cross-byte merge needed.
	if meta.LeftSpacing == 0 && meta.BitCount%8 == 0 {
		var valBytes [8]byte
		for i := 7; i >= 0; i-- {
			valBytes[i] = byte(raw)
			raw >>= 8
		}
		src := valBytes[8-meta.BytesCount:]
		if littleEndian {
			reverseBytes(src)
		}
		copy(dst, src)
		return ResultOk
	}

	var scratch [maxTouchedBytes]byte
	span := scratch[:meta.TouchedBytesCount]
	for i := range span {
		span[i] = 0
	}

	var valBytes [8]byte
	v := raw
	for i := 7; i >= 0; i-- {
		valBytes[i] = byte(v)
		v >>= 8
	}
	logical := valBytes[8-meta.BytesCount:]
	if littleEndian {
		reversed := make([]byte, len(logical))
		copy(reversed, logical)
		reverseBytes(reversed)
		logical = reversed
	}
	copy(span[meta.TouchedBytesCount-meta.BytesCount:], logical)

	shiftLeft(span, uint(meta.RightSpacing))

	if meta.TouchedBytesCount == 1 {
		dst[0] = (dst[0] &^ meta.FirstByteMask) | (span[0] & meta.FirstByteMask)
		return ResultOk
	}

	dst[0] = (dst[0] &^ meta.FirstByteMask) | (span[0] & meta.FirstByteMask)
	last := meta.TouchedBytesCount - 1
	for i := uint32(1); i < last; i++ {
		dst[i] = span[i]
	}
	dst[last] = (dst[last] &^ meta.LastByteMask) | (span[last] & meta.LastByteMask)
	return ResultOk
}

// readRaw extracts the bitCount-bit field described by meta from buf,
// returning it right-aligned as the low bits of a uint64.
func readRaw(buf []byte, meta FieldMetadata, littleEndian bool) (uint64, ResultCode) {
	if int(meta.LastByteInd) >= len(buf) {
		return 0, ResultBadInput
	}
	if littleEndian && meta.BitCount > 8 && meta.BitCount%8 != 0 {
		return 0, ResultNotApplicable
	}

	src := buf[meta.FirstByteInd : meta.LastByteInd+1]

	if meta.LeftSpacing == 0 && meta.BitCount%8 == 0 {
		var tmp [8]byte
		logical := tmp[8-meta.BytesCount:]
		copy(logical, src)
		if littleEndian {
			reverseBytes(logical)
		}
		var raw uint64
		for _, b := range logical {
			raw = raw<<8 | uint64(b)
		}
		return raw, ResultOk
	}

	var scratch [maxTouchedBytes]byte
	span := scratch[:meta.TouchedBytesCount]
	copy(span, src)

	if meta.TouchedBytesCount == 1 {
		span[0] &= meta.FirstByteMask
	} else {
		span[0] &= meta.FirstByteMask
		span[meta.TouchedBytesCount-1] &= meta.LastByteMask
	}

	shiftRight(span, uint(meta.RightSpacing))

	logical := span[meta.TouchedBytesCount-meta.BytesCount:]
	if littleEndian {
		reversed := make([]byte, len(logical))
		copy(reversed, logical)
		reverseBytes(reversed)
		logical = reversed
	}

	var raw uint64
	for _, b := range logical {
		raw = raw<<8 | uint64(b)
	}
	return raw & lowBitsMask(meta.BitCount), ResultOk
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// Write stores v into the named field of p's working buffer.
func Write[T Scalar](p *Protocol, name string, v T) ResultCode {
	meta, rc := p.FieldMetadataOf(name)
	if !rc.Ok() {
		return rc
	}
	return writeScalar(p, meta, v)
}

// Read loads the named field out of p's working buffer.
func Read[T Scalar](p *Protocol, name string) (T, ResultCode) {
	var zero T
	meta, rc := p.FieldMetadataOf(name)
	if !rc.Ok() {
		return zero, rc
	}
	return readScalar[T](p, meta)
}

func writeScalar[T Scalar](p *Protocol, meta FieldMetadata, v T) ResultCode {
	if meta.BitCount > 64 {
		return ResultNotApplicable
	}
	raw, rc := scalarToRaw(v, meta.BitCount, meta.VisType)
	if !rc.Ok() {
		return rc
	}
	return writeRaw(p.WorkingBuffer(), meta, raw, p.isLittleEndian)
}

func readScalar[T Scalar](p *Protocol, meta FieldMetadata) (T, ResultCode) {
	var zero T
	if meta.BitCount > 64 {
		return zero, ResultNotApplicable
	}
	raw, rc := readRaw(p.WorkingBuffer(), meta, p.isLittleEndian)
	if !rc.Ok() {
		return zero, rc
	}
	return rawToScalar[T](raw, meta.BitCount, meta.VisType), ResultOk
}

// WriteGhost stores v at an ad-hoc bit range that need not correspond to
// any field in the layout. firstBitInd and bitCount are interpreted
// against the working buffer directly.
func WriteGhost[T Scalar](p *Protocol, firstBitInd, bitCount uint32, vis VisType, v T) ResultCode {
	if bitCount == 0 || bitCount > 64 {
		return ResultBadInput
	}
	meta := newFieldMetadata("", firstBitInd, bitCount, vis)
	return writeScalar(p, meta, v)
}

// ReadGhost loads a value from an ad-hoc bit range, symmetric with
// WriteGhost.
func ReadGhost[T Scalar](p *Protocol, firstBitInd, bitCount uint32, vis VisType) (T, ResultCode) {
	var zero T
	if bitCount == 0 || bitCount > 64 {
		return zero, ResultBadInput
	}
	meta := newFieldMetadata("", firstBitInd, bitCount, vis)
	return readScalar[T](p, meta)
}
