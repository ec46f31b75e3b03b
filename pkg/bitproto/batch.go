package bitproto

import (
	"bufio"
	"io"
	"sync"
)

// Every Protocol layout has a statically known BufferLength, so a stream
// of records for that layout never needs the varint length prefixing a
// self-describing wire format would: each record is exactly
// p.BufferLength() bytes, back to back.

// BatchWriter writes a sequence of fixed-size records, all belonging to
// the same Protocol layout, to an io.Writer. It buffers writes for
// efficiency and is safe for use from a single goroutine, not from
// multiple concurrently.
type BatchWriter struct {
	w          *bufio.Writer
	recordSize int
	err        error
	closed     bool
}

var batchWriterPool = sync.Pool{
	New: func() any { return &BatchWriter{} },
}

// NewBatchWriter creates a BatchWriter that writes recordSize-byte
// records to w, using a 4096-byte internal buffer.
func NewBatchWriter(w io.Writer, recordSize int) *BatchWriter {
	return NewBatchWriterSize(w, recordSize, 4096)
}

// NewBatchWriterSize is like NewBatchWriter with an explicit buffer size.
func NewBatchWriterSize(w io.Writer, recordSize, bufSize int) *BatchWriter {
	return &BatchWriter{w: bufio.NewWriterSize(w, bufSize), recordSize: recordSize}
}

// GetBatchWriter gets a pooled BatchWriter writing recordSize-byte
// records to w. Call PutBatchWriter to return it when done.
func GetBatchWriter(w io.Writer, recordSize int) *BatchWriter {
	bw := batchWriterPool.Get().(*BatchWriter)
	bw.Reset(w, recordSize)
	return bw
}

// PutBatchWriter returns bw to the pool.
func PutBatchWriter(bw *BatchWriter) {
	if bw == nil {
		return
	}
	bw.w = nil
	batchWriterPool.Put(bw)
}

// Reset reconfigures bw to write recordSize-byte records to a new
// io.Writer, clearing any prior error.
func (bw *BatchWriter) Reset(w io.Writer, recordSize int) {
	if bw.w == nil {
		bw.w = bufio.NewWriterSize(w, 4096)
	} else {
		bw.w.Reset(w)
	}
	bw.recordSize = recordSize
	bw.err = nil
	bw.closed = false
}

// Err returns the first error encountered, if any.
func (bw *BatchWriter) Err() error { return bw.err }

// Flush writes any buffered data to the underlying writer.
func (bw *BatchWriter) Flush() error {
	if bw.err != nil {
		return bw.err
	}
	if err := bw.w.Flush(); err != nil {
		bw.err = err
	}
	return bw.err
}

// Close flushes and marks bw closed. The underlying io.Writer is not
// closed.
func (bw *BatchWriter) Close() error {
	if bw.closed {
		return nil
	}
	bw.closed = true
	return bw.Flush()
}

// WriteRecord writes one record. rec must be exactly recordSize bytes,
// or ErrShortBuffer is recorded and returned.
func (bw *BatchWriter) WriteRecord(rec []byte) error {
	if bw.err != nil {
		return bw.err
	}
	if bw.closed {
		bw.err = ErrShortBuffer
		return bw.err
	}
	if len(rec) != bw.recordSize {
		bw.err = WrapError(ErrShortBuffer, "record length mismatch")
		return bw.err
	}
	if _, err := bw.w.Write(rec); err != nil {
		bw.err = err
	}
	return bw.err
}

// WriteProtocol writes p's current working buffer as one record. p's
// BufferLength must equal bw's configured recordSize.
func (bw *BatchWriter) WriteProtocol(p *Protocol) error {
	return bw.WriteRecord(p.WorkingBuffer())
}

// BatchReader reads a sequence of fixed-size records from an io.Reader.
// It buffers reads for efficiency and is safe for use from a single
// goroutine, not from multiple concurrently.
type BatchReader struct {
	r          *bufio.Reader
	recordSize int
	maxRecords int
	count      int
	err        error
}

var batchReaderPool = sync.Pool{
	New: func() any { return &BatchReader{} },
}

// NewBatchReader creates a BatchReader reading recordSize-byte records
// from r, with no limit on the number of records.
func NewBatchReader(r io.Reader, recordSize int) *BatchReader {
	return NewBatchReaderSize(r, recordSize, 4096)
}

// NewBatchReaderSize is like NewBatchReader with an explicit buffer
// size.
func NewBatchReaderSize(r io.Reader, recordSize, bufSize int) *BatchReader {
	return &BatchReader{r: bufio.NewReaderSize(r, bufSize), recordSize: recordSize}
}

// GetBatchReader gets a pooled BatchReader reading recordSize-byte
// records from r. Call PutBatchReader to return it when done.
func GetBatchReader(r io.Reader, recordSize int) *BatchReader {
	br := batchReaderPool.Get().(*BatchReader)
	br.Reset(r, recordSize)
	return br
}

// PutBatchReader returns br to the pool.
func PutBatchReader(br *BatchReader) {
	if br == nil {
		return
	}
	br.r = nil
	batchReaderPool.Put(br)
}

// Reset reconfigures br to read recordSize-byte records from a new
// io.Reader, clearing any prior error and record count.
func (br *BatchReader) Reset(r io.Reader, recordSize int) {
	if br.r == nil {
		br.r = bufio.NewReaderSize(r, 4096)
	} else {
		br.r.Reset(r)
	}
	br.recordSize = recordSize
	br.count = 0
	br.err = nil
}

// SetMaxRecords bounds the number of records ReadRecord will decode
// before returning ErrMaxRecordsExceeded; zero (the default) means
// unbounded.
func (br *BatchReader) SetMaxRecords(n int) { br.maxRecords = n }

// Err returns the first error encountered, if any. io.EOF is not stored
// here: a clean end of stream is reported only through ReadRecord's own
// return value.
func (br *BatchReader) Err() error { return br.err }

// ReadRecord reads one recordSize-byte record. It returns (rec, nil) on
// success, (nil, io.EOF) on a clean end of stream (zero bytes read
// before the record boundary), or (nil, err) otherwise — including
// io.ErrUnexpectedEOF if the stream ends mid-record.
func (br *BatchReader) ReadRecord() ([]byte, error) {
	if br.err != nil {
		return nil, br.err
	}
	if br.maxRecords > 0 && br.count >= br.maxRecords {
		br.err = ErrMaxRecordsExceeded
		return nil, br.err
	}

	buf := getPooledBuffer(br.recordSize)
	buf = buf[:br.recordSize]
	n, err := io.ReadFull(br.r, buf)
	if err != nil {
		putPooledBuffer(buf)
		if err == io.EOF && n == 0 {
			return nil, io.EOF
		}
		br.err = err
		return nil, err
	}
	br.count++
	return buf, nil
}

// ReadInto reads one record directly into p's internal buffer via
// SetInternalBufferValues, mirroring ReadRecord but avoiding a copy out
// to the caller. p's BufferLength must equal br's configured
// recordSize.
func (br *BatchReader) ReadInto(p *Protocol) error {
	rec, err := br.ReadRecord()
	if err != nil {
		return err
	}
	p.SetInternalBufferValues(rec)
	putPooledBuffer(rec)
	return nil
}

// ReadAll reads every remaining record into a single slice, stopping at
// a clean EOF or at maxRecords if positive. It returns whatever
// non-EOF error ReadRecord produced, if any.
func ReadAll(r io.Reader, recordSize, maxRecords int) ([][]byte, error) {
	br := NewBatchReader(r, recordSize)
	br.SetMaxRecords(maxRecords)

	var out [][]byte
	for {
		rec, err := br.ReadRecord()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		cp := make([]byte, len(rec))
		copy(cp, rec)
		putPooledBuffer(rec)
		out = append(out, cp)
	}
}

// WriteRecords writes every record in recs to w as a contiguous,
// unframed sequence of recordSize-byte records, flushing at the end.
func WriteRecords(w io.Writer, recordSize int, recs [][]byte) error {
	bw := NewBatchWriter(w, recordSize)
	for _, rec := range recs {
		if err := bw.WriteRecord(rec); err != nil {
			return err
		}
	}
	return bw.Close()
}
