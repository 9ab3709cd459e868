package amr

import (
	"fmt"
	"io"

	"github.com/zsiec/amrx/internal/source"
)

// walkFrame reads the single header byte at offset and resolves the size of
// the frame starting there. It returns the frame's stored size, whether the
// frame belongs to a no-data class, and the offset of the next frame header.
// The payload is never read; the header byte alone determines the size.
//
// io.EOF reports a clean end of stream (no byte at offset). A reserved frame
// type wraps errInvalidFrameType; a frame whose declared size overruns the
// source wraps errTruncatedFrame. Both carry the offending offset.
func walkFrame(src source.Source, v Variant, offset int64) (size int, noData bool, next int64, err error) {
	if offset >= src.Size() {
		return 0, false, 0, io.EOF
	}
	var hdr [1]byte
	if _, err := src.ReadAt(hdr[:], offset); err != nil {
		return 0, false, 0, fmt.Errorf("amr: read frame header at %d: %w", offset, err)
	}
	code := (hdr[0] >> 3) & 0x0F
	size, noData, err = frameSize(v, code)
	if err != nil {
		return 0, false, 0, fmt.Errorf("amr: frame at %d: %w", offset, err)
	}
	if offset+int64(size) > src.Size() {
		return 0, false, 0, fmt.Errorf("amr: frame at %d: declared %d bytes with %d remaining: %w",
			offset, size, src.Size()-offset, errTruncatedFrame)
	}
	return size, noData, offset + int64(size), nil
}
