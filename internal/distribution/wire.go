package distribution

import (
	"bufio"
	"fmt"
	"io"

	"github.com/quic-go/quic-go/quicvarint"
)

// Frame record wire format, shared by the HTTP frames endpoint and the
// WebSocket stream:
//
//	[pts µs (varint)] [payload length (varint)] [payload]
//
// The payload is the stored frame exactly as it appears in the container,
// including its one-byte header. Records are self-delimiting, so a stream
// of them needs no outer framing.

// maxRecordPayload bounds the payload length accepted by ReadFrameRecord.
// The largest legal AMR frame is 61 bytes; anything near this limit is a
// corrupt stream, not a real frame.
const maxRecordPayload = 1 << 16

// AppendFrameRecord appends one frame record to buf and returns the
// extended slice.
func AppendFrameRecord(buf []byte, pts int64, payload []byte) []byte {
	buf = quicvarint.Append(buf, uint64(pts))
	buf = quicvarint.Append(buf, uint64(len(payload)))
	return append(buf, payload...)
}

// WriteFrameRecord writes one frame record to w, returning the number of
// bytes written.
func WriteFrameRecord(w io.Writer, pts int64, payload []byte) (int, error) {
	buf := AppendFrameRecord(make([]byte, 0, 16+len(payload)), pts, payload)
	n, err := w.Write(buf)
	if err != nil {
		return n, fmt.Errorf("distribution: write frame record: %w", err)
	}
	return n, nil
}

// ReadFrameRecord reads one frame record from r. io.EOF before the first
// byte means a clean end of stream; a record cut off midway reports
// io.ErrUnexpectedEOF. Used by tests and example clients; servers only
// write.
func ReadFrameRecord(r *bufio.Reader) (pts int64, payload []byte, err error) {
	v, err := quicvarint.Read(r)
	if err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("distribution: read record pts: %w", err)
	}
	pts = int64(v)

	length, err := quicvarint.Read(r)
	if err != nil {
		return 0, nil, fmt.Errorf("distribution: read record length: %w", eofToUnexpected(err))
	}
	if length > maxRecordPayload {
		return 0, nil, fmt.Errorf("distribution: record payload %d exceeds limit %d", length, maxRecordPayload)
	}

	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("distribution: read record payload: %w", eofToUnexpected(err))
	}
	return pts, payload, nil
}

// eofToUnexpected converts a bare io.EOF into io.ErrUnexpectedEOF for reads
// that started inside a record.
func eofToUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
