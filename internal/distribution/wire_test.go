package distribution

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameRecordRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	payloads := [][]byte{
		{0x04, 0x01, 0x02, 0x03},
		{0x3C}, // header-only frame
		bytes.Repeat([]byte{0xAB}, 61),
	}
	for i, p := range payloads {
		if _, err := WriteFrameRecord(&buf, int64(i)*20000, p); err != nil {
			t.Fatalf("WriteFrameRecord(%d): %v", i, err)
		}
	}

	r := bufio.NewReader(&buf)
	for i, want := range payloads {
		pts, payload, err := ReadFrameRecord(r)
		if err != nil {
			t.Fatalf("ReadFrameRecord(%d): %v", i, err)
		}
		if pts != int64(i)*20000 {
			t.Errorf("record %d: pts = %d, want %d", i, pts, int64(i)*20000)
		}
		if !bytes.Equal(payload, want) {
			t.Errorf("record %d: payload = %x, want %x", i, payload, want)
		}
	}
	if _, _, err := ReadFrameRecord(r); err != io.EOF {
		t.Fatalf("read past last record: err = %v, want io.EOF", err)
	}
}

func TestReadFrameRecordTruncated(t *testing.T) {
	t.Parallel()

	full := AppendFrameRecord(nil, 20000, []byte{1, 2, 3, 4, 5})
	for cut := 1; cut < len(full); cut++ {
		r := bufio.NewReader(bytes.NewReader(full[:cut]))
		_, _, err := ReadFrameRecord(r)
		if err == nil {
			t.Fatalf("cut at %d: expected error", cut)
		}
		if err == io.EOF {
			t.Fatalf("cut at %d: bare io.EOF from a mid-record cut", cut)
		}
	}
}

func TestReadFrameRecordPayloadLimit(t *testing.T) {
	t.Parallel()

	rec := AppendFrameRecord(nil, 0, make([]byte, maxRecordPayload+1))
	_, _, err := ReadFrameRecord(bufio.NewReader(bytes.NewReader(rec)))
	if err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("oversized payload: err = %v, want limit error", err)
	}
}
