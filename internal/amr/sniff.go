package amr

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zsiec/amrx/internal/source"
)

// SniffConfidence is the fixed confidence reported for a magic match, on the
// 0..1 scale shared by all container sniffers.
const SniffConfidence = 0.5

// SniffResult reports a recognized container prefix.
type SniffResult struct {
	Variant    Variant
	MIME       string
	Confidence float64
	HeaderLen  int // magic length; frame 0 starts here
}

// Sniff inspects at most the first 9 bytes of src for either container
// magic. It reports ok=false when neither matches or the prefix cannot be
// read.
func Sniff(src source.Source) (SniffResult, bool) {
	v, headerLen, err := sniffMagic(src)
	if err != nil {
		return SniffResult{}, false
	}
	return SniffResult{
		Variant:    v,
		MIME:       v.MIME(),
		Confidence: SniffConfidence,
		HeaderLen:  headerLen,
	}, true
}

// sniffMagic is the strict form used by Open: an unrecognized prefix is
// ErrBadMagic and read failures surface as their own errors.
func sniffMagic(src source.Source) (Variant, int, error) {
	var buf [len(magicWB)]byte
	n, err := src.ReadAt(buf[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, 0, fmt.Errorf("amr: read magic: %w", err)
	}
	head := string(buf[:n])
	switch {
	case strings.HasPrefix(head, magicNB):
		return Narrowband, len(magicNB), nil
	case strings.HasPrefix(head, magicWB):
		return Wideband, len(magicWB), nil
	}
	return 0, 0, ErrBadMagic
}
