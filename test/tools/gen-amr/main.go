// Command gen-amr writes synthetic AMR containers for testing: mode
// sequencing, SID interleave, and corrupt or truncated tails. The payloads
// are deterministic filler, not real speech; only the framing matters to
// the demuxer.
//
// Usage:
//
//	go run ./test/tools/gen-amr -o cbr.amr -frames 50
//	go run ./test/tools/gen-amr -o vbr.awb -variant wb -modes 0,4,8 -frames 30
//	go run ./test/tools/gen-amr -o cut.amr -frames 10 -truncate 5
//	go run ./test/tools/gen-amr -o bad.amr -frames 10 -garbage 3
package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
)

// Stored frame sizes (header byte included) per frame type, from the codec
// tables. Index is the 4-bit frame type; zero marks reserved codes.
var (
	sizesNB = [16]int{13, 14, 16, 18, 20, 21, 27, 32, 6, 7, 6, 6, 0, 0, 0, 1}
	sizesWB = [16]int{18, 24, 33, 37, 41, 47, 51, 59, 61, 6, 0, 0, 0, 0, 1, 1}
)

func main() {
	var (
		out      = flag.String("o", "", "output path (required)")
		variant  = flag.String("variant", "nb", "nb or wb")
		frames   = flag.Int("frames", 50, "number of frames")
		modes    = flag.String("modes", "0", "comma-separated mode cycle, e.g. 0,2,7")
		sidEvery = flag.Int("sid", 0, "replace every Nth frame with a SID frame (0 = none)")
		garbage  = flag.Int("garbage", 0, "append N garbage bytes after the last frame")
		truncate = flag.Int("truncate", 0, "cut N bytes off the end of the last frame")
	)
	flag.Parse()

	if *out == "" {
		flag.Usage()
		os.Exit(2)
	}

	var (
		magic string
		sizes [16]int
		sid   uint8
	)
	switch *variant {
	case "nb":
		magic, sizes, sid = "#!AMR\n", sizesNB, 8
	case "wb":
		magic, sizes, sid = "#!AMR-WB\n", sizesWB, 9
	default:
		log.Fatalf("unknown variant %q", *variant)
	}

	cycle, err := parseModes(*modes, sizes)
	if err != nil {
		log.Fatal(err)
	}

	data := []byte(magic)
	for i := 0; i < *frames; i++ {
		mode := cycle[i%len(cycle)]
		if *sidEvery > 0 && i > 0 && i%*sidEvery == 0 {
			mode = sid
		}
		data = append(data, frame(mode, sizes[mode], i)...)
	}

	if *truncate > 0 {
		if *truncate >= len(data)-len(magic) {
			log.Fatalf("-truncate %d removes every frame byte", *truncate)
		}
		data = data[:len(data)-*truncate]
	}
	for i := 0; i < *garbage; i++ {
		// 0x64 decodes to frame type 12, reserved in both variants.
		data = append(data, 0x64)
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s: %d frames, %d bytes", *out, *frames, len(data))
}

// frame builds one stored frame: header byte with the quality bit set, then
// deterministic filler derived from the frame index.
func frame(mode uint8, size, index int) []byte {
	b := make([]byte, size)
	b[0] = mode<<3 | 0x04
	for j := 1; j < size; j++ {
		b[j] = byte(index*31 + j)
	}
	return b
}

func parseModes(spec string, sizes [16]int) ([]uint8, error) {
	var cycle []uint8
	for _, part := range strings.Split(spec, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 15 || sizes[n] == 0 {
			return nil, &modeError{part}
		}
		cycle = append(cycle, uint8(n))
	}
	return cycle, nil
}

type modeError struct{ mode string }

func (e *modeError) Error() string { return "invalid mode " + e.mode }
