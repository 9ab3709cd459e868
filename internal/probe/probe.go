// Package probe recognizes media container formats by their magic bytes and
// dispatches opens to the matching demuxer. The registry holds one entry per
// format; probing runs every registered sniffer over the head of a source
// and the highest-confidence match wins.
package probe

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zsiec/amrx/internal/media"
	"github.com/zsiec/amrx/internal/source"
)

// ErrUnknownFormat is returned when no registered sniffer matches a source.
var ErrUnknownFormat = errors.New("probe: unrecognized container format")

// Result describes a recognized container prefix.
type Result struct {
	Format     string  `json:"format"`
	MIME       string  `json:"mime"`
	Confidence float64 `json:"confidence"`
}

// A Sniffer inspects the head of a source and reports whether its format
// matched. Sniffers must not read past the bytes needed to identify the
// magic and must tolerate sources shorter than that.
type Sniffer func(src source.Source) (Result, bool)

// A Demuxer serves track metadata, sequential frame reads, and time seeks
// over one opened container.
type Demuxer interface {
	CountTracks() int
	Track() (media.TrackInfo, error)
	ReadFrame() (media.Frame, error)
	SeekTo(targetUs int64) error
}

// An Opener builds a Demuxer over a source whose format already matched.
type Opener func(src source.Source) (Demuxer, error)

type format struct {
	name  string
	sniff Sniffer
	open  Opener
}

// Registry maps container formats to their sniffers and openers.
type Registry struct {
	mu      sync.RWMutex
	formats []format
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a format under name. A sniffer may refine the reported
// Format (a container with variants reports the variant); when it leaves
// Format empty the registered name is filled in. Later registrations win
// confidence ties.
func (r *Registry) Register(name string, sniff Sniffer, open Opener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats = append(r.formats, format{name: name, sniff: sniff, open: open})
}

// bestMatch sniffs src with every format and keeps the highest-confidence
// result and its opener. Callers hold at least a read lock.
func (r *Registry) bestMatch(src source.Source) (Result, Opener, bool) {
	var (
		best   Result
		opener Opener
	)
	for _, f := range r.formats {
		res, ok := f.sniff(src)
		if !ok {
			continue
		}
		if res.Format == "" {
			res.Format = f.name
		}
		if opener == nil || res.Confidence >= best.Confidence {
			best, opener = res, f.open
		}
	}
	return best, opener, opener != nil
}

// Probe runs every sniffer over src and returns the highest-confidence
// match, or ErrUnknownFormat when nothing matched.
func (r *Registry) Probe(src source.Source) (Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, _, ok := r.bestMatch(src)
	if !ok {
		return Result{}, ErrUnknownFormat
	}
	return res, nil
}

// Open probes src and opens it with the winning format's opener.
func (r *Registry) Open(src source.Source) (Demuxer, Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, open, ok := r.bestMatch(src)
	if !ok {
		return nil, Result{}, ErrUnknownFormat
	}
	d, err := open(src)
	if err != nil {
		return nil, Result{}, fmt.Errorf("probe: open %s: %w", res.Format, err)
	}
	return d, res, nil
}
