package probe

import (
	"sync"

	"github.com/zsiec/amrx/internal/amr"
	"github.com/zsiec/amrx/internal/source"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry with every built-in container
// format registered.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		RegisterAMR(defaultRegistry)
	})
	return defaultRegistry
}

// RegisterAMR adds the AMR container (both variants) to r.
func RegisterAMR(r *Registry) {
	r.Register("amr", sniffAMR, openAMR)
}

func sniffAMR(src source.Source) (Result, bool) {
	res, ok := amr.Sniff(src)
	if !ok {
		return Result{}, false
	}
	return Result{
		Format:     res.Variant.String(),
		MIME:       res.MIME,
		Confidence: res.Confidence,
	}, true
}

func openAMR(src source.Source) (Demuxer, error) {
	return amr.Open(src)
}
