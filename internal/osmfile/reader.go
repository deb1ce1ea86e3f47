// Package osmfile decodes OSM PBF and XML files into a forward-only stream of entities.
package osmfile

import (
	"context"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/rotisserie/eris"

	"github.com/wegman-software/osmpoi/internal/poi"
)

// Format of an input file
type Format int

const (
	FormatPBF Format = iota
	FormatXML
)

// DetectFormat picks the decoder from the file name; anything that is not
// .osm or .xml is treated as PBF
func DetectFormat(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".osm"), strings.HasSuffix(lower, ".xml"):
		return FormatXML
	default:
		return FormatPBF
	}
}

// Reader yields entities from an OSM scanner one at a time
type Reader struct {
	scanner osm.Scanner
	closer  io.Closer

	size      int64
	bytesRead atomic.Int64
}

// Open opens path and starts decoding it. The caller must Close the reader.
func Open(ctx context.Context, path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "osmfile: open %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, eris.Wrapf(err, "osmfile: stat %s", path)
	}

	r := &Reader{closer: f, size: info.Size()}
	counted := &countingReader{r: f, n: &r.bytesRead}

	switch DetectFormat(path) {
	case FormatXML:
		r.scanner = osmxml.New(ctx, counted)
	default:
		// Blocks are decoded in parallel but objects come back in file order
		r.scanner = osmpbf.New(ctx, counted, runtime.NumCPU())
	}

	return r, nil
}

// NewReader wraps an existing scanner; used by tests and callers that
// manage their own input
func NewReader(scanner osm.Scanner) *Reader {
	return &Reader{scanner: scanner}
}

// Next returns the next entity, or io.EOF once the stream is exhausted
func (r *Reader) Next(ctx context.Context) (poi.Entity, error) {
	for {
		if err := ctx.Err(); err != nil {
			return poi.Entity{}, err
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil && err != io.EOF {
				return poi.Entity{}, eris.Wrap(err, "osmfile: decode")
			}
			return poi.Entity{}, io.EOF
		}

		if e, ok := toEntity(r.scanner.Object()); ok {
			return e, nil
		}
	}
}

// BytesRead returns how many input bytes the decoder has consumed so far
func (r *Reader) BytesRead() int64 {
	return r.bytesRead.Load()
}

// Size returns the input file size, or 0 when unknown
func (r *Reader) Size() int64 {
	return r.size
}

// Close stops the decoder and releases the input file
func (r *Reader) Close() error {
	err := r.scanner.Close()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// toEntity converts a decoded object. Changesets, notes and other
// non-element objects are skipped.
func toEntity(obj osm.Object) (poi.Entity, bool) {
	switch o := obj.(type) {
	case *osm.Node:
		return poi.Entity{
			ID:          int64(o.ID),
			Kind:        poi.KindNode,
			Tags:        o.Tags.Map(),
			Lat:         o.Lat,
			Lon:         o.Lon,
			HasLocation: true,
		}, true
	case *osm.Way:
		return poi.Entity{ID: int64(o.ID), Kind: poi.KindWay, Tags: o.Tags.Map()}, true
	case *osm.Relation:
		return poi.Entity{ID: int64(o.ID), Kind: poi.KindRelation, Tags: o.Tags.Map()}, true
	default:
		return poi.Entity{}, false
	}
}

type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
