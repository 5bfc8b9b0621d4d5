package decompress

import (
	"errors"
	"fmt"

	"animclip/pkg/blob"
)

// RoundingPolicy controls how a fractional keyframe interpolation alpha is
// snapped during Seek (§4.8).
type RoundingPolicy uint8

// Rounding policies.
const (
	RoundNone RoundingPolicy = iota
	RoundFloor
	RoundCeil
	RoundNearest
)

// state is the decompressor's lifecycle stage (§4.8).
type state uint8

const (
	stateUninitialized state = iota
	stateBound
	stateSeeked
)

var (
	// ErrNotBound is returned by Seek or decompress calls made before
	// Initialize succeeds.
	ErrNotBound = errors.New("decompress: context is not bound")

	// ErrNotSeeked is returned by a decompress call made before Seek.
	ErrNotSeeked = errors.New("decompress: context has not been seeked")

	// ErrDirty names the condition IsDirty reports (§4.8 "is_dirty").
	// IsDirty returns a bool, and no Context method returns this error.
	ErrDirty = errors.New("decompress: bound blob is dirty")
)

// Settings are the decompression-time knobs (§4.8 step 5): whether Seek
// clamps time into [0, duration] instead of erroring, and whether
// reconstructed rotations are renormalized after interpolation.
type Settings struct {
	ClampTime      bool
	NormalizeQuats bool
}

// DefaultSettings returns the common, safe defaults: clamp out-of-range
// time instead of failing, and normalize interpolated rotations.
func DefaultSettings() Settings {
	return Settings{ClampTime: true, NormalizeQuats: true}
}

// Context is a decompressor bound to one blob, walking the state machine of
// §4.8: Uninitialized -> Bound -> Seeked.
type Context struct {
	state    state
	reader   *blob.Reader
	settings Settings

	key0, key1         int
	alpha              float32
	segment0, segment1 int
	localKey0          int
	localKey1          int
}

// NewContext returns an unbound Context using settings for every Seek call.
func NewContext(settings Settings) *Context {
	return &Context{settings: settings}
}

// Initialize parses and validates blob data and transitions to Bound
// (§4.8). It is the gate is_valid(check_hash=true) calls for before
// binding.
func (c *Context) Initialize(data []byte) error {
	reader, err := blob.Parse(data)
	if err != nil {
		return fmt.Errorf("decompress: initialize: %w", err)
	}
	if err := reader.Validate(); err != nil {
		return fmt.Errorf("decompress: initialize: %w", err)
	}
	c.reader = reader
	c.state = stateBound
	return nil
}

// IsDirty reports true when the context is unbound, or when data fails to
// parse or no longer matches the hash stored in its own raw header, meaning
// the context must be re-initialized before further use. It does not check
// that data is the same blob the context was bound to: a different, intact
// blob reports false.
func (c *Context) IsDirty(data []byte) bool {
	if c.state == stateUninitialized {
		return true
	}
	reader, err := blob.Parse(data)
	if err != nil {
		return true
	}
	return reader.Validate() != nil
}

// Reader exposes the bound blob.Reader for callers that need direct
// access, e.g. to enumerate track counts before decompressing.
func (c *Context) Reader() (*blob.Reader, error) {
	if c.state == stateUninitialized {
		return nil, ErrNotBound
	}
	return c.reader, nil
}
