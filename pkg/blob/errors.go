// Package blob implements the compressed container format (§6): a fixed
// header sequence followed by bitsets, constant data, range tables and
// per-segment bit-packed animated data, all addressed by 32-bit offsets the
// way the teacher's ISOBMFF box reader addresses boxes within an immutable
// byte slice.
package blob

import "errors"

var (
	// ErrBadAlignment is returned by Parse when a section offset in the
	// transform tracks header is not a multiple of 4.
	ErrBadAlignment = errors.New("blob: bad section alignment")

	// ErrBadTag is returned when the magic tag at the start of the tracks
	// header does not match.
	ErrBadTag = errors.New("blob: bad magic tag")

	// ErrUnsupportedVersion is returned for a tracks header version this
	// package does not know how to parse.
	ErrUnsupportedVersion = errors.New("blob: unsupported version")

	// ErrHashMismatch is returned by Validate when the stored hash does not
	// match the recomputed one (§7).
	ErrHashMismatch = errors.New("blob: hash mismatch")

	// ErrTruncated is returned when the buffer is shorter than a section
	// header claims.
	ErrTruncated = errors.New("blob: truncated buffer")
)
