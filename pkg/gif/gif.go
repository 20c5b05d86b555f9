// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package gif implements a streaming decoder for GIF87a and GIF89a files.
//
// The GIF specification is at https://www.w3.org/Graphics/GIF/spec-gif89a.txt.
package gif

import (
	"errors"
	"fmt"

	"github.com/ostafen/gifdec/pkg/reader"
)

// Section indicators.
const (
	sExtension       = 0x21
	sImageDescriptor = 0x2C
	sTrailer         = 0x3B
)

// Extensions.
const (
	eText           = 0x01 // Plain Text
	eGraphicControl = 0xF9 // Graphic Control
	eComment        = 0xFE // Comment
	eApplication    = 0xFF // Application
)

// Masks
const (
	// Fields.
	fColorTable         = 1 << 7
	fInterlace          = 1 << 6
	fColorTableBitsMask = 7

	// Graphic control packed fields.
	fTransparency  = 1
	fDisposalShift = 2
	fDisposalMask  = 7
)

// Color is a packed 0xRRGGBB value. Transparent marks cells of an output
// matrix that no frame has painted; palettes never contain it.
type Color int32

const Transparent Color = -1

// Palette is a zero-indexed dense color table of power-of-two length.
type Palette []Color

// Disposal tells the compositor what to do with the displayed frame
// before rendering the next one.
type Disposal int

const (
	// DisposalCombine leaves the frame in place.
	DisposalCombine Disposal = iota
	// DisposalErase restores the frame's rectangle to transparent.
	DisposalErase
	// DisposalUndo restores the canvas to its state before the frame.
	DisposalUndo
)

// LoopMode controls what NextImage does once the last frame has been
// reached.
type LoopMode int

const (
	// LoopNever stops at the last frame.
	LoopNever LoopMode = iota
	// LoopAlways wraps to the first frame unconditionally.
	LoopAlways
	// LoopPlay wraps only if the file carries a NETSCAPE2.0 loop block.
	LoopPlay
)

// FileParameters is the file-wide metadata gathered by the first-pass scan.
type FileParameters struct {
	// Comment holds the concatenated sub-blocks of the first Comment
	// Extension in the file; HasComment tells it apart from an empty one.
	Comment    string
	HasComment bool

	// Looped reports the presence of a NETSCAPE2.0 Application Extension.
	// The loop count subfield is not interpreted.
	Looped bool

	// Images is the number of image descriptors in the file.
	Images int
}

// ImageParameters describes the currently loaded frame.
type ImageParameters struct {
	ImageNo int // 1-based frame number
	DelayMS int // inter-frame delay in milliseconds
}

// ErrMalformed reports input that is not a well-formed GIF stream. It is
// never used for I/O failures, so errors.Is lets callers tell the two
// apart.
var ErrMalformed = errors.New("malformed gif data")

func malformedf(format string, args ...any) error {
	args = append(args, ErrMalformed)
	return fmt.Errorf("gif: "+format+": %w", args...)
}

// readErr wraps a reader error raised while parsing. Running past the end
// of the file means the container structure lies about its own length,
// which is a malformed file rather than an I/O failure.
func readErr(what string, err error) error {
	if errors.Is(err, reader.ErrOutOfRange) {
		return malformedf("%s: unexpected end of file", what)
	}
	return fmt.Errorf("gif: %s: %w", what, err)
}
