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
package gif

import "github.com/ostafen/gifdec/pkg/reader"

// GIF uses the LSB-first LZW variant with codes growing from
// litWidth+1 up to 12 bits and a dictionary capped at 4096 entries.
const (
	lzwMaxWidth = 12
	lzwMaxCodes = 1 << lzwMaxWidth
)

// blockReader yields the bytes of a sub-block chain one at a time. A
// chain is a sequence of (size, bytes) runs terminated by a zero-length
// block.
type blockReader struct {
	r    *reader.PagedReader
	left int // bytes remaining in the current sub-block
	done bool
}

func newBlockReader(r *reader.PagedReader) *blockReader {
	return &blockReader{r: r}
}

// readByte returns the next data byte, or ok == false once the
// terminating zero-length block has been consumed.
func (br *blockReader) readByte() (byte, bool, error) {
	if br.done {
		return 0, false, nil
	}
	for br.left == 0 {
		size, err := br.r.ReadByte()
		if err != nil {
			return 0, false, readErr("reading image data", err)
		}
		if size == 0 {
			br.done = true
			return 0, false, nil
		}
		br.left = int(size)
	}
	b, err := br.r.ReadByte()
	if err != nil {
		return 0, false, readErr("reading image data", err)
	}
	br.left--
	return b, true, nil
}

// close verifies that the chain ends right where the compressed stream
// ended: no bytes left in the current sub-block and a zero terminator
// next. It leaves the cursor just past the terminator.
func (br *blockReader) close() error {
	if br.left > 0 {
		return malformedf("excess data after end of image")
	}
	if br.done {
		return nil
	}
	size, err := br.r.ReadByte()
	if err != nil {
		return readErr("reading image data", err)
	}
	if size != 0 {
		return malformedf("excess data after end of image")
	}
	br.done = true
	return nil
}

// lzwDecode decompresses one image's code stream into dst, which must be
// sized to exactly the expected pixel count. litWidth is the minimum code
// size byte of the image (2-8), so literal codes are 0..1<<litWidth-1.
//
// Dictionary entries are created eagerly with an unknown final pixel,
// resolved by the first pixel of the next phrase. A code referencing the
// still-incomplete entry is the KwKwK case: its first pixel doubles as
// its own last one.
func lzwDecode(br *blockReader, litWidth int, dst []byte) error {
	var (
		prefix [lzwMaxCodes]uint16
		last   [lzwMaxCodes]byte
		stack  [lzwMaxCodes]byte
	)

	clear := 1 << litWidth
	end := clear + 1

	nextFree := clear + 2
	width := litWidth + 1
	limit := 1 << width
	pending := false

	var acc uint32
	bits := 0
	emitted := 0
	first := true

	for {
		for bits < width {
			b, ok, err := br.readByte()
			if err != nil {
				return err
			}
			if !ok {
				return malformedf("premature end of image data")
			}
			acc |= uint32(b) << bits
			bits += 8
		}
		code := int(acc) & (limit - 1)
		acc >>= uint(width)
		bits -= width

		if first && code != clear {
			return malformedf("image data does not start with a clear code")
		}
		first = false

		switch {
		case code == clear:
			nextFree = clear + 2
			width = litWidth + 1
			limit = 1 << width
			pending = false

		case code == end:
			if emitted != len(dst) {
				return malformedf("wrong pixel count: have %d, want %d", emitted, len(dst))
			}
			if acc != 0 {
				return malformedf("excess data after end of image")
			}
			return br.close()

		case code >= nextFree:
			return malformedf("invalid lzw code: %d >= %d", code, nextFree)

		default:
			// Unroll the phrase tail-first by walking prefix links
			// down to a literal.
			sp := 0
			for c := code; ; {
				if c < clear {
					stack[sp] = byte(c)
					sp++
					break
				}
				stack[sp] = last[c]
				sp++
				c = int(prefix[c])
			}
			firstPixel := stack[sp-1]

			if pending {
				last[nextFree-1] = firstPixel
				if code == nextFree-1 {
					// KwKwK: the phrase ends with its own first pixel.
					stack[0] = firstPixel
				}
				pending = false
			}

			if emitted+sp > len(dst) {
				return malformedf("wrong pixel count: have more than %d", len(dst))
			}
			for i := sp - 1; i >= 0; i-- {
				dst[emitted] = stack[i]
				emitted++
			}

			if nextFree < lzwMaxCodes {
				prefix[nextFree] = uint16(code)
				nextFree++
				pending = true
				if nextFree == limit && width < lzwMaxWidth {
					width++
					limit <<= 1
				}
			}
		}
	}
}
