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

import (
	"fmt"
	"os"

	"github.com/ostafen/gifdec/pkg/reader"
)

// graphicControl is the state of the Graphic Control Extension scoped to
// the immediately following image. Its zero value is the default when no
// extension precedes an image: combine disposal, no transparency, no
// delay.
type graphicControl struct {
	disposal         Disposal
	delayMS          int
	transparency     bool
	transparentIndex byte
}

// Decoder reads GIF87a/GIF89a files frame by frame. It is not safe for
// concurrent use.
type Decoder struct {
	r *reader.PagedReader

	width, height int
	globalPalette Palette

	// offset of the first block after the header and global palette;
	// looping re-seeks here.
	firstFrameOffset int64

	gc      graphicControl // pending control state for the next image
	frameNo int
	delayMS int

	canvas *canvas

	// File parameters accumulate across every walk of the container. An
	// offset high-water mark keeps counters from double counting when a
	// later walk revisits blocks an earlier one already processed.
	fp          FileParameters
	fpDone      bool
	fpMaxOffset int64

	closed bool
}

// Open parses the header, the logical screen descriptor and the global
// palette of the file at path, then eagerly decodes the first frame. A
// file without at least one image is malformed.
func Open(path string) (*Decoder, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, err
	}

	d := &Decoder{r: r, fpMaxOffset: -1}
	if err := d.readHeaderAndScreenDescriptor(); err != nil {
		r.Close()
		return nil, err
	}
	d.firstFrameOffset = r.Offset()
	d.canvas = newCanvas(d.width, d.height)

	loaded, err := d.walk(false)
	if err != nil {
		r.Close()
		return nil, err
	}
	if !loaded {
		r.Close()
		return nil, malformedf("missing image data")
	}
	return d, nil
}

func (d *Decoder) readHeaderAndScreenDescriptor() error {
	magic, err := d.r.ReadString(6)
	if err != nil {
		return readErr("reading header", err)
	}
	if version := string(magic); version != "GIF87a" && version != "GIF89a" {
		return malformedf("can't recognize format %q", version)
	}

	words, err := d.r.ReadWords(2)
	if err != nil {
		return readErr("reading header", err)
	}
	d.width, d.height = int(words[0]), int(words[1])
	if d.width == 0 || d.height == 0 {
		return malformedf("zero logical screen dimensions: %dx%d", d.width, d.height)
	}

	fields, err := d.r.ReadByte()
	if err != nil {
		return readErr("reading header", err)
	}
	// Background color index and pixel aspect ratio are ignored.
	d.r.Skip(2)

	if fields&fColorTable != 0 {
		d.globalPalette, err = d.readPalette(fields)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) readPalette(fields byte) (Palette, error) {
	n := 1 << (1 + uint(fields&fColorTableBitsMask))
	buf, err := d.r.ReadString(3 * n)
	if err != nil {
		return nil, readErr("reading color table", err)
	}
	pal := make(Palette, n)
	for i := range pal {
		pal[i] = Color(buf[3*i])<<16 | Color(buf[3*i+1])<<8 | Color(buf[3*i+2])
	}
	return pal, nil
}

// walk reads blocks from the current offset. With scan == false it stops
// after decoding one image and reports true; with scan == true it skips
// image data and runs through to the trailer. Either way, reaching the
// trailer completes the file parameters and reports false.
func (d *Decoder) walk(scan bool) (bool, error) {
	for {
		off := d.r.Offset()
		c, err := d.r.ReadByte()
		if err != nil {
			return false, readErr("reading frames", err)
		}
		fresh := off > d.fpMaxOffset
		if fresh {
			d.fpMaxOffset = off
		}

		switch c {
		case sExtension:
			if err := d.readExtension(fresh, scan); err != nil {
				return false, err
			}
		case sImageDescriptor:
			if fresh {
				d.fp.Images++
			}
			if scan {
				if err := d.skipImage(); err != nil {
					return false, err
				}
				continue
			}
			if err := d.readImage(); err != nil {
				return false, err
			}
			return true, nil
		case sTrailer:
			// Leave the cursor on the trailer so that another walk
			// reports end-of-file again instead of running past it.
			d.r.Jump(off)
			d.fpDone = true
			return false, nil
		default:
			return false, malformedf("unknown block type: 0x%.2x", c)
		}
	}
}

func (d *Decoder) readExtension(fresh, scan bool) error {
	extension, err := d.r.ReadByte()
	if err != nil {
		return readErr("reading extension", err)
	}
	switch extension {
	case eGraphicControl:
		return d.readGraphicControl(scan)
	case eComment:
		return d.readComment(fresh)
	case eApplication:
		return d.readApplication()
	default:
		// Plain Text and unrecognized labels are plain sub-block
		// chains here.
		return d.skipBlocks()
	}
}

func (d *Decoder) readGraphicControl(scan bool) error {
	buf, err := d.r.ReadString(6)
	if err != nil {
		return readErr("can't read graphic control", err)
	}
	if buf[0] != 4 {
		return malformedf("invalid graphic control extension block size: %d", buf[0])
	}
	if buf[5] != 0 {
		return malformedf("invalid graphic control extension block terminator: %d", buf[5])
	}
	if scan {
		return nil
	}

	packed := buf[1]
	d.gc = graphicControl{
		disposal:         mapDisposal(packed >> fDisposalShift & fDisposalMask),
		delayMS:          (int(buf[2]) | int(buf[3])<<8) * 10,
		transparency:     packed&fTransparency != 0,
		transparentIndex: buf[4],
	}
	return nil
}

func mapDisposal(v byte) Disposal {
	switch v {
	case 2:
		return DisposalErase
	case 3:
		return DisposalUndo
	default:
		// 0 (unspecified) and 1 (do not dispose) both leave the frame
		// in place; reserved values fall back to the same.
		return DisposalCombine
	}
}

func (d *Decoder) readComment(fresh bool) error {
	record := fresh && !d.fp.HasComment
	for {
		size, err := d.r.ReadByte()
		if err != nil {
			return readErr("reading comment", err)
		}
		if size == 0 {
			if record {
				d.fp.HasComment = true
			}
			return nil
		}
		data, err := d.r.ReadString(int(size))
		if err != nil {
			return readErr("reading comment", err)
		}
		if record {
			d.fp.Comment += string(data)
		}
	}
}

func (d *Decoder) readApplication() error {
	size, err := d.r.ReadByte()
	if err != nil {
		return readErr("reading extension", err)
	}
	// The spec requires size be 11, but Adobe sometimes uses 10.
	data, err := d.r.ReadString(int(size))
	if err != nil {
		return readErr("reading extension", err)
	}
	if string(data) == "NETSCAPE2.0" {
		d.fp.Looped = true
	}
	return d.skipBlocks()
}

func (d *Decoder) skipBlocks() error {
	for {
		size, err := d.r.ReadByte()
		if err != nil {
			return readErr("reading extension", err)
		}
		if size == 0 {
			return nil
		}
		d.r.Skip(int64(size))
	}
}

func (d *Decoder) readImageDescriptor() (frameRect, byte, error) {
	buf, err := d.r.ReadString(9)
	if err != nil {
		return frameRect{}, 0, readErr("can't read image descriptor", err)
	}
	fr := frameRect{
		rect: rect{
			left:   int(buf[0]) | int(buf[1])<<8,
			top:    int(buf[2]) | int(buf[3])<<8,
			width:  int(buf[4]) | int(buf[5])<<8,
			height: int(buf[6]) | int(buf[7])<<8,
		},
		interlaced: buf[8]&fInterlace != 0,
	}
	if fr.width == 0 || fr.height == 0 {
		return frameRect{}, 0, malformedf("empty frame bounds: %dx%d", fr.width, fr.height)
	}
	// Each image must fit within the boundaries of the logical screen
	// (GIF89a spec, Section 20). left and top are non-negative by
	// construction, so checking the far corner suffices.
	if fr.left+fr.width > d.width || fr.top+fr.height > d.height {
		return frameRect{}, 0, malformedf("frame bounds larger than image bounds")
	}
	return fr, buf[8], nil
}

func (d *Decoder) imagePalette(fields byte) (Palette, error) {
	if fields&fColorTable != 0 {
		return d.readPalette(fields)
	}
	if d.globalPalette == nil {
		return nil, malformedf("no color table")
	}
	return d.globalPalette, nil
}

func (d *Decoder) readLitWidth() (int, error) {
	litWidth, err := d.r.ReadByte()
	if err != nil {
		return 0, readErr("reading image data", err)
	}
	if litWidth < 2 || litWidth > 8 {
		return 0, malformedf("pixel size in decode out of range: %d", litWidth)
	}
	return int(litWidth), nil
}

func (d *Decoder) readImage() error {
	fr, fields, err := d.readImageDescriptor()
	if err != nil {
		return err
	}
	pal, err := d.imagePalette(fields)
	if err != nil {
		return err
	}
	litWidth, err := d.readLitWidth()
	if err != nil {
		return err
	}

	pixels := make([]byte, fr.width*fr.height)
	if err := lzwDecode(newBlockReader(d.r), litWidth, pixels); err != nil {
		return err
	}

	gc := d.gc
	d.gc = graphicControl{}
	if err := d.canvas.compose(fr, pixels, pal, gc); err != nil {
		return err
	}
	d.frameNo++
	d.delayMS = gc.delayMS
	return nil
}

// skipImage walks past an image without decoding it: descriptor, local
// color table if any, minimum code size byte, then the data sub-blocks.
func (d *Decoder) skipImage() error {
	_, fields, err := d.readImageDescriptor()
	if err != nil {
		return err
	}
	if fields&fColorTable != 0 {
		n := 1 << (1 + uint(fields&fColorTableBitsMask))
		d.r.Skip(int64(3 * n))
	}
	if _, err := d.readLitWidth(); err != nil {
		return err
	}
	return d.skipBlocks()
}

// Size returns the logical screen dimensions.
func (d *Decoder) Size() (width, height int) {
	return d.width, d.height
}

// FileParameters returns the file-wide metadata. The first call scans the
// remainder of the container without disturbing decoding (the cursor is
// saved and restored); later calls are O(1).
func (d *Decoder) FileParameters() (FileParameters, error) {
	if d.closed {
		return FileParameters{}, os.ErrClosed
	}
	if d.fpDone {
		return d.fp, nil
	}

	save := d.r.Offset()
	_, err := d.walk(true)
	d.r.Jump(save)
	if err != nil {
		return FileParameters{}, err
	}
	return d.fp, nil
}

// ImageParameters describes the currently loaded frame.
func (d *Decoder) ImageParameters() ImageParameters {
	return ImageParameters{ImageNo: d.frameNo, DelayMS: d.delayMS}
}

// ReadMatrix copies the given rectangle of the current frame into a new
// height×width grid, indexed as matrix[row][col] with 0-based
// coordinates. Cells no frame has painted hold Transparent.
func (d *Decoder) ReadMatrix(x, y, width, height int) ([][]Color, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	if x < 0 || y < 0 || width < 1 || height < 1 ||
		x+width > d.width || y+height > d.height {
		return nil, fmt.Errorf("gif: matrix rectangle (%d,%d)+%dx%d out of bounds %dx%d",
			x, y, width, height, d.width, d.height)
	}

	m := make([][]Color, height)
	for row := range m {
		m[row] = append([]Color(nil), d.canvas.current[y+row][x:x+width]...)
	}
	return m, nil
}

// NextImage attempts to load the next frame and reports whether one was
// loaded. At the end of the file, LoopAlways wraps to the first frame
// unconditionally and LoopPlay wraps only for looped files; both reload
// frame 1 on a cleared canvas.
func (d *Decoder) NextImage(mode LoopMode) (bool, error) {
	if d.closed {
		return false, os.ErrClosed
	}
	if mode != LoopNever && mode != LoopAlways && mode != LoopPlay {
		return false, fmt.Errorf("gif: unknown looping mode: %d", mode)
	}

	loaded, err := d.walk(false)
	if err != nil {
		return false, err
	}
	if loaded {
		return true, nil
	}

	if mode == LoopAlways || (mode == LoopPlay && d.fp.Looped) {
		d.frameNo = 0
		d.delayMS = 0
		d.gc = graphicControl{}
		d.canvas.reset()
		d.r.Jump(d.firstFrameOffset)

		loaded, err := d.walk(false)
		if err != nil {
			return false, err
		}
		if !loaded {
			return false, malformedf("missing image data")
		}
		return true, nil
	}
	return false, nil
}

// Close releases the canvases and the underlying paged reader. It is safe
// to call more than once; the file descriptor is released on the first
// call regardless of earlier failures.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.canvas = nil
	return d.r.Close()
}
