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

type rect struct {
	left, top     int
	width, height int
}

type frameRect struct {
	rect
	interlaced bool
}

// canvas maintains the two logical-screen grids the disposal model needs:
// current, which ReadMatrix exposes, and background, which the next frame
// composes over. For combine and erase disposal the two alias the same
// rows, so decoding writes through to both; undo decodes into a deep copy
// and leaves background untouched.
type canvas struct {
	w, h int

	current    [][]Color
	background [][]Color

	// erase is the rectangle left behind by an erase-disposal frame. It
	// is applied lazily at the start of the next composition, so a frame
	// that fully covers it costs no extra clear.
	erase *rect
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h}
	c.reset()
	return c
}

func (c *canvas) reset() {
	c.background = clearGrid(c.w, c.h)
	c.current = c.background
	c.erase = &rect{width: c.w, height: c.h}
}

func clearGrid(w, h int) [][]Color {
	grid := make([][]Color, h)
	for y := range grid {
		row := make([]Color, w)
		for x := range row {
			row[x] = Transparent
		}
		grid[y] = row
	}
	return grid
}

func cloneGrid(src [][]Color) [][]Color {
	grid := make([][]Color, len(src))
	for y, row := range src {
		grid[y] = append([]Color(nil), row...)
	}
	return grid
}

// Four-pass interlace row schedule of the GIF89a spec, Appendix E.
var interlacing = []struct{ start, skip int }{
	{0, 8},
	{4, 8},
	{2, 4},
	{1, 2},
}

// rowOrder maps the position of a row in the decoded pixel stream to its
// destination row within the frame rectangle.
func rowOrder(height int, interlaced bool) []int {
	rows := make([]int, 0, height)
	if !interlaced {
		for y := 0; y < height; y++ {
			rows = append(rows, y)
		}
		return rows
	}
	for _, pass := range interlacing {
		for y := pass.start; y < height; y += pass.skip {
			rows = append(rows, y)
		}
	}
	return rows
}

// compose applies one decoded frame. pixels holds exactly
// fr.width*fr.height palette indices in stream order; gc carries the
// graphic control state scoped to this frame.
func (c *canvas) compose(fr frameRect, pixels []byte, pal Palette, gc graphicControl) error {
	if c.erase != nil {
		for y := c.erase.top; y < c.erase.top+c.erase.height; y++ {
			row := c.background[y]
			for x := c.erase.left; x < c.erase.left+c.erase.width; x++ {
				row[x] = Transparent
			}
		}
		c.erase = nil
	}

	cur := c.background
	if gc.disposal == DisposalUndo {
		cur = cloneGrid(c.background)
	}

	i := 0
	for _, y := range rowOrder(fr.height, fr.interlaced) {
		row := cur[fr.top+y]
		for x := 0; x < fr.width; x++ {
			idx := pixels[i]
			i++
			if gc.transparency && idx == gc.transparentIndex {
				continue
			}
			if int(idx) >= len(pal) {
				return malformedf("pixel index %d outside color table of size %d", idx, len(pal))
			}
			row[fr.left+x] = pal[idx]
		}
	}

	c.current = cur
	if gc.disposal == DisposalErase {
		c.erase = &fr.rect
	}
	return nil
}
