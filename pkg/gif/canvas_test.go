package gif

import (
	"reflect"
	"testing"
)

func TestRowOrder(t *testing.T) {
	tests := []struct {
		height     int
		interlaced bool
		want       []int
	}{
		{height: 4, interlaced: false, want: []int{0, 1, 2, 3}},
		{height: 1, interlaced: true, want: []int{0}},
		{height: 2, interlaced: true, want: []int{0, 1}},
		{height: 5, interlaced: true, want: []int{0, 4, 2, 1, 3}},
		{height: 8, interlaced: true, want: []int{0, 4, 2, 6, 1, 3, 5, 7}},
		{height: 10, interlaced: true, want: []int{0, 8, 4, 2, 6, 1, 3, 5, 7, 9}},
	}

	for _, tt := range tests {
		got := rowOrder(tt.height, tt.interlaced)
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("rowOrder(%d, %v) = %v, want %v", tt.height, tt.interlaced, got, tt.want)
		}
	}
}

func TestComposeAliasing(t *testing.T) {
	pal := Palette{0xFF0000, 0x00FF00}
	c := newCanvas(2, 1)

	fr := frameRect{rect: rect{width: 2, height: 1}}
	if err := c.compose(fr, []byte{0, 0}, pal, graphicControl{}); err != nil {
		t.Fatal(err)
	}

	// Combine disposal: current and background are the same grid.
	if &c.current[0][0] != &c.background[0][0] {
		t.Fatal("combine disposal should alias current and background")
	}
	if c.current[0][0] != 0xFF0000 || c.current[0][1] != 0xFF0000 {
		t.Fatalf("unexpected canvas: %v", c.current)
	}
}

func TestComposeUndo(t *testing.T) {
	pal := Palette{0xFF0000, 0x00FF00}
	c := newCanvas(2, 1)

	fr := frameRect{rect: rect{width: 2, height: 1}}
	if err := c.compose(fr, []byte{0, 0}, pal, graphicControl{}); err != nil {
		t.Fatal(err)
	}
	if err := c.compose(fr, []byte{1, 1}, pal, graphicControl{disposal: DisposalUndo}); err != nil {
		t.Fatal(err)
	}

	if c.current[0][0] != 0x00FF00 {
		t.Fatalf("current frame not painted: %v", c.current)
	}
	// Undo disposal: the background keeps its pre-frame content.
	if c.background[0][0] != 0xFF0000 {
		t.Fatalf("background should be untouched: %v", c.background)
	}
}

func TestComposeDeferredErase(t *testing.T) {
	pal := Palette{0xFF0000, 0x00FF00}
	c := newCanvas(2, 1)

	full := frameRect{rect: rect{width: 2, height: 1}}
	if err := c.compose(full, []byte{0, 0}, pal, graphicControl{disposal: DisposalErase}); err != nil {
		t.Fatal(err)
	}
	if c.erase == nil {
		t.Fatal("erase rectangle not recorded")
	}

	left := frameRect{rect: rect{width: 1, height: 1}}
	if err := c.compose(left, []byte{1}, pal, graphicControl{}); err != nil {
		t.Fatal(err)
	}

	if c.current[0][0] != 0x00FF00 {
		t.Fatalf("frame pixel not painted: %v", c.current)
	}
	if c.current[0][1] != Transparent {
		t.Fatalf("erased pixel should be transparent: %v", c.current)
	}
}

func TestComposePixelOutsidePalette(t *testing.T) {
	c := newCanvas(1, 1)

	fr := frameRect{rect: rect{width: 1, height: 1}}
	err := c.compose(fr, []byte{5}, Palette{0xFF0000, 0x00FF00}, graphicControl{})
	if err == nil {
		t.Fatal("expected error for pixel index outside the color table")
	}
}

func TestComposeTransparencySkipsWrite(t *testing.T) {
	pal := Palette{0xFF0000, 0x00FF00}
	c := newCanvas(1, 1)

	fr := frameRect{rect: rect{width: 1, height: 1}}
	if err := c.compose(fr, []byte{0}, pal, graphicControl{}); err != nil {
		t.Fatal(err)
	}

	gc := graphicControl{transparency: true, transparentIndex: 1}
	if err := c.compose(fr, []byte{1}, pal, gc); err != nil {
		t.Fatal(err)
	}
	if c.current[0][0] != 0xFF0000 {
		t.Fatalf("transparent pixel must not overwrite: %v", c.current)
	}
}
