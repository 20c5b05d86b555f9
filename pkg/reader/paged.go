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
package reader

import (
	"container/list"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// PageSize is the granularity of cached reads.
	PageSize = 32 * 1024

	// maxPages bounds the cache. Decoding walks the container mostly
	// forward, seeking back only to the first frame offset, so a handful
	// of pages covers the working set.
	maxPages = 3
)

var (
	ErrOutOfRange = errors.New("reader: read out of range")
	ErrClosed     = errors.New("reader: closed")
)

type page struct {
	index int64
	data  []byte // shorter than PageSize only on the last page
}

// PagedReader is a random-access byte source over an opened file. It keeps
// a movable logical cursor and serves reads out of an LRU cache of
// fixed-size pages, so that backward seeks do not hit the disk again as
// long as the page is still fresh.
type PagedReader struct {
	f    *os.File
	size int64
	pos  int64

	pages map[int64]*list.Element
	fresh *list.List // front is the most recently used page
}

// Open opens path read-only and captures its total size.
func Open(path string) (*PagedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &PagedReader{
		f:     f,
		size:  info.Size(),
		pages: make(map[int64]*list.Element, maxPages),
		fresh: list.New(),
	}, nil
}

// Size returns the total file size in bytes.
func (r *PagedReader) Size() int64 {
	return r.size
}

// Offset returns the logical cursor.
func (r *PagedReader) Offset() int64 {
	return r.pos
}

// Jump moves the logical cursor to off. Bounds are checked on the next read.
func (r *PagedReader) Jump(off int64) {
	r.pos = off
}

// Skip moves the logical cursor by n bytes, which may be negative.
func (r *PagedReader) Skip(n int64) {
	r.pos += n
}

func (r *PagedReader) page(idx int64) (*page, error) {
	if el, ok := r.pages[idx]; ok {
		if el != r.fresh.Front() {
			r.fresh.MoveToFront(el)
		}
		return el.Value.(*page), nil
	}

	if r.fresh.Len() == maxPages {
		oldest := r.fresh.Back()
		r.fresh.Remove(oldest)
		delete(r.pages, oldest.Value.(*page).index)
	}

	buf := make([]byte, PageSize)
	n, err := r.f.ReadAt(buf, idx*PageSize)
	if err != nil && err != io.EOF {
		return nil, err
	}

	p := &page{index: idx, data: buf[:n]}
	r.pages[idx] = r.fresh.PushFront(p)
	return p, nil
}

// ReadString returns the next n raw bytes and advances the cursor. A read
// crossing a page boundary is served by concatenating successive pages.
func (r *PagedReader) ReadString(n int) ([]byte, error) {
	if r.f == nil {
		return nil, ErrClosed
	}
	if n < 0 {
		return nil, fmt.Errorf("reader: negative length: %d", n)
	}
	if r.pos < 0 || r.pos+int64(n) > r.size {
		return nil, fmt.Errorf("%w: %d bytes at offset %d, file size %d", ErrOutOfRange, n, r.pos, r.size)
	}

	out := make([]byte, n)
	copied := 0
	for copied < n {
		off := r.pos + int64(copied)

		p, err := r.page(off / PageSize)
		if err != nil {
			return nil, err
		}
		copied += copy(out[copied:], p.data[off%PageSize:])
	}
	r.pos += int64(n)
	return out, nil
}

// ReadByte reads one unsigned byte.
func (r *PagedReader) ReadByte() (byte, error) {
	buf, err := r.ReadString(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadBytes reads k unsigned bytes.
func (r *PagedReader) ReadBytes(k int) ([]byte, error) {
	return r.ReadString(k)
}

// ReadWord reads one little-endian unsigned 16-bit integer.
func (r *PagedReader) ReadWord() (uint16, error) {
	buf, err := r.ReadString(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadWords reads k little-endian unsigned 16-bit integers.
func (r *PagedReader) ReadWords(k int) ([]uint16, error) {
	buf, err := r.ReadString(2 * k)
	if err != nil {
		return nil, err
	}
	words := make([]uint16, k)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(buf[2*i:])
	}
	return words, nil
}

// Close releases the file handle and the page cache. Calling Close more
// than once is a no-op; reads after Close fail with ErrClosed.
func (r *PagedReader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	r.pages = nil
	r.fresh = nil
	return err
}
