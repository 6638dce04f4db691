package main

import "io"

type state int

const (
	// start of input, a UTF-8 byte order mark may follow.
	bom state = iota
	// outside of quoted field.
	start
	// in quoted field
	quoted
	// in quoted field and that previous character was a backslash
	escape
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// converter adapts spreadsheet CSV exports for encoding/csv: it drops a
// leading byte order mark, which would otherwise become part of the first
// header name, and rewrites backslash escapes inside quoted fields.
type converter struct {
	delegate  io.Reader
	buf       []byte // place we read into
	remaining []byte // what is still left to be read from
	escaped   []byte // if non-empty, contains raw bytes ready to be copied to output, before remaining
	s         state
}

func newConverter(r io.Reader) *converter {
	return &converter{
		delegate: r,
		buf:      make([]byte, 4096),
	}
}

func (c *converter) fill() error {
	n, err := c.delegate.Read(c.buf)
	c.remaining = c.buf[:n]
	if n > 0 {
		return nil
	}
	return err
}

// skipBOM consumes the byte order mark, reading more input if the first read
// returned fewer than three bytes.
func (c *converter) skipBOM() error {
	var head []byte
	for len(head) < len(utf8BOM) {
		if len(c.remaining) == 0 {
			if err := c.fill(); err != nil {
				c.remaining = head
				if err == io.EOF && len(head) > 0 {
					return nil
				}
				return err
			}
		}
		need := len(utf8BOM) - len(head)
		if need > len(c.remaining) {
			need = len(c.remaining)
		}
		head = append(head, c.remaining[:need]...)
		c.remaining = c.remaining[need:]
		if string(head) != string(utf8BOM[:len(head)]) {
			c.remaining = append(head, c.remaining...)
			return nil
		}
	}
	return nil
}

func (c *converter) Read(p []byte) (n int, err error) {
	if c.s == bom {
		c.s = start
		if err := c.skipBOM(); err != nil {
			return 0, err
		}
	}

	if len(c.escaped) != 0 {
		n = copy(p, c.escaped)
		c.escaped = c.escaped[n:]
		return n, nil
	}

	if len(c.remaining) == 0 {
		if err := c.fill(); err != nil {
			return 0, err
		}
	}

	i := 0 // cursor to p
	for i < len(p) && len(c.remaining) != 0 {
		next := c.remaining[0]
		c.remaining = c.remaining[1:]
		switch c.s {
		case start:
			p[i] = next
			i++
			if next == '"' {
				c.s = quoted
			}
		case quoted:
			switch next {
			case '"':
				p[i] = next
				i++
				c.s = start
			case '\\':
				c.s = escape
			default:
				p[i] = next
				i++
			}
		case escape:
			switch next {
			case '"':
				c.escaped = []byte{'"', '"'}
			case 'n':
				c.escaped = []byte{'\n'}
			default:
				c.escaped = []byte{next}
			}
			c.s = quoted
			return i, nil
		}
	}

	return i, nil
}
