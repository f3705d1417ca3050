package engine

// Canvas holds the latest drawing buffer for one room. Strokes replace the
// buffer wholesale, last writer wins by arrival order at the router. No
// history or undo stack is kept.
type Canvas struct {
	buf []byte
}

func NewCanvas() *Canvas {
	return &Canvas{}
}

// ApplyStroke installs the new buffer. An empty stroke clears the canvas.
func (c *Canvas) ApplyStroke(data []byte) {
	if len(data) == 0 {
		c.buf = nil
		return
	}
	c.buf = make([]byte, len(data))
	copy(c.buf, data)
}

// Snapshot returns a copy of the current buffer for replay to a joiner.
func (c *Canvas) Snapshot() []byte {
	if len(c.buf) == 0 {
		return nil
	}
	out := make([]byte, len(c.buf))
	copy(out, c.buf)
	return out
}
