package topology

import "github.com/dyuri/dxfconv/internal/model"

// chain is a double-ended point sequence under construction. front holds the
// prepended points in reverse order, so growth at either end never copies.
type chain struct {
	front []model.Point
	back  []model.Point
}

// newChain seeds a chain with a copy of an open fragment (at least two points).
func newChain(seed []model.Point) *chain {
	return &chain{back: append([]model.Point(nil), seed...)}
}

func (c *chain) len() int {
	return len(c.front) + len(c.back)
}

func (c *chain) first() model.Point {
	if len(c.front) > 0 {
		return c.front[len(c.front)-1]
	}
	return c.back[0]
}

func (c *chain) last() model.Point {
	return c.back[len(c.back)-1]
}

func (c *chain) closed() bool {
	return c.len() > 1 && c.first().Equal(c.last())
}

// attach merges frag onto whichever end it shares, trying append-forward,
// append-reversed, prepend-forward and prepend-reversed in that order.
func (c *chain) attach(frag []model.Point) bool {
	n := len(frag)
	if n < 2 {
		return false
	}
	first, last := c.first(), c.last()
	switch {
	case last.Equal(frag[0]):
		c.back = append(c.back, frag[1:]...)
	case last.Equal(frag[n-1]):
		for i := n - 2; i >= 0; i-- {
			c.back = append(c.back, frag[i])
		}
	case first.Equal(frag[n-1]):
		for i := n - 2; i >= 0; i-- {
			c.front = append(c.front, frag[i])
		}
	case first.Equal(frag[0]):
		c.front = append(c.front, frag[1:]...)
	default:
		return false
	}
	return true
}

// points returns the chain as one ordered sequence.
func (c *chain) points() []model.Point {
	out := make([]model.Point, 0, c.len())
	for i := len(c.front) - 1; i >= 0; i-- {
		out = append(out, c.front[i])
	}
	return append(out, c.back...)
}
