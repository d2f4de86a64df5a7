package jointpose

import "time"

// HistoryCap bounds each channel's undo history.
const HistoryCap = 20

// DebounceWindow groups writes closer together than this into one undo step.
// A write exactly one window after the last starts a new step.
const DebounceWindow = 300 * time.Millisecond

// channel is one undoable value. history[0] is the most recent entry;
// cursor counts how many steps have been undone.
type channel[T any] struct {
	delta     T
	history   []T
	cursor    int
	lastWrite time.Time
}

// set overwrites the delta, pushing the previous value first unless the last
// write was less than window ago.
func (c *channel[T]) set(v T, now time.Time, window time.Duration) {
	if now.Sub(c.lastWrite) >= window {
		if c.cursor > 0 {
			drop := c.cursor + 1
			if drop > len(c.history) {
				drop = len(c.history)
			}
			c.history = c.history[drop:]
			c.cursor = 0
		}
		c.history = append([]T{c.delta}, c.history...)
		if len(c.history) > HistoryCap {
			c.history = c.history[:HistoryCap]
		}
	}
	c.lastWrite = now
	c.delta = v
}

// load writes the delta without touching history.
func (c *channel[T]) load(v T) {
	c.delta = v
}

func (c *channel[T]) undo() bool {
	if len(c.history) == 0 {
		return false
	}
	if c.cursor == 0 {
		c.history = append([]T{c.delta}, c.history...)
	}
	c.cursor++
	if c.cursor > len(c.history)-1 {
		c.cursor = len(c.history) - 1
	}
	c.delta = c.history[c.cursor]
	return true
}

func (c *channel[T]) redo() bool {
	if len(c.history) == 0 || c.cursor == 0 {
		return false
	}
	c.cursor--
	c.delta = c.history[c.cursor]
	if c.cursor == 0 {
		c.history = c.history[1:]
	}
	return true
}

func (c *channel[T]) canUndo() bool {
	switch len(c.history) {
	case 0:
		return false
	case 1:
		return true
	default:
		return c.cursor != len(c.history)-1
	}
}

func (c *channel[T]) canRedo() bool {
	return c.cursor > 0
}

func (c *channel[T]) purge() {
	c.history = nil
	c.cursor = 0
	c.lastWrite = time.Time{}
}
