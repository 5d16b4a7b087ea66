// Package sequence hands out monotonically increasing numbers for identifiers
// such as user ids, CRNs and section numbers. Each owner holds its own Counter;
// nothing here is process-wide.
package sequence

import (
	"fmt"
	"sync"
)

// Generator yields the next value of a sequence.
type Generator interface {
	Next() int64
}

// Counter is a Generator that starts just above a reserved base value.
type Counter struct {
	mu   sync.Mutex
	last int64
}

// NewCounter creates a counter whose first Next returns base+1.
func NewCounter(base int64) *Counter {
	return &Counter{last: base}
}

// Next returns the next value in the sequence.
func (c *Counter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	return c.last
}

// Last returns the most recently issued value, or the base if none was issued.
func (c *Counter) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Formatter renders sequence values as zero-padded fixed-width strings.
type Formatter struct {
	gen   Generator
	width int
}

// NewFormatter wraps gen so values come out padded to width digits.
func NewFormatter(gen Generator, width int) *Formatter {
	return &Formatter{gen: gen, width: width}
}

// Next returns the next value as a padded string.
func (f *Formatter) Next() string {
	return fmt.Sprintf("%0*d", f.width, f.gen.Next())
}
