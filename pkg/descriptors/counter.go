package descriptors

// ContourCounter hands out run-wide contour numbers used to name contour
// images. It is not safe for concurrent use; the pipeline only calls it from
// the ordered emit stage.
type ContourCounter struct {
	next int
}

// NewContourCounter creates a counter whose first number is start
func NewContourCounter(start int) *ContourCounter {
	return &ContourCounter{next: start}
}

// Next returns the current number and advances the counter
func (c *ContourCounter) Next() int {
	k := c.next
	c.next++
	return k
}

// Peek returns the number the next call to Next will return
func (c *ContourCounter) Peek() int {
	return c.next
}
