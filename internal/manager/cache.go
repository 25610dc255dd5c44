package manager

// cache holds the rows of one table for the current principal. The zero
// value is empty.
type cache[T any] struct {
	rows   []T
	loaded bool
}

func (c *cache[T]) get(load func() ([]T, error)) ([]T, error) {
	if c.loaded {
		return c.rows, nil
	}
	rows, err := load()
	if err != nil {
		return nil, err
	}
	c.rows, c.loaded = rows, true
	return rows, nil
}

func (c *cache[T]) invalidate() {
	c.rows, c.loaded = nil, false
}
