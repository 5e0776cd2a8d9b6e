package lambda

// Unknown is the display name of an index that escapes its context.
const Unknown = "?"

// Context is the ordered stack of free variable names a term is read
// against. The most recently pushed name has index 0.
//
// A nil *Context behaves as an empty context.
type Context struct {
	names []string
}

// NewContext returns a context holding names, the last one on top.
func NewContext(names ...string) *Context {
	c := &Context{names: make([]string, 0, len(names))}
	c.names = append(c.names, names...)
	return c
}

// Push appends name to the top of the context.
func (c *Context) Push(name string) {
	c.names = append(c.names, name)
}

// Pop removes and returns the top name. Popping an empty context is a
// programming error.
func (c *Context) Pop() string {
	if c.Len() == 0 {
		panic("lambda: pop from empty context")
	}
	last := c.names[len(c.names)-1]
	c.names = c.names[:len(c.names)-1]
	return last
}

// Len returns the number of names in the context.
func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Lookup returns the index of the most recently pushed occurrence of name.
func (c *Context) Lookup(name string) (int, bool) {
	for i := c.Len() - 1; i >= 0; i-- {
		if c.names[i] == name {
			return c.Len() - 1 - i, true
		}
	}
	return 0, false
}

// Name maps an index back to its display name, or Unknown when the index
// escapes the context.
func (c *Context) Name(index int) string {
	if index < 0 || index >= c.Len() {
		return Unknown
	}
	return c.names[c.Len()-1-index]
}

// Contains reports whether name occurs anywhere in the context.
func (c *Context) Contains(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Names returns a copy of the context, bottom first.
func (c *Context) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
