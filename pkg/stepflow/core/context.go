package core

import "sort"

// Context is the string-keyed variable map shared by every step of one
// instance. It is owned by exactly one tick at a time; the engine's
// per-instance serialization is the only concurrency guard, so a Context must
// never be retained past the Execute call that received it.
type Context struct {
	vars map[string]string
}

func NewContext(vars map[string]string) *Context {
	c := &Context{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		c.vars[k] = v
	}
	return c
}

// Get returns the value for key and whether it was present.
func (c *Context) Get(key string) (string, bool) {
	v, ok := c.vars[key]
	return v, ok
}

// GetOr returns the value for key, or def when absent.
func (c *Context) GetOr(key, def string) string {
	if v, ok := c.vars[key]; ok {
		return v
	}
	return def
}

func (c *Context) Set(key, value string) {
	c.vars[key] = value
}

func (c *Context) Delete(key string) {
	delete(c.vars, key)
}

// Keys returns the variable names in sorted order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.vars))
	for k := range c.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the underlying map, safe to persist or hand to
// another goroutine.
func (c *Context) Snapshot() map[string]string {
	out := make(map[string]string, len(c.vars))
	for k, v := range c.vars {
		out[k] = v
	}
	return out
}
