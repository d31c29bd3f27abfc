package csventity

// DefaultPrefixKey is the Context key holding the prefix assigned to
// composite identifiers that are read without one.
const DefaultPrefixKey = "csventity.defaultPrefix"

// Context carries values shared by converters and handlers for the lifetime
// of one read or write session. It is not safe for concurrent use.
type Context struct {
	values map[string]any
}

// NewContext creates an empty session context
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Get returns the value stored under key
func (c *Context) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[key]
	return v, ok
}

// Put stores value under key
func (c *Context) Put(key string, value any) {
	c.values[key] = value
}

// DefaultPrefix returns the prefix given to identifiers read without one
func (c *Context) DefaultPrefix() string {
	v, ok := c.Get(DefaultPrefixKey)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// SetDefaultPrefix sets the prefix given to identifiers read without one.
// Handlers typically call this while receiving a parent record type so that
// later types resolve against it.
func (c *Context) SetDefaultPrefix(prefix string) {
	c.Put(DefaultPrefixKey, prefix)
}

// stringPool collapses equal strings seen during one read session to a single
// shared value. It is created per session and dropped with it.
type stringPool struct {
	seen map[string]string
}

// newStringPool creates an empty pool
func newStringPool() *stringPool {
	return &stringPool{seen: make(map[string]string)}
}

// intern returns the first equal string registered in the pool, registering
// s if none was seen yet.
func (p *stringPool) intern(s string) string {
	if v, ok := p.seen[s]; ok {
		return v
	}
	p.seen[s] = s
	return s
}

// internAll interns every field in place
func (p *stringPool) internAll(fields []string) {
	for i, f := range fields {
		fields[i] = p.intern(f)
	}
}
