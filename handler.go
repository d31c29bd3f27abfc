package csventity

// Handler receives every decoded entity of a read session, in line order.
// Returning an error aborts the current resource.
type Handler interface {
	Handle(entity any) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(entity any) error

// Handle implements Handler
func (f HandlerFunc) Handle(entity any) error {
	return f(entity)
}

// Flusher is implemented by handlers that buffer entities. The reader calls
// Flush after each resource completes, bounding what the handler holds.
// Flush is a memory boundary, not a commit: entities already delivered stay
// delivered if a later resource fails.
type Flusher interface {
	Flush() error
}

// Collector is a Handler that keeps every entity of type *T and ignores the rest.
type Collector[T any] struct {
	entities []*T
}

// NewCollector creates an empty collector
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{}
}

// Handle implements Handler
func (c *Collector[T]) Handle(entity any) error {
	if e, ok := entity.(*T); ok {
		c.entities = append(c.entities, e)
	}
	return nil
}

// Entities returns the collected entities in arrival order
func (c *Collector[T]) Entities() []*T {
	return c.entities
}

// Len returns the number of collected entities
func (c *Collector[T]) Len() int {
	return len(c.entities)
}

// Entities converts a typed slice to the []any form taken by
// Writer.ExcludeOptionalAndMissingFields.
func Entities[T any](items []*T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
