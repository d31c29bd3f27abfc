package csventity

// Extensible is implemented by entities that can carry extension records.
// An extension is addressed by the record type tag of its schema; an entity
// holds at most one extension per tag.
type Extensible interface {
	// PutExtension attaches ext under tag, replacing any previous one
	PutExtension(tag string, ext any)
	// Extension returns the extension attached under tag, or nil
	Extension(tag string) any
}

// Extensions is an embeddable Extensible implementation.
//
//	type Stop struct {
//		csventity.Extensions
//		ID   string
//		Name string
//	}
type Extensions struct {
	byTag map[string]any
}

// PutExtension implements Extensible
func (e *Extensions) PutExtension(tag string, ext any) {
	if e.byTag == nil {
		e.byTag = make(map[string]any)
	}
	e.byTag[tag] = ext
}

// Extension implements Extensible
func (e *Extensions) Extension(tag string) any {
	if e.byTag == nil {
		return nil
	}
	return e.byTag[tag]
}

// ExtensionOf returns the extension of type *E attached under tag
func ExtensionOf[E any](entity Extensible, tag string) (*E, bool) {
	ext, ok := entity.Extension(tag).(*E)
	return ext, ok && ext != nil
}
