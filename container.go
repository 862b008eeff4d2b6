package diorama

import "reflect"

// Container is the host the compositor draws for. Size reports the host's
// measured size in pixels; zero or negative values make the compositor fall
// back to DefaultWidth x DefaultHeight.
type Container interface {
	Size() (width, height int)
}

// ContainerFunc adapts a function to the Container interface.
type ContainerFunc func() (width, height int)

// Size calls f.
func (f ContainerFunc) Size() (int, int) {
	return f()
}

// FixedContainer is a container with a settable size.
type FixedContainer struct {
	Width  int
	Height int
}

// Size returns the stored dimensions.
func (c *FixedContainer) Size() (int, int) {
	return c.Width, c.Height
}

// isNilContainer reports whether c is nil or wraps a nil pointer, func,
// map or interface that would fault when Size is called.
func isNilContainer(c Container) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// measure returns the container's size with the default fallback applied.
func measure(c Container) (int, int) {
	return sanitizeSize(c.Size())
}
