package ecs

// EachOf calls fn for every live component of concrete type T in the scene,
// in object then attachment order.
func EachOf[T Component](s *Scene, fn func(*GameObject, T)) {
	for _, o := range s.objects {
		if o.Destroyed() {
			continue
		}
		for _, c := range o.Components() {
			if t, ok := c.(T); ok {
				fn(o, t)
			}
		}
	}
}

// CountOf returns how many live components of type T the scene holds.
func CountOf[T Component](s *Scene) int {
	n := 0
	EachOf(s, func(*GameObject, T) { n++ })
	return n
}
