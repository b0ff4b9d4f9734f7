package pipeline

// descriptorReserve is the number of file descriptors kept free for
// everything other than probe connections: standard streams, log and export
// files, DNS sockets.
const descriptorReserve = 64

// FixedCapacity returns a CapacityFunc that always grants at most n.
func FixedCapacity(n int) CapacityFunc {
	return func(requested int) (int, error) {
		if requested < n {
			return requested, nil
		}
		return n, nil
	}
}
