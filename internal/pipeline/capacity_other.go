//go:build !linux && !darwin

package pipeline

// DescriptorCapacity is the default CapacityFunc. Descriptor limits are not
// inspected on this platform, so the requested concurrency is granted.
func DescriptorCapacity(requested int) (int, error) {
	return requested, nil
}
