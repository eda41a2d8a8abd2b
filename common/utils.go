package common

// Coalesce returns the first value that is not the zero value of T, or the zero value if there is none.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// CeilDiv divides n into parts of equal size, rounding up, so that parts*CeilDiv(n, parts) >= n.
//
// Parameters:
//   - n: the number of items to split
//   - parts: the number of parts, must be positive
//
// Returns:
//   - int: the size of each part
func CeilDiv(n, parts int) int {
	return (n + parts - 1) / parts
}
