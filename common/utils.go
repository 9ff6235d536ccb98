package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Partition splits [0, n) into ceil(n/size) consecutive spans of min(size, n-start) elements.
// No empty trailing span is produced. Returns nil when n <= 0 or size <= 0.
//
// Parameters:
//   - n: total number of elements
//   - size: maximum number of elements per span
//
// Returns:
//   - []Span: the spans in ascending order
func Partition(n, size int) []Span {
	if n <= 0 || size <= 0 {
		return nil
	}
	spans := make([]Span, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		spans = append(spans, Span{Start: start, Count: min(size, n-start)})
	}
	return spans
}
