package postgres

import "fmt"

// span is an inclusive index range into a record slice.
type span struct {
	From int
	To   int
}

// splitSpans splits [0, n) into spans of at most chunkSize rows, so one
// pgx batch never grows unbounded.
func splitSpans(n, chunkSize int) ([]span, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero")
	}
	if n < 0 {
		return nil, fmt.Errorf("length must be non-negative")
	}

	spans := make([]span, 0)
	start := 0
	for start < n {
		end := start + chunkSize - 1
		if end >= n {
			end = n - 1
		}
		spans = append(spans, span{From: start, To: end})
		start = end + 1
	}

	return spans, nil
}
