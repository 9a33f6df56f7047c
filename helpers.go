package tymbox

func ternary[T any](condition bool, value1, value2 T) T {
	if condition {
		return value1
	}

	return value2
}

func valueOr[T any](pointer *T, fallback T) T {
	if pointer == nil {
		return fallback
	}

	return *pointer
}
