package functional

func Map[T any, R any](items []T, f func(T) R) []R {
	result := make([]R, len(items))
	for i, v := range items {
		result[i] = f(v)
	}
	return result
}

// Window returns the items in [offset, offset+limit). Out of range bounds are
// clamped, so the result may be empty but is never nil.
func Window[T any](items []T, offset, limit int64) []T {
	size := int64(len(items))
	if offset < 0 {
		offset = 0
	}
	if offset >= size || limit <= 0 {
		return []T{}
	}

	end := offset + limit
	if end > size || end < offset {
		end = size
	}
	return items[offset:end]
}
