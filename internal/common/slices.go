package common

func Filter[T any](slice []T, f func(T) bool) []T {
	result := []T{}
	for _, item := range slice {
		if f(item) {
			result = append(result, item)
		}
	}
	return result
}

func Map[T, U any](slice []T, f func(T) U) []U {
	result := make([]U, 0, len(slice))
	for _, item := range slice {
		result = append(result, f(item))
	}
	return result
}
