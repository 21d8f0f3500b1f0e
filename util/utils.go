// Package util holds small generic slice helpers shared by the delta, ol
// and server packages.
package util

// MapN applies fn to every element and stops at the first error.
func MapN[T, V any](ts []T, fn func(T) (V, error)) ([]V, error) {
	result := make([]V, 0, len(ts))
	for _, t := range ts {
		v, err := fn(t)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

func Filter[T any](ts []T, fn func(T) bool) []T {
	result := []T{}
	for _, v := range ts {
		if fn(v) {
			result = append(result, v)
		}
	}
	return result
}

func Reduce[T, V any](ts []T, acc func(t T, v V) V, base V) V {
	for _, v := range ts {
		base = acc(v, base)
	}

	return base
}

// Choose is a ternary.
func Choose[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
