package utils

// SliceToSet builds a membership set from a slice. The session uses it to
// validate manual transport mode names.
func SliceToSet[T comparable](slice []T) map[T]struct{} {
	set := make(map[T]struct{}, len(slice))
	for _, item := range slice {
		set[item] = struct{}{}
	}
	return set
}
