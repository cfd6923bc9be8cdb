package utils

// Ptr returns a pointer to v. Useful for optional fields in literals.
func Ptr[T any](v T) *T {
	return &v
}
