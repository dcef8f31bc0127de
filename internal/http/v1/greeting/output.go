package greeting

// Output is the response wrapper for the root operation.
type Output struct {
	Body Data
}
