package resolve

import "errors"

// ErrNoRootArtifact is returned when a CollectRequest supplies neither a
// root artifact nor a root dependency; one of the two is required to seed
// either the real or the synthetic root.
var ErrNoRootArtifact = errors.New("resolve: request has neither root artifact nor root dependency")

// DependencyCollectionException is returned when Collect recorded one or
// more exceptions during traversal. It always carries
// the (possibly partial) Result alongside the first error path, so callers
// can choose to proceed with a partial graph instead of failing outright.
type DependencyCollectionException struct {
	Result     *Result
	FirstPath  string
	FirstCause error
}

func (e *DependencyCollectionException) Error() string {
	return "resolve: dependency collection recorded errors, first at " + e.FirstPath + ": " + e.FirstCause.Error()
}

func (e *DependencyCollectionException) Unwrap() error {
	return e.FirstCause
}
