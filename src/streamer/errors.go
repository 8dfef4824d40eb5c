package streamer

import "errors"

// -----------------------------------------------------------------------------
// Error taxonomy for the subsystem. Every control operation distinguishes
// these kinds explicitly; failures are resource-scoped, never subsystem-fatal.
// Callers match with errors.Is.
// -----------------------------------------------------------------------------

var (
	// ErrNotFound: stop on an id never created
	ErrNotFound = errors.New("resource not found")

	// ErrNotSubscribed: read before start on a resource requiring explicit
	// activation (including static resources such as bulletins)
	ErrNotSubscribed = errors.New("resource not subscribed")

	// ErrConnectionLost: the gateway signaled failure for this resource;
	// the entry stays listed as errored until an explicit stop
	ErrConnectionLost = errors.New("resource connection lost")

	// ErrEmptyAggregate: wildcard read with zero underlying concrete
	// resources of the requested type
	ErrEmptyAggregate = errors.New("no live resources for aggregate")

	// ErrAttachTimeout: the gateway did not acknowledge attach in time;
	// any partial registry insert is rolled back
	ErrAttachTimeout = errors.New("gateway attach timed out")

	// ErrDetachTimeout: the gateway did not acknowledge detach in time
	ErrDetachTimeout = errors.New("gateway detach timed out")

	// ErrWildcardNotStartable: "*" is a read-time view, never a
	// standalone subscription
	ErrWildcardNotStartable = errors.New("wildcard resource cannot be started")

	// ErrInvalidResource: unknown resource type or missing required params
	ErrInvalidResource = errors.New("invalid resource request")
)
