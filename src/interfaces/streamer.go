package interfaces

import (
	"context"

	"resource-streamer/src/models"
)

// -----------------------------------------------------------------------------

// IResourceStreamer is the control surface exposed to the transport layer:
// start, stop, list and read of streaming resources.
type IResourceStreamer interface {
	// Start subscribes a resource. A second start with the same derived id
	// returns the existing descriptor with StartAlreadySubscribed and
	// performs no new gateway call.
	Start(ctx context.Context, resourceType models.MResourceType, params models.MResourceParams) (models.MResourceDescriptor, models.MStartStatus, error)

	// Stop cancels the pump, detaches from the gateway and removes the
	// resource. Unknown ids report ErrNotFound.
	Stop(ctx context.Context, resourceType models.MResourceType, resourceID string) error

	// Read returns the latest snapshot. resourceID may be the wildcard "*",
	// which merges all live resources of the type at read time.
	Read(resourceType models.MResourceType, resourceID string) (*models.MSnapshot, error)

	// List returns every live resource with its status and last event time,
	// grouped by type.
	List() []models.MResourceInfo
}
