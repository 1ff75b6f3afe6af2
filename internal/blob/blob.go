// Package blob abstracts attachment payload storage. Attachment metadata
// lives with the owning task; blob stores only hold the bytes and hand back
// a stable key plus a URL usable by the caller.
package blob

import "context"

// Object describes one stored attachment payload.
type Object struct {
	// Name is the file name as the user provided it.
	Name string
	// Key locates the payload inside the store and is the handle for Delete
	// and Download.
	Key string
	// URL is where the payload can be fetched from. For the local store this
	// is the key itself; the remote store issues a presigned link.
	URL string
	// Size is the payload length in bytes.
	Size int64
}

// CollisionPolicy decides what happens when a file name is uploaded twice for
// the same task.
type CollisionPolicy string

const (
	// CollisionOverwrite silently replaces the previous payload.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionReject refuses the upload with ErrDuplicateName.
	CollisionReject CollisionPolicy = "reject"
)

// Valid reports whether p is a known policy.
func (p CollisionPolicy) Valid() bool {
	return p == CollisionOverwrite || p == CollisionReject
}

// Store stores attachment payloads keyed by owner and task.
type Store interface {
	// Upload stores content under the given task and returns the resulting
	// object. The key layout is store-specific.
	Upload(ctx context.Context, ownerID, taskID, fileName string, content []byte) (*Object, error)
	// List returns every object stored for the task.
	List(ctx context.Context, ownerID, taskID string) ([]*Object, error)
	// Delete removes the payload under key. Deleting an absent key is not an
	// error; the payload is gone either way.
	Delete(ctx context.Context, key string) error
	// Download returns the payload bytes under key.
	Download(ctx context.Context, key string) ([]byte, error)
}
