package storage

import "fmt"

// ArtifactKey returns the object key for a named result artifact. Keys are
// namespaced per owner so artifacts of different owners never collide; they
// are opaque to everything above this package.
func ArtifactKey(ownerID, jobID, name, ext string) string {
	return fmt.Sprintf("owner/%s/results/%s/%s.%s", ownerID, jobID, name, ext)
}
