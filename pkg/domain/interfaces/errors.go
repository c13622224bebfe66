package interfaces

import "github.com/m-mizutani/goerr/v2"

// ErrNotFound is returned (wrapped) by repositories when the requested
// entity does not exist. Singleton collections (profile, key pool) never
// return it; they read back as empty values instead.
var ErrNotFound = goerr.New("not found")
