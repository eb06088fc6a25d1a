package document

import "errors"

// ErrStorageDisabled is returned by Upload when no blob store is configured.
var ErrStorageDisabled = errors.New("document storage is not configured")
