package catalog

import "errors"

// ErrNotFound is returned when an item id is not in the catalog so HTTP handlers can respond with 404.
var ErrNotFound = errors.New("catalog item not found")
