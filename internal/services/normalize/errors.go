package normalize

import "errors"

var errEmptyTitle = errors.New("normalize: raw job has no title")
