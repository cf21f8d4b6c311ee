package persistence

import "errors"

var errIncompleteConfig = errors.New("influx config incomplete")
