// Package memory provides in-memory implementations of the storage
// interfaces, used in tests and in the API layer's unit tests. Stores copy
// records on the way in and out so callers can't mutate shared state.
package memory

import "time"

func nowMs() int64 {
	return time.Now().UnixMilli()
}
