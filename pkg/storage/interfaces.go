package storage

import (
	"fmt"

	"kwcluster/pkg/keyword"
)

// TableKey identifies a normalized table by the bytes it came from and how they were read.
type TableKey struct {
	ContentHash string
	Schema      string
	Sheet       string
}

func (k TableKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.ContentHash, k.Schema, k.Sheet)
}

// TableCache memoizes normalized tables. Cached tables are shared and must not be mutated.
type TableCache interface {
	Get(key TableKey) (*keyword.Table, bool)
	Set(key TableKey, table *keyword.Table)
	Clear()
	Stats() CacheStats
}
