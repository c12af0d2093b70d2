package store

import (
	"github.com/eigerco/tablestore/pkg/db"
)

// Partition ids. They are the on-disk namespace tags: never reuse or
// renumber one, only append.
const (
	prefixUsers byte = iota + 1
	prefixGroups
	prefixSessions
	prefixSettings
)

var (
	Users    = db.Partition{Name: "users", ID: []byte{prefixUsers}}
	Groups   = db.Partition{Name: "groups", ID: []byte{prefixGroups}}
	Sessions = db.Partition{Name: "sessions", ID: []byte{prefixSessions}}
	Settings = db.Partition{Name: "settings", ID: []byte{prefixSettings}}
)

// Partitions returns every declared partition in declaration order.
func Partitions() []db.Partition {
	return []db.Partition{Users, Groups, Sessions, Settings}
}

// PartitionByName looks up a declared partition.
func PartitionByName(name string) (db.Partition, bool) {
	for _, p := range Partitions() {
		if p.Name == name {
			return p, true
		}
	}
	return db.Partition{}, false
}
