package db

import "fmt"

// MaxPartitionIDLen is the longest byte identifier a partition may use.
const MaxPartitionIDLen = 255

// Partition names a logical dataset inside one engine instance. ID is the
// on-disk namespace tag and must never change once data has been written.
type Partition struct {
	Name string
	ID   []byte
}

func (p Partition) String() string {
	return p.Name
}

// Validate checks that the partition can be mapped onto the engine.
func (p Partition) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("partition with id %x has no name", p.ID)
	}
	if len(p.ID) == 0 {
		return fmt.Errorf("partition %q has an empty id", p.Name)
	}
	if len(p.ID) > MaxPartitionIDLen {
		return fmt.Errorf("partition %q id is %d bytes, max is %d", p.Name, len(p.ID), MaxPartitionIDLen)
	}
	return nil
}
