package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Partition is one independently ordered list of cards.
type Partition struct {
	ProjectID uuid.UUID
	Lane      LaneKey
	Status    CardStatus
}

func (p Partition) String() string {
	return fmt.Sprintf("%s|%s|%s", p.ProjectID, p.Lane, p.Status)
}

// LockKey is the serialization key for the partition.
func (p Partition) LockKey() string { return "partition:" + p.String() }

// LedgerRow is a card's position inside one partition at a point in time.
// A card has at most one alive row across all partitions.
type LedgerRow struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	CardID    uuid.UUID
	Lane      LaneKey
	Status    CardStatus
	Position  int
	CreatedAt time.Time
	DeletedAt *time.Time
}

// Partition returns the partition the row belongs to.
func (r LedgerRow) Partition() Partition {
	return Partition{ProjectID: r.ProjectID, Lane: r.Lane, Status: r.Status}
}

// PositionUpdate assigns a new position to an existing row.
type PositionUpdate struct {
	ID       uuid.UUID
	Position int
}

// PartitionView is an ordered snapshot of one partition.
type PartitionView struct {
	Partition Partition
	CardIDs   []uuid.UUID
}
