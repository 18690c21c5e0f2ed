package models

// PointableKind discriminates the domain entity a ledger entry points at.
type PointableKind string

const (
	PointableTask      PointableKind = "task"
	PointableKudo      PointableKind = "kudo"
	PointableMilestone PointableKind = "milestone"
	PointableStandup   PointableKind = "standup"
	PointableEmail     PointableKind = "email"
)

// PointableRef is a tagged reference to the domain entity that earned the
// points. Resolution of the referenced record is a per-kind concern of the
// caller; the ledger only stores the reference.
type PointableRef struct {
	Kind PointableKind `json:"kind" validate:"required"`
	ID   string        `json:"id"   validate:"required"`
}
