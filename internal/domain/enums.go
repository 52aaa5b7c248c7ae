package domain

// CardStatus is the board column a card sits in. Any status may transition
// to any other.
type CardStatus string

const (
	CardStatusPlanning   CardStatus = "PLANNING"
	CardStatusInProgress CardStatus = "IN_PROGRESS"
	CardStatusDone       CardStatus = "DONE"
)

func (s CardStatus) String() string { return string(s) }

func (s CardStatus) IsValid() bool {
	switch s {
	case CardStatusPlanning, CardStatusInProgress, CardStatusDone:
		return true
	}
	return false
}

// CardStatuses returns every status in board order.
func CardStatuses() []CardStatus {
	return []CardStatus{CardStatusPlanning, CardStatusInProgress, CardStatusDone}
}

// ChangeKind classifies a structural change on the board.
type ChangeKind string

const (
	ChangeKindCreated   ChangeKind = "CREATED"
	ChangeKindMoved     ChangeKind = "MOVED"
	ChangeKindReordered ChangeKind = "REORDERED"
	ChangeKindDeleted   ChangeKind = "DELETED"
	ChangeKindRestored  ChangeKind = "RESTORED"
)

func (k ChangeKind) String() string { return string(k) }

func (k ChangeKind) IsValid() bool {
	switch k {
	case ChangeKindCreated, ChangeKindMoved, ChangeKindReordered, ChangeKindDeleted, ChangeKindRestored:
		return true
	}
	return false
}

// DependentKind is one of the collections that follow a card's
// alive/dead state.
type DependentKind string

const (
	DependentChecklistItem DependentKind = "CHECKLIST_ITEM"
	DependentLink          DependentKind = "LINK"
	DependentFeedback      DependentKind = "FEEDBACK"
	DependentAttachment    DependentKind = "ATTACHMENT"
)

func (k DependentKind) String() string { return string(k) }

func (k DependentKind) IsValid() bool {
	switch k {
	case DependentChecklistItem, DependentLink, DependentFeedback, DependentAttachment:
		return true
	}
	return false
}

// CascadeKinds is the closed set of dependents that are soft-deleted and
// restored together with their card. Mentions are not part of it.
func CascadeKinds() []DependentKind {
	return []DependentKind{DependentChecklistItem, DependentLink, DependentFeedback, DependentAttachment}
}
