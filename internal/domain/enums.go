package domain

// LinkType is a predecessor relationship type.
type LinkType string

const (
	LinkFinishToStart  LinkType = "FS"
	LinkStartToStart   LinkType = "SS"
	LinkFinishToFinish LinkType = "FF"
	LinkStartToFinish  LinkType = "SF"
)

// ValidLinkTypes is the canonical set of accepted link type tokens.
var ValidLinkTypes = map[LinkType]bool{
	LinkFinishToStart:  true,
	LinkStartToStart:   true,
	LinkFinishToFinish: true,
	LinkStartToFinish:  true,
}

// Placement says where a task goes relative to an anchor task.
type Placement string

const (
	PlaceAbove Placement = "above"
	PlaceBelow Placement = "below"
	PlaceInto  Placement = "into" // last child of the anchor
	PlaceEnd   Placement = "end"  // end of the outline, no anchor
)
