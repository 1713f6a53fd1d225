package tmplog

import "strconv"

// EventID is a stable, searchable identifier for a log call site.
type EventID struct {
	ID   int
	Name string
}

// Event returns an EventID carrying id and no name.
func Event(id int) EventID {
	return EventID{ID: id}
}

// IsZero reports whether the event id carries neither an id nor a name.
func (e EventID) IsZero() bool {
	return e.ID == 0 && e.Name == ""
}

func (e EventID) String() string {
	if e.Name == "" {
		return strconv.Itoa(e.ID)
	}
	return strconv.Itoa(e.ID) + ":" + e.Name
}
