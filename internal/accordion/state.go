package accordion

import "net/url"

// QueryParam carries the expanded panel across server-rendered requests.
const QueryParam = "faq"

type PanelID string

// State is a single-selection expansion over an ordered list of panels.
// The zero State has nothing expanded.
type State struct {
	expanded PanelID
}

// Toggle collapses id when it is the expanded panel, otherwise expands it
// in place of whatever was expanded.
func (s State) Toggle(id PanelID) State {
	if id == "" || s.expanded == id {
		return State{}
	}
	return State{expanded: id}
}

// Expanded returns the expanded panel and whether there is one.
func (s State) Expanded() (PanelID, bool) {
	return s.expanded, s.expanded != ""
}

func (s State) IsExpanded(id PanelID) bool {
	return id != "" && s.expanded == id
}

// FromQuery restores state from the query value. Ids outside known
// collapse everything.
func FromQuery(value string, known []PanelID) State {
	if value == "" {
		return State{}
	}
	for _, id := range known {
		if id == PanelID(value) {
			return State{expanded: id}
		}
	}
	return State{}
}

// ToggleQuery is the query string a panel header links to: the state after
// toggling id, encoded. Collapsing yields an empty string.
func (s State) ToggleQuery(id PanelID) string {
	next := s.Toggle(id)
	expanded, ok := next.Expanded()
	if !ok {
		return ""
	}
	return url.Values{QueryParam: []string{string(expanded)}}.Encode()
}
