package model

// Attribute keys recognised in #EXTINF lines.
const (
	AttrTvgID      = "tvg-id"
	AttrTvgName    = "tvg-name"
	AttrTvgLogo    = "tvg-logo"
	AttrGroupTitle = "group-title"
)

// Entry is one candidate stream discovered in a playlist.
//
// Link is the identity of the entry and is never changed after creation.
// Status is the only field mutated afterwards, once per probe pass;
// rerunning a pass overwrites it.
type Entry struct {
	// Name is the display label, arbitrary Unicode.
	Name string `json:"name"`

	// Link is the endpoint address. Any scheme is allowed.
	Link string `json:"link"`

	// Status is the outcome of the most recent probe.
	Status Status `json:"status"`

	// Attributes holds EXTINF attributes such as tvg-id and group-title.
	// They are informational and never influence probing.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NewEntry creates an untested entry.
func NewEntry(name, link string) *Entry {
	return &Entry{
		Name:   name,
		Link:   link,
		Status: StatusUntested,
	}
}

// Attr returns the named attribute or the empty string.
func (e *Entry) Attr(key string) string {
	if e.Attributes == nil {
		return ""
	}
	return e.Attributes[key]
}

// ResetStatus marks every entry as untested again.
// It is used before a new probe pass over an existing list.
func ResetStatus(entries []*Entry) {
	for _, e := range entries {
		e.Status = StatusUntested
	}
}

// FilterByStatus returns the entries whose status is s, in input order.
func FilterByStatus(entries []*Entry, s Status) []*Entry {
	filtered := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.Status == s {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Dedup removes entries whose Link was already seen, keeping the first.
// Entries with an empty Link are dropped.
func Dedup(entries []*Entry) []*Entry {
	seen := make(map[string]struct{}, len(entries))
	result := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.Link == "" {
			continue
		}
		if _, ok := seen[e.Link]; ok {
			continue
		}
		seen[e.Link] = struct{}{}
		result = append(result, e)
	}
	return result
}
