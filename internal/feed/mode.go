package feed

// ModeKind selects which remote timeline is queried.
type ModeKind int

const (
	ModeTimeline ModeKind = iota
	ModeTag
)

// Mode is the active feed source. Tag is only meaningful for ModeTag.
type Mode struct {
	Kind ModeKind
	Tag  string
}

// Timeline is the instance's public timeline.
func Timeline() Mode {
	return Mode{Kind: ModeTimeline}
}

// TagSearch is the public feed for one hashtag. tag carries no leading '#'.
func TagSearch(tag string) Mode {
	return Mode{Kind: ModeTag, Tag: tag}
}

func (m Mode) IsTag() bool {
	return m.Kind == ModeTag
}

// String is the label shown in the list title and status line.
func (m Mode) String() string {
	if m.IsTag() {
		return "#" + m.Tag
	}
	return "public timeline"
}
