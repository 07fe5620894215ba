package fusion

import "unicode/utf16"

// Palette is the fixed set of topic colours
var Palette = []string{
	"#a6cee3", // light blue
	"#1f78b4", // blue
	"#b2df8a", // light green
	"#33a02c", // green
	"#fb9a99", // light red
	"#e31a1c", // red
	"#fdbf6f", // light orange
	"#ff7f00", // orange
	"#cab2d6", // light purple
	"#6a3d9a", // purple
	"#ff9",    // beige
	"#b15928", // brown
}

// Fill styles used when drawing overlays
const (
	SearchResultColor   = "#E9CB77"
	SearchResultOpacity = 0.5
	AnnotationOpacity   = 0.3
	FocusedOpacity      = 0.6
	SelectionOpacity    = 0.6
	SelectionColor      = "#3390ff"
)

// TopicColor maps a topic to a palette entry. The same topic always gets the
// same colour, and the mapping matches browser clients that hash the UTF-16
// code units of the topic with 32-bit overflow.
func TopicColor(topic string) string {
	return Palette[topicHashIndex(topic)]
}

func topicHashIndex(topic string) int {
	var hash int32
	for _, unit := range utf16.Encode([]rune(topic)) {
		hash = (hash << 5) - hash + int32(unit)
	}
	i := int(hash % int32(len(Palette)))
	if i < 0 {
		i = -i
	}
	return i
}
