package pathconv

import (
	"regexp"
	"strconv"

	"git.home.luguber.info/inful/sitetree/internal/foundation"
)

// prefixSeparator ends an ordering prefix: "2.team".
const prefixSeparator = '.'

var floatingName = regexp.MustCompile(`^[A-Za-z][\w-]*$`)

// Segment is one parsed directory name.
type Segment struct {
	Order foundation.Option[int]
	Name  string
}

// ParseSegment splits a directory name into its optional ordering prefix and
// the name used in permalinks. A prefix needs at least one digit, the '.'
// separator and a non-empty remainder; anything else is a bare name.
func ParseSegment(dirName string) Segment {
	i := 0
	for i < len(dirName) && dirName[i] >= '0' && dirName[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(dirName) || dirName[i] != prefixSeparator {
		return Segment{Order: foundation.None[int](), Name: dirName}
	}
	n, err := strconv.Atoi(dirName[:i])
	if err != nil {
		return Segment{Order: foundation.None[int](), Name: dirName}
	}
	return Segment{Order: foundation.Some(n), Name: dirName[i+1:]}
}

// Ordered reports whether the segment carries an ordering prefix.
func (s Segment) Ordered() bool {
	return s.Order.IsSome()
}

// IsFloating reports whether a directory with this name is a floating page.
func (s Segment) IsFloating() bool {
	return !s.Ordered() && floatingName.MatchString(s.Name)
}
