package receipt

import (
	"strings"

	"github.com/hyperifyio/telebirr-verify/internal/extract"
)

// ParseEthiopianName splits a full name by position. Ethiopian names carry no
// family name: the second token is the father's given name, the third the
// grandfather's. Missing positions stay empty; an empty name yields nil.
func ParseEthiopianName(full string) *NameParts {
	tokens := strings.Fields(extract.CleanText(full))
	if len(tokens) == 0 {
		return nil
	}
	p := &NameParts{Full: strings.Join(tokens, " "), First: tokens[0]}
	if len(tokens) > 1 {
		p.Father = tokens[1]
	}
	if len(tokens) > 2 {
		p.Grandfather = tokens[2]
	}
	if len(tokens) > 3 {
		p.Rest = strings.Join(tokens[3:], " ")
	}
	return p
}
