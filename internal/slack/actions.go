package slack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
)

// Element returns the id of the i-th element carrying a, unique within its block.
func (a ActionID) Element(i int) string {
	return fmt.Sprintf("%s#%d", a, i)
}

// ParseActionID strips the element suffix added by Element.
func ParseActionID(actionID string) ActionID {
	id, _, _ := strings.Cut(actionID, "#")
	return ActionID(id)
}

// Value joins the ids carried by a button.
func Value(ids ...int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ":")
}

// ParseValue splits a button value built by Value and checks it holds n ids.
func ParseValue(value string, n int) ([]int64, error) {
	parts := strings.Split(value, ":")
	if len(parts) != n {
		return nil, apperrors.Invalidf("action value %q has %d parts, want %d", value, len(parts), n)
	}
	out := make([]int64, n)
	for i, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, apperrors.Invalidf("action value %q: %v", value, err)
		}
		out[i] = id
	}
	return out, nil
}
