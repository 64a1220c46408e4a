package cmd

import (
	"encoding/json"

	"github.com/telekom/people-sync/internal/roster"
)

// userToMap/mapToUser bridge roster.User to the generic map[string]any tree
// the Transform Engine operates on (spec §4.2 applies to "the raw Roster"
// before modelling, which in JSON terms is just one object per user).
func userToMap(u roster.User) map[string]any {
	data, _ := json.Marshal(u)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}

func mapToUser(m map[string]any, fallback roster.User) roster.User {
	data, err := json.Marshal(m)
	if err != nil {
		return fallback
	}
	var u roster.User
	if err := json.Unmarshal(data, &u); err != nil {
		return fallback
	}
	return u
}
