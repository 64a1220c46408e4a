// Package target holds the handoff artifact between Stage A and Stage B —
// spec §3 TargetUser / §6 Target Document.
package target

import (
	"encoding/json"
	"sort"

	"github.com/telekom/people-sync/internal/pserrors"
)

// Role is one of the four target roles (spec Glossary).
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleSupervisor    Role = "supervisor"
	RoleUser          Role = "user"
	RoleGuest         Role = "guest"
)

// Status mirrors roster.Status on the target side.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User is the wire-exact TargetUser record; field names and JSON tags are
// mandated verbatim by spec §6.
type User struct {
	ExternalID       string          `json:"timecamp_external_id,omitempty"`
	UserName         string          `json:"timecamp_user_name"`
	Email            string          `json:"timecamp_email"`
	RealEmail        string          `json:"timecamp_real_email,omitempty"`
	GroupsBreadcrumb string          `json:"timecamp_groups_breadcrumb"`
	Status           Status          `json:"timecamp_status"`
	Role             Role            `json:"timecamp_role"`
	RawData          json.RawMessage `json:"raw_data,omitempty"`
}

// Document is the UTF-8 JSON array of TargetUser, sorted by Email ascending.
type Document []User

// Sort orders the document by Email ascending in place, satisfying the
// deterministic-emission invariant (spec §8).
func (d Document) Sort() {
	sort.Slice(d, func(i, j int) bool { return d[i].Email < d[j].Email })
}

// Marshal re-serialises the sorted Document as pretty-printed JSON.
func Marshal(d Document) ([]byte, error) {
	d.Sort()
	return json.MarshalIndent(d, "", "  ")
}

// Unmarshal parses a Target Document as read by Stage B.
func Unmarshal(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, pserrors.Config("target.Unmarshal", err)
	}
	return d, nil
}
