// Package roster holds the canonical input record ingested from an external
// extractor (BambooHR/Graph/LDAP/Factorial) — spec §3 RosterUser/Roster.
package roster

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/telekom/people-sync/internal/pserrors"
)

// Status is the RosterUser lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User is a single RosterUser entry (spec §3). RawData is an opaque
// passthrough consumed only by the Transform Engine and by TargetUser.RawData.
type User struct {
	ExternalID          string          `json:"external_id"`
	Name                string          `json:"name"`
	Email               string          `json:"email"`
	RealEmail           string          `json:"real_email,omitempty"`
	Department          string          `json:"department"`
	JobTitle            string          `json:"job_title,omitempty"`
	Status              Status          `json:"status,omitempty"`
	SupervisorID        string          `json:"supervisor_id,omitempty"`
	IsSupervisor        IsSupervisorFlag `json:"is_supervisor,omitempty"`
	ForceSupervisorRole bool            `json:"force_supervisor_role,omitempty"`
	ForceGlobalAdminRole bool           `json:"force_global_admin_role,omitempty"`
	RawData             json.RawMessage `json:"raw_data,omitempty"`
}

// IsSupervisorFlag decodes RosterUser.is_supervisor, which extractors may
// emit as a native JSON boolean or as one of the string forms
// determine_role accepts ("true"/"1"/"yes" truthy; "false"/"0"/"no"/""
// falsy). The zero value is unset/false.
type IsSupervisorFlag struct {
	set   bool
	value bool
}

// Bool reports the flag's effective value, false when unset.
func (f IsSupervisorFlag) Bool() bool { return f.set && f.value }

// NewIsSupervisorFlag builds an explicitly-set flag, for callers constructing
// a User outside of JSON decoding (tests, the transform bridge).
func NewIsSupervisorFlag(b bool) IsSupervisorFlag { return IsSupervisorFlag{set: true, value: b} }

func (f *IsSupervisorFlag) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*f = IsSupervisorFlag{}
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = IsSupervisorFlag{set: true, value: b}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Errorf("is_supervisor: unsupported JSON value %s", trimmed)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		*f = IsSupervisorFlag{set: true, value: true}
	case "false", "0", "no", "":
		*f = IsSupervisorFlag{set: true, value: false}
	default:
		return errors.Errorf("is_supervisor: unrecognized string value %q", s)
	}
	return nil
}

func (f IsSupervisorFlag) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// EffectiveStatus defaults to active when unset, per spec §3.
func (u User) EffectiveStatus() Status {
	if u.Status == "" {
		return StatusActive
	}
	return u.Status
}

// Roster is the ordered sequence of RosterUser entries, serialised as
// {"users":[...]}.
type Roster struct {
	Users []User `json:"users"`
}

// Load parses a Roster document and applies the invariants required at
// ingest: email is lower-cased, and name is normalised to Unicode NFC once
// here — the REDESIGN FLAG in spec §9 replacing the upstream no-op
// normalize_text, so no downstream component repeats this work.
func Load(data []byte) (*Roster, error) {
	var r Roster
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, pserrors.Config("roster.Load", err)
	}
	for i := range r.Users {
		u := &r.Users[i]
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		if u.RealEmail != "" {
			u.RealEmail = strings.ToLower(strings.TrimSpace(u.RealEmail))
		}
		u.Name = normalizeName(u.Name)
	}
	return &r, nil
}

func normalizeName(s string) string {
	if s == "" {
		return s
	}
	n := norm.NFC.String(s)
	return strings.TrimFunc(n, unicode.IsSpace)
}

// Marshal re-serialises the Roster as pretty-printed UTF-8 JSON, non-ASCII
// preserved verbatim, matching spec §6.
func Marshal(r *Roster) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
