// Package config loads the ConfigProfile once from the process environment
// into an immutable struct passed explicitly to every downstream component,
// mirroring the teacher's cmd/root.go pattern of binding flags once at
// startup rather than re-reading env on every call.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/telekom/people-sync/internal/pserrors"
	"github.com/telekom/people-sync/internal/transform"
)

// Profile is the frozen-after-load ConfigProfile from spec §3/§6.
type Profile struct {
	RootGroupID     int
	IgnoredUserIDs  map[int]struct{}

	UseSupervisorGroups bool
	UseDepartmentGroups bool

	SkipDepartments []string

	ShowExternalID bool

	UseJobTitleNameUsers  bool
	UseJobTitleNameGroups bool

	ReplaceEmailDomain string

	UseIsSupervisorRole bool

	ExcludeRegex *regexp.Regexp

	ChangeGroupsRules []ChangeGroupsRule

	DisableNewUsers            bool
	DisableUserDeactivation    bool
	DisableExternalIDSync      bool
	DisableAdditionalEmailSync bool
	DisableManualUserUpdates   bool
	DisableGroupUpdates        bool
	DisableRoleUpdates         bool
	DisableGroupsCreation      bool

	DisabledUsersGroupID int

	Transform *transform.Document

	SSLVerify bool
	Domain    string
	APIKey    string
}

// ChangeGroupsRule is one `<pattern>|||<replacement>` rule from
// change_groups_regex, applied sequentially to every group breadcrumb.
type ChangeGroupsRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Load reads every ConfigProfile knob from the process environment. It is
// the one ambient concern this repository keeps on the standard library
// (see DESIGN.md): no 12-factor/env library in the teacher or the pack
// covers anything beyond what os.Getenv already does for a flat key set.
func Load() (*Profile, error) {
	p := &Profile{}

	p.RootGroupID = getEnvInt("ROOT_GROUP_ID", 0)
	p.IgnoredUserIDs = parseIntSet(os.Getenv("IGNORED_USER_IDS"))

	p.UseSupervisorGroups = getEnvBool("USE_SUPERVISOR_GROUPS", false)
	p.UseDepartmentGroups = getEnvBool("USE_DEPARTMENT_GROUPS", true)

	p.SkipDepartments = parseCSV(os.Getenv("SKIP_DEPARTMENTS"))

	p.ShowExternalID = getEnvBool("SHOW_EXTERNAL_ID", false)
	p.UseJobTitleNameUsers = getEnvBool("USE_JOB_TITLE_NAME_USERS", false)
	p.UseJobTitleNameGroups = getEnvBool("USE_JOB_TITLE_NAME_GROUPS", false)

	p.ReplaceEmailDomain = os.Getenv("REPLACE_EMAIL_DOMAIN")

	p.UseIsSupervisorRole = getEnvBool("USE_IS_SUPERVISOR_ROLE", false)

	if raw := os.Getenv("EXCLUDE_REGEX"); raw != "" {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, pserrors.Config("config.Load exclude_regex", errors.Wrapf(err, "compiling EXCLUDE_REGEX %q", raw))
		}
		p.ExcludeRegex = re
	}

	rules, err := parseChangeGroupsRegex(os.Getenv("CHANGE_GROUPS_REGEX"))
	if err != nil {
		return nil, pserrors.Config("config.Load change_groups_regex", err)
	}
	p.ChangeGroupsRules = rules

	p.DisableNewUsers = getEnvBool("DISABLE_NEW_USERS", false)
	p.DisableUserDeactivation = getEnvBool("DISABLE_USER_DEACTIVATION", false)
	p.DisableExternalIDSync = getEnvBool("DISABLE_EXTERNAL_ID_SYNC", false)
	p.DisableAdditionalEmailSync = getEnvBool("DISABLE_ADDITIONAL_EMAIL_SYNC", false)
	p.DisableManualUserUpdates = getEnvBool("DISABLE_MANUAL_USER_UPDATES", false)
	p.DisableGroupUpdates = getEnvBool("DISABLE_GROUP_UPDATES", false)
	p.DisableRoleUpdates = getEnvBool("DISABLE_ROLE_UPDATES", false)
	p.DisableGroupsCreation = getEnvBool("DISABLE_GROUPS_CREATION", false)

	p.DisabledUsersGroupID = getEnvInt("DISABLED_USERS_GROUP_ID", 0)

	if raw := os.Getenv("PREPARE_TRANSFORM_CONFIG"); raw != "" {
		doc, err := transform.LoadConfig(raw)
		if err != nil {
			return nil, pserrors.Config("config.Load prepare_transform_config", err)
		}
		p.Transform = doc
	}

	p.SSLVerify = getEnvBool("SSL_VERIFY", true)
	p.Domain = os.Getenv("TIMECAMP_DOMAIN")
	p.APIKey = os.Getenv("TIMECAMP_API_KEY")

	return p, nil
}

func parseChangeGroupsRegex(raw string) ([]ChangeGroupsRule, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var rules []ChangeGroupsRule
	for _, part := range strings.Split(raw, ";;;") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		pieces := strings.SplitN(part, "|||", 2)
		if len(pieces) != 2 {
			return nil, errors.Errorf("change_groups_regex rule %q missing ||| separator", part)
		}
		re, err := regexp.Compile(pieces[0])
		if err != nil {
			return nil, errors.Wrapf(err, "compiling change_groups_regex pattern %q", pieces[0])
		}
		rules = append(rules, ChangeGroupsRule{Pattern: re, Replacement: pieces[1]})
	}
	return rules, nil
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return def
	}
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func parseIntSet(raw string) map[int]struct{} {
	set := map[int]struct{}{}
	for _, tok := range parseCSV(raw) {
		v, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

// String renders a one-line configuration echo, grounded on the Python
// prepare script's startup logging block (original_source/prepare_timecamp_json_from_fetch.py::main).
func (p *Profile) String() string {
	return fmt.Sprintf(
		"root_group_id=%d supervisor_groups=%t department_groups=%t skip_departments=%v disable_groups_creation=%t",
		p.RootGroupID, p.UseSupervisorGroups, p.UseDepartmentGroups, p.SkipDepartments, p.DisableGroupsCreation,
	)
}
