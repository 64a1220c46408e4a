// Package orgmodel implements the Organisation Modeller (Stage A's core
// algorithm, spec §4.3): supervisor-path construction, hybrid composition,
// role resolution, exclusion filtering and deterministic emission. Grounded
// on original_source/common/supervisor_groups.py and
// original_source/prepare_timecamp_json_from_fetch.py.
package orgmodel

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-logr/logr"

	"github.com/telekom/people-sync/internal/config"
	"github.com/telekom/people-sync/internal/nameutil"
	"github.com/telekom/people-sync/internal/roster"
	"github.com/telekom/people-sync/internal/target"
)

// Build runs the full Stage A pipeline over a roster and returns the
// deterministic Target Document.
func Build(r *roster.Roster, cfg *config.Profile, log logr.Logger) (target.Document, error) {
	byID := indexByExternalID(r.Users)

	supervisorIDs := collectSupervisorIDs(r.Users)
	paths := buildSupervisorPaths(supervisorIDs, byID, cfg, log)

	anyForcedSupervisor := false
	for _, u := range r.Users {
		if u.ForceSupervisorRole {
			anyForcedSupervisor = true
			break
		}
	}

	isSupervisor := make(map[string]struct{}, len(supervisorIDs))
	for _, id := range supervisorIDs {
		isSupervisor[id] = struct{}{}
	}

	var excludeRe *regexp.Regexp
	if cfg.ExcludeRegex != nil {
		excludeRe = cfg.ExcludeRegex
	}

	doc := make(target.Document, 0, len(r.Users))
	for _, u := range r.Users {
		if excludeRe != nil && matchesExclusion(excludeRe, u) {
			continue
		}

		role := resolveRole(u, cfg, anyForcedSupervisor, isSupervisor)
		breadcrumb := buildBreadcrumb(u, cfg, byID, paths, isSupervisor)

		if role == target.RoleAdministrator {
			breadcrumb = ""
		}

		email := nameutil.ReplaceEmailDomain(u.Email, cfg.ReplaceEmailDomain)
		realEmail := ""
		if u.RealEmail != "" {
			rewritten := nameutil.ReplaceEmailDomain(u.RealEmail, cfg.ReplaceEmailDomain)
			if rewritten != email {
				realEmail = rewritten
			}
		}

		status := target.StatusActive
		if u.EffectiveStatus() == roster.StatusInactive {
			status = target.StatusInactive
		}

		doc = append(doc, target.User{
			ExternalID:       u.ExternalID,
			UserName:         formatUserName(u, cfg),
			Email:            email,
			RealEmail:        realEmail,
			GroupsBreadcrumb: breadcrumb,
			Status:           status,
			Role:             role,
			RawData:          json.RawMessage(rawDataOrNull(u.RawData)),
		})
	}

	doc.Sort()
	return doc, nil
}

func rawDataOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func indexByExternalID(users []roster.User) map[string]roster.User {
	m := make(map[string]roster.User, len(users))
	for _, u := range users {
		if u.ExternalID != "" {
			m[u.ExternalID] = u
		}
	}
	return m
}

func collectSupervisorIDs(users []roster.User) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, u := range users {
		if u.SupervisorID == "" {
			continue
		}
		if _, ok := seen[u.SupervisorID]; ok {
			continue
		}
		seen[u.SupervisorID] = struct{}{}
		ids = append(ids, u.SupervisorID)
	}
	return ids
}

// buildSupervisorPaths runs the two-pass (seed + fixed-point) construction
// from spec §4.3, bounded to len(supervisors)+1 passes. Any supervisor still
// unassigned after that is a cycle: it is logged at WARNING and falls back
// to top-level — the cycle-detection REDESIGN FLAG from spec §9.
func buildSupervisorPaths(supervisorIDs []string, byID map[string]roster.User, cfg *config.Profile, log logr.Logger) map[string]string {
	paths := make(map[string]string, len(supervisorIDs))

	lookup := func(id string) roster.User {
		if u, ok := byID[id]; ok {
			return u
		}
		return roster.User{ExternalID: id, Name: id}
	}

	// Seed top-level supervisors: those whose own supervisor_id is empty,
	// or who are not present in the roster as a user at all.
	for _, id := range supervisorIDs {
		u, present := byID[id]
		if !present || u.SupervisorID == "" {
			paths[id] = formatGroupName(lookup(id), cfg)
		}
	}

	maxPasses := len(supervisorIDs) + 1
	for pass := 0; pass < maxPasses; pass++ {
		progressed := false
		for _, id := range supervisorIDs {
			if _, done := paths[id]; done {
				continue
			}
			u := byID[id]
			parentPath, ok := paths[u.SupervisorID]
			if !ok {
				continue
			}
			paths[id] = parentPath + "/" + formatGroupName(u, cfg)
			progressed = true
		}
		if !progressed {
			break
		}
	}

	for _, id := range supervisorIDs {
		if _, done := paths[id]; done {
			continue
		}
		log.Info("WARNING: supervisor graph cycle detected, treating node as top-level", "supervisor_id", id)
		paths[id] = formatGroupName(lookup(id), cfg)
	}

	return paths
}

func buildBreadcrumb(u roster.User, cfg *config.Profile, byID map[string]roster.User, paths map[string]string, isSupervisor map[string]struct{}) string {
	_, uIsSupervisor := isSupervisor[u.ExternalID]

	var breadcrumb string
	switch {
	case cfg.UseSupervisorGroups && cfg.UseDepartmentGroups:
		dept := nameutil.CleanDepartmentPath(u.Department, cfg)
		tail := hybridTail(u, cfg, byID, uIsSupervisor)
		breadcrumb = joinNonEmpty(dept, tail)

	case cfg.UseSupervisorGroups:
		breadcrumb = supervisorModeBreadcrumb(u, cfg, byID, paths, uIsSupervisor)

	case cfg.UseDepartmentGroups:
		breadcrumb = nameutil.CleanDepartmentPath(u.Department, cfg)

	default:
		breadcrumb = ""
	}

	return nameutil.ChangeGroupsRegex(breadcrumb, cfg)
}

func supervisorModeBreadcrumb(u roster.User, cfg *config.Profile, byID map[string]roster.User, paths map[string]string, uIsSupervisor bool) string {
	if uIsSupervisor {
		if p, ok := paths[u.ExternalID]; ok {
			return p
		}
		return formatGroupName(u, cfg)
	}
	if u.SupervisorID == "" {
		return ""
	}
	if p, ok := paths[u.SupervisorID]; ok {
		return p
	}
	sup := lookupOrSynthetic(byID, u.SupervisorID)
	return formatGroupName(sup, cfg)
}

func hybridTail(u roster.User, cfg *config.Profile, byID map[string]roster.User, uIsSupervisor bool) string {
	if uIsSupervisor {
		return formatGroupName(u, cfg)
	}
	if u.SupervisorID == "" {
		return ""
	}
	sup := lookupOrSynthetic(byID, u.SupervisorID)
	return formatGroupName(sup, cfg)
}

func lookupOrSynthetic(byID map[string]roster.User, id string) roster.User {
	if u, ok := byID[id]; ok {
		return u
	}
	return roster.User{ExternalID: id, Name: id}
}

func joinNonEmpty(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "/")
}

// formatGroupName honours use_job_title_name_groups and show_external_id
// independently of display-name formatting (spec §4.3).
func formatGroupName(u roster.User, cfg *config.Profile) string {
	name := nameutil.CleanName(u.Name)
	if cfg.ShowExternalID && u.ExternalID != "" {
		name = fmt.Sprintf("%s - %s", name, u.ExternalID)
	}
	if cfg.UseJobTitleNameGroups && u.JobTitle != "" {
		return fmt.Sprintf("%s [%s]", u.JobTitle, name)
	}
	return name
}

// formatUserName is the display-name counterpart, gated by
// use_job_title_name_users instead.
func formatUserName(u roster.User, cfg *config.Profile) string {
	name := nameutil.CleanName(u.Name)
	if cfg.ShowExternalID && u.ExternalID != "" {
		name = fmt.Sprintf("%s - %s", name, u.ExternalID)
	}
	if cfg.UseJobTitleNameUsers && u.JobTitle != "" {
		return fmt.Sprintf("%s [%s]", u.JobTitle, name)
	}
	return name
}

// resolveRole implements the priority ladder from spec §4.3.
//
// RosterUser carries no explicit role_id field (unlike the upstream Python
// source's raw API records), so the bottom rung of the ladder — "map
// role_id to administrator/supervisor/user/guest" — has no input to map
// from here; administrator and guest are reachable only via the explicit
// override flags. This is a documented Open Question decision (see
// DESIGN.md): the structural/is_supervisor rungs only ever resolve to
// supervisor or user.
func resolveRole(u roster.User, cfg *config.Profile, anyForcedSupervisor bool, isSupervisor map[string]struct{}) target.Role {
	if u.ForceGlobalAdminRole {
		return target.RoleAdministrator
	}
	if u.ForceSupervisorRole {
		return target.RoleSupervisor
	}
	if anyForcedSupervisor {
		return target.RoleUser
	}
	if cfg.UseIsSupervisorRole {
		if u.IsSupervisor.Bool() {
			return target.RoleSupervisor
		}
		return target.RoleUser
	}
	if _, ok := isSupervisor[u.ExternalID]; ok {
		return target.RoleSupervisor
	}
	return target.RoleUser
}

// matchesExclusion tests the synthesised context string against
// exclude_regex, quotes in values replaced by apostrophes, matching
// get_users_to_exclude's context-string construction.
func matchesExclusion(re *regexp.Regexp, u roster.User) bool {
	ctx := fmt.Sprintf(
		`department=%s job_title=%s email=%s`,
		quoteForContext(u.Department), quoteForContext(u.JobTitle), quoteForContext(u.Email),
	)
	return re.MatchString(ctx)
}

func quoteForContext(v string) string {
	v = strings.ReplaceAll(v, `"`, "'")
	return `"` + v + `"`
}
