package orgmodel

import (
	"regexp"
	"testing"

	"github.com/go-logr/logr"

	"github.com/telekom/people-sync/internal/config"
	"github.com/telekom/people-sync/internal/roster"
	"github.com/telekom/people-sync/internal/target"
)

func baseConfig() *config.Profile {
	return &config.Profile{
		IgnoredUserIDs: map[int]struct{}{},
	}
}

func TestBuildDepartmentMode(t *testing.T) {
	cfg := baseConfig()
	cfg.UseDepartmentGroups = true

	r := &roster.Roster{Users: []roster.User{
		{ExternalID: "1", Name: "A", Email: "a@x.com", Department: "Eng/Team"},
		{ExternalID: "2", Name: "B", Email: "b@x.com", Department: "Eng/Team"},
	}}

	doc, err := Build(r, cfg, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc) != 2 {
		t.Fatalf("expected 2 users, got %d", len(doc))
	}
	for _, u := range doc {
		if u.GroupsBreadcrumb != "Eng/Team" {
			t.Errorf("unexpected breadcrumb %q", u.GroupsBreadcrumb)
		}
	}
}

func TestBuildSupervisorModeWithJobTitleGroups(t *testing.T) {
	cfg := baseConfig()
	cfg.UseSupervisorGroups = true
	cfg.UseJobTitleNameGroups = true

	r := &roster.Roster{Users: []roster.User{
		{ExternalID: "1", Name: "mgr", Email: "mgr@x.com", Department: "Sales", JobTitle: "Sales Manager"},
		{ExternalID: "2", Name: "emp", Email: "emp@x.com", Department: "Sales", SupervisorID: "1"},
	}}

	doc, err := Build(r, cfg, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}

	var mgrOut, empOut target.User
	for _, u := range doc {
		switch u.Email {
		case "mgr@x.com":
			mgrOut = u
		case "emp@x.com":
			empOut = u
		}
	}

	if empOut.GroupsBreadcrumb != "Sales Manager [mgr]" {
		t.Errorf("emp breadcrumb = %q, want %q", empOut.GroupsBreadcrumb, "Sales Manager [mgr]")
	}
	if mgrOut.Role != target.RoleSupervisor {
		t.Errorf("mgr role = %q, want supervisor", mgrOut.Role)
	}
	if empOut.Role != target.RoleUser {
		t.Errorf("emp role = %q, want user", empOut.Role)
	}
}

func TestBuildHybridWithSkipAndRegex(t *testing.T) {
	cfg := baseConfig()
	cfg.UseSupervisorGroups = true
	cfg.UseDepartmentGroups = true
	cfg.SkipDepartments = []string{"Company"}

	re := mustCompileForTest(t, "Engineering")
	cfg.ChangeGroupsRules = []config.ChangeGroupsRule{{Pattern: re, Replacement: "Eng"}}

	r := &roster.Roster{Users: []roster.User{
		{ExternalID: "s", Name: "Alice", Email: "alice@x.com", Department: "Company/Engineering/Web"},
		{ExternalID: "1", Name: "Bob", Email: "bob@x.com", Department: "Company/Engineering/Web", SupervisorID: "s"},
	}}

	doc, err := Build(r, cfg, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}

	var bobOut target.User
	for _, u := range doc {
		if u.Email == "bob@x.com" {
			bobOut = u
		}
	}
	if bobOut.GroupsBreadcrumb != "Eng/Web/Alice" {
		t.Errorf("bob breadcrumb = %q, want %q", bobOut.GroupsBreadcrumb, "Eng/Web/Alice")
	}
}

func TestBuildForceGlobalAdminBeatsEverything(t *testing.T) {
	cfg := baseConfig()
	cfg.UseDepartmentGroups = true

	r := &roster.Roster{Users: []roster.User{
		{ExternalID: "1", Name: "Admin", Email: "admin@x.com", Department: "X/Y", IsSupervisor: roster.NewIsSupervisorFlag(true), ForceGlobalAdminRole: true},
	}}

	doc, err := Build(r, cfg, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if doc[0].Role != target.RoleAdministrator {
		t.Errorf("role = %q, want administrator", doc[0].Role)
	}
	if doc[0].GroupsBreadcrumb != "" {
		t.Errorf("breadcrumb = %q, want empty", doc[0].GroupsBreadcrumb)
	}
}

func TestBuildExcludeRegexDropsAll(t *testing.T) {
	cfg := baseConfig()
	re := mustCompileForTest(t, ".*")
	cfg.ExcludeRegex = re

	r := &roster.Roster{Users: []roster.User{
		{ExternalID: "1", Name: "A", Email: "a@x.com"},
	}}

	doc, err := Build(r, cfg, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc) != 0 {
		t.Errorf("expected empty document, got %d entries", len(doc))
	}
}

func TestBuildSupervisorCycleFallsBackToTopLevel(t *testing.T) {
	cfg := baseConfig()
	cfg.UseSupervisorGroups = true

	r := &roster.Roster{Users: []roster.User{
		{ExternalID: "1", Name: "A", Email: "a@x.com", SupervisorID: "2"},
		{ExternalID: "2", Name: "B", Email: "b@x.com", SupervisorID: "1"},
	}}

	doc, err := Build(r, cfg, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc) != 2 {
		t.Fatalf("expected 2 users, got %d", len(doc))
	}
}

func mustCompileForTest(t *testing.T, pattern string) *regexp.Regexp {
	t.Helper()
	re, err := regexp.Compile(pattern)
	if err != nil {
		t.Fatal(err)
	}
	return re
}
