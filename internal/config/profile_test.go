package config

import (
	"os"
	"testing"
)

func setenv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ROOT_GROUP_ID", "IGNORED_USER_IDS", "USE_SUPERVISOR_GROUPS", "USE_DEPARTMENT_GROUPS",
		"SKIP_DEPARTMENTS", "EXCLUDE_REGEX", "CHANGE_GROUPS_REGEX", "PREPARE_TRANSFORM_CONFIG",
		"SSL_VERIFY", "TIMECAMP_DOMAIN", "TIMECAMP_API_KEY",
	} {
		os.Unsetenv(key)
	}

	p, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !p.UseDepartmentGroups {
		t.Error("expected UseDepartmentGroups to default true")
	}
	if p.UseSupervisorGroups {
		t.Error("expected UseSupervisorGroups to default false")
	}
	if !p.SSLVerify {
		t.Error("expected SSLVerify to default true")
	}
	if p.ExcludeRegex != nil {
		t.Error("expected nil ExcludeRegex when unset")
	}
}

func TestLoadChangeGroupsRegex(t *testing.T) {
	setenv(t, "CHANGE_GROUPS_REGEX", `Engineering|||Eng;;;^Sales$|||Commercial`)

	p, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(p.ChangeGroupsRules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(p.ChangeGroupsRules))
	}
	if p.ChangeGroupsRules[0].Replacement != "Eng" {
		t.Errorf("rule[0].Replacement = %q, want Eng", p.ChangeGroupsRules[0].Replacement)
	}
}

func TestLoadChangeGroupsRegexMissingSeparatorErrors(t *testing.T) {
	setenv(t, "CHANGE_GROUPS_REGEX", "no-separator-here")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed change_groups_regex rule")
	}
}

func TestLoadInvalidExcludeRegexErrors(t *testing.T) {
	setenv(t, "EXCLUDE_REGEX", "(unclosed")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid EXCLUDE_REGEX")
	}
}

func TestParseIntSet(t *testing.T) {
	set := parseIntSet("1, 2,3, not-a-number")
	for _, v := range []int{1, 2, 3} {
		if _, ok := set[v]; !ok {
			t.Errorf("expected %d in set", v)
		}
	}
	if len(set) != 3 {
		t.Errorf("expected 3 entries, got %d", len(set))
	}
}
