package nameutil

import (
	"regexp"
	"testing"

	"github.com/telekom/people-sync/internal/config"
)

func testConfigWithRule(pattern, replacement string) (*config.Profile, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &config.Profile{
		ChangeGroupsRules: []config.ChangeGroupsRule{{Pattern: re, Replacement: replacement}},
	}, nil
}

func TestCleanName(t *testing.T) {
	cases := map[string]string{
		"John (Doe)":    "John Doe",
		"Jane_Smith":    "JaneSmith",
		"  Bob  ":       "Bob",
		"O`Brien":       "OBrien",
		"Curly ‘Quote’": "Curly Quote",
	}
	for in, want := range cases {
		if got := CleanName(in); got != want {
			t.Errorf("CleanName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanDepartmentPath(t *testing.T) {
	cfg := &config.Profile{SkipDepartments: []string{"A", "B"}}

	cases := []struct{ in, want string }{
		{"B/X/Y", "X/Y"},
		{"Bar/X", "Bar/X"},
		{"A", ""},
		{" Eng / Team ", "Eng/Team"},
		{"", ""},
	}
	for _, c := range cases {
		if got := CleanDepartmentPath(c.in, cfg); got != c.want {
			t.Errorf("CleanDepartmentPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCleanDepartmentPathIdempotent(t *testing.T) {
	cfg := &config.Profile{SkipDepartments: []string{"Company"}}
	in := "Company/Engineering/Web"
	once := CleanDepartmentPath(in, cfg)
	twice := CleanDepartmentPath(once, cfg)
	if once != twice {
		t.Errorf("CleanDepartmentPath not idempotent: %q vs %q", once, twice)
	}
}

func TestReplaceEmailDomain(t *testing.T) {
	cases := []struct{ email, domain, want string }{
		{"user@old.com", "new.com", "user@new.com"},
		{"user@old.com", "@new.com", "user@new.com"},
		{"not-an-email", "new.com", "not-an-email"},
		{"user@old.com", "", "user@old.com"},
	}
	for _, c := range cases {
		if got := ReplaceEmailDomain(c.email, c.domain); got != c.want {
			t.Errorf("ReplaceEmailDomain(%q,%q) = %q, want %q", c.email, c.domain, got, c.want)
		}
	}
}

func TestReplaceEmailDomainRoundTrip(t *testing.T) {
	once := ReplaceEmailDomain("user@a.com", "b.com")
	twice := ReplaceEmailDomain(once, "b.com")
	if once != twice {
		t.Errorf("ReplaceEmailDomain not idempotent: %q vs %q", once, twice)
	}
}

func TestChangeGroupsRegex(t *testing.T) {
	cfg, err := testConfigWithRule("Engineering", "Eng")
	if err != nil {
		t.Fatal(err)
	}
	got := ChangeGroupsRegex("Company/Engineering/Web", cfg)
	want := "Company/Eng/Web"
	if got != want {
		t.Errorf("ChangeGroupsRegex = %q, want %q", got, want)
	}
}
