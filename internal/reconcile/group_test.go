package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/telekom/people-sync/internal/client"
	"github.com/telekom/people-sync/internal/target"
)

func TestRequiredPathsCollectsAncestors(t *testing.T) {
	users := []target.User{
		{Email: "a@x.com", Status: target.StatusActive, GroupsBreadcrumb: "Eng/Team/Sub"},
		{Email: "b@x.com", Status: target.StatusInactive, GroupsBreadcrumb: "Ghost/Group"},
	}
	got := requiredPaths(users)
	want := []string{"Eng", "Eng/Team", "Eng/Team/Sub"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("requiredPaths mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildGroupIndexComputesFullPath(t *testing.T) {
	groups := []client.Group{
		{GroupID: 1, Name: "Root", ParentID: 0},
		{GroupID: 2, Name: "Eng", ParentID: 1},
		{GroupID: 3, Name: "Team", ParentID: 2},
	}
	idx := buildGroupIndex(groups, 1)
	if idx.byID[3].FullPath != "Eng/Team" {
		t.Errorf("FullPath = %q, want %q", idx.byID[3].FullPath, "Eng/Team")
	}
	if idx.byID[2].FullPath != "Eng" {
		t.Errorf("FullPath = %q, want %q", idx.byID[2].FullPath, "Eng")
	}
}
