// Package reconcile drives the Target Client to make the target's state
// equal to a Target Document (Stage B). This file implements the Group
// Reconciler (spec §4.5), grounded on
// original_source/timecamp_sync_users.py::_build_group_paths/_get_required_groups/_sync_groups.
package reconcile

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/telekom/people-sync/internal/client"
	"github.com/telekom/people-sync/internal/config"
	"github.com/telekom/people-sync/internal/target"
)

// groupNode is an in-memory TargetGroup (spec §3).
type groupNode struct {
	GroupID  int
	Name     string
	ParentID int
	FullPath string
}

// GroupIndex maps breadcrumb paths and (parent,name) pairs to live groups,
// built by walking the currently-existing group tree under root_group_id.
type GroupIndex struct {
	byPath        map[string]*groupNode
	byParentName  map[string]*groupNode
	byID          map[int]*groupNode
	rootGroupID   int
}

func buildGroupIndex(groups []client.Group, rootGroupID int) *GroupIndex {
	byID := make(map[int]*groupNode, len(groups))
	for _, g := range groups {
		byID[g.GroupID] = &groupNode{GroupID: g.GroupID, Name: strings.TrimSpace(g.Name), ParentID: g.ParentID}
	}

	var computePath func(id int) string
	seen := map[int]bool{}
	computePath = func(id int) string {
		node, ok := byID[id]
		if !ok || id == rootGroupID {
			return ""
		}
		if seen[id] {
			return node.Name // cycle guard, should not happen in practice
		}
		seen[id] = true
		parentPath := computePath(node.ParentID)
		if parentPath == "" {
			return node.Name
		}
		return parentPath + "/" + node.Name
	}

	idx := &GroupIndex{
		byPath:       map[string]*groupNode{},
		byParentName: map[string]*groupNode{},
		byID:         byID,
		rootGroupID:  rootGroupID,
	}

	for id, node := range byID {
		seen = map[int]bool{}
		node.FullPath = computePath(id)
		idx.byPath[node.FullPath] = node
		idx.byParentName[parentNameKey(node.ParentID, node.Name)] = node
	}
	return idx
}

func parentNameKey(parentID int, name string) string {
	return strings.TrimSpace(name) + "\x00" + strconv.Itoa(parentID)
}

// requiredPaths collects every breadcrumb and its ancestor prefixes implied
// by active users (spec §4.5 step 2). Inactive users' groups are
// deliberately excluded so the Sweeper can remove them later (spec §4.5.4).
func requiredPaths(users []target.User) []string {
	seen := map[string]struct{}{}
	for _, u := range users {
		if u.Status != target.StatusActive || u.GroupsBreadcrumb == "" {
			continue
		}
		segments := strings.Split(u.GroupsBreadcrumb, "/")
		for i := 1; i <= len(segments); i++ {
			prefix := strings.Join(segments[:i], "/")
			seen[prefix] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		di, dj := strings.Count(paths[i], "/"), strings.Count(paths[j], "/")
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})
	return paths
}

// ReconcileGroups builds any missing groups top-down and returns the final
// path -> group_id map for the User Reconciler to consume.
func ReconcileGroups(ctx context.Context, c *client.Client, users []target.User, cfg *config.Profile, log logr.Logger, dryRun bool) (map[string]int, error) {
	groups, err := c.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	idx := buildGroupIndex(groups, cfg.RootGroupID)

	pathToID := map[string]int{"": cfg.RootGroupID}
	for path, node := range idx.byPath {
		pathToID[path] = node.GroupID
	}

	for _, path := range requiredPaths(users) {
		if _, ok := pathToID[path]; ok {
			continue
		}

		segments := strings.Split(path, "/")
		parentID := cfg.RootGroupID
		built := ""
		for _, seg := range segments {
			built = joinPath(built, seg)
			if id, ok := pathToID[built]; ok {
				parentID = id
				continue
			}

			if sibling, ok := idx.byParentName[parentNameKey(parentID, seg)]; ok {
				pathToID[built] = sibling.GroupID
				parentID = sibling.GroupID
				continue
			}

			if cfg.DisableGroupsCreation {
				log.Info("disable_groups_creation set, skipping group creation", "path", built)
				continue
			}

			if dryRun {
				log.Info("[DRY RUN] Would create group", "name", seg, "parent_id", parentID, "path", built)
				continue
			}

			newID, err := c.AddGroup(ctx, seg, parentID)
			if err != nil {
				return nil, err
			}
			log.Info("created group", "name", seg, "parent_id", parentID, "group_id", newID, "path", built)
			pathToID[built] = newID
			idx.byParentName[parentNameKey(parentID, seg)] = &groupNode{GroupID: newID, Name: seg, ParentID: parentID, FullPath: built}
			parentID = newID
		}
	}

	return pathToID, nil
}

func joinPath(base, seg string) string {
	if base == "" {
		return seg
	}
	return base + "/" + seg
}
