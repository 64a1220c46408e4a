// This file implements the Empty-Group Sweeper (spec §4.8), grounded on
// original_source/remove_empty_groups.py.
package reconcile

import (
	"context"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"github.com/telekom/people-sync/internal/client"
	"github.com/telekom/people-sync/internal/config"
)

// SweepEmptyGroups deletes, deepest-first, every group under root_group_id
// that has no active users and no children, continuing on per-group errors.
func SweepEmptyGroups(ctx context.Context, c *client.Client, cfg *config.Profile, log logr.Logger, dryRun bool) error {
	groups, err := c.ListGroups(ctx)
	if err != nil {
		return err
	}
	idx := buildGroupIndex(groups, cfg.RootGroupID)

	children := map[int]int{}
	for _, node := range idx.byID {
		if node.ParentID != 0 {
			children[node.ParentID]++
		}
	}

	activeUserCount := map[int]int{}
	users, err := c.ListUsers(ctx)
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	bulk, err := c.FetchBulkSettings(ctx, ids)
	if err != nil {
		return err
	}
	for _, u := range users {
		if bulk.DisabledUser[u.UserID] == "1" {
			continue
		}
		activeUserCount[u.GroupID]++
	}

	type empty struct {
		id   int
		path string
	}
	underRoot := func(id int) bool {
		for steps := 0; steps <= len(idx.byID); steps++ {
			node, ok := idx.byID[id]
			if !ok {
				return false
			}
			if node.ParentID == cfg.RootGroupID {
				return true
			}
			id = node.ParentID
		}
		return false
	}

	var candidates []empty
	for id, node := range idx.byID {
		if id == cfg.RootGroupID || !underRoot(id) {
			continue
		}
		if children[id] > 0 {
			continue
		}
		if activeUserCount[id] > 0 {
			continue
		}
		candidates = append(candidates, empty{id: id, path: node.FullPath})
	}

	sort.Slice(candidates, func(i, j int) bool {
		di := strings.Count(candidates[i].path, "/")
		dj := strings.Count(candidates[j].path, "/")
		if di != dj {
			return di > dj
		}
		return candidates[i].path > candidates[j].path
	})

	for _, g := range candidates {
		if dryRun {
			log.Info("[DRY RUN] Would delete empty group", "path", g.path, "group_id", g.id)
			continue
		}
		log.Info("deleting empty group", "path", g.path, "group_id", g.id)
		if err := c.DeleteGroup(ctx, g.id); err != nil {
			log.Error(err, "failed to delete empty group, continuing", "path", g.path, "group_id", g.id)
			continue
		}
	}

	return nil
}
