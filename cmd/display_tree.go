// This file implements the `display-tree` subcommand: a read-only tree
// viewer. [SUPPLEMENT] recovered from original_source/scripts/
// display_timecamp_tree.py and original_source/src/structure_display.py —
// dropped from spec.md's prose but named explicitly in spec §6 as a
// required subcommand.
package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telekom/people-sync/internal/client"
)

var displayTreeCmd = &cobra.Command{
	Use:   "display-tree",
	Short: "Print the target's current group tree and user counts (read-only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := client.New(client.Config{Domain: cfg.Domain, APIKey: cfg.APIKey, SSLVerify: cfg.SSLVerify})
		if err != nil {
			return fmt.Errorf("initialising target client: %w", err)
		}
		c.SetLogger(log)

		groups, err := c.ListGroups(ctx)
		if err != nil {
			return fmt.Errorf("listing groups: %w", err)
		}
		users, err := c.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}

		userCount := map[int]int{}
		for _, u := range users {
			userCount[u.GroupID]++
		}

		children := map[int][]client.Group{}
		byID := map[int]client.Group{}
		for _, g := range groups {
			byID[g.GroupID] = g
			children[g.ParentID] = append(children[g.ParentID], g)
		}
		for parent := range children {
			sort.Slice(children[parent], func(i, j int) bool {
				return children[parent][i].Name < children[parent][j].Name
			})
		}

		var printTree func(groupID int, depth int)
		printTree = func(groupID int, depth int) {
			g, ok := byID[groupID]
			name := "Root"
			if ok {
				name = strings.TrimSpace(g.Name)
			}
			fmt.Printf("%s%s (%d users)\n", strings.Repeat("  ", depth), name, userCount[groupID])
			for _, child := range children[groupID] {
				printTree(child.GroupID, depth+1)
			}
		}

		printTree(cfg.RootGroupID, 0)
		return nil
	},
}
