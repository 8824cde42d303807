package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sakif/blog/internal/service"
)

var groupCmd = &cobra.Command{
	Use:     "group",
	Aliases: []string{"groups"},
	Short:   "Manage groups",
}

var (
	groupTitle       string
	groupSlug        string
	groupDescription string
)

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		groups := service.NewGroupService(db, newLogger())
		g, err := groups.Create(cmd.Context(), groupTitle, groupSlug, groupDescription)
		if err != nil {
			return err
		}
		success("created group %q at /group/%s/", g.Title, g.Slug)
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List groups",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		groups, err := service.NewGroupService(db, newLogger()).List(cmd.Context())
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetAutoWrapText(false)
		table.SetHeader([]string{"Slug", "Title", "Description"})
		for _, g := range groups {
			table.Append([]string{g.Slug, g.Title, g.Description})
		}
		table.Render()
		return nil
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete SLUG",
	Short: "Delete a group. Its posts stay, without a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := service.NewGroupService(db, newLogger()).Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		success("deleted group %s", args[0])
		return nil
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupTitle, "title", "", "group title")
	groupCreateCmd.Flags().StringVar(&groupSlug, "slug", "", "URL slug: letters, numbers, - and _")
	groupCreateCmd.Flags().StringVar(&groupDescription, "description", "", "what the group is about")
	groupCreateCmd.MarkFlagRequired("title")
	groupCreateCmd.MarkFlagRequired("slug")

	groupCmd.AddCommand(groupCreateCmd, groupListCmd, groupDeleteCmd)
}
