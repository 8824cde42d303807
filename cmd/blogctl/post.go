package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sakif/blog/internal/service"
)

var postCmd = &cobra.Command{
	Use:     "post",
	Aliases: []string{"posts"},
	Short:   "Inspect posts",
}

var (
	postSearch string
	postLimit  int
)

var postListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the newest posts, optionally only those containing some text",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		// Listing never touches images, so no image store is needed.
		posts := service.NewPostService(db, db, db, nil, 0, newLogger())
		found, err := posts.Search(cmd.Context(), postSearch, postLimit)
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetAutoWrapText(false)
		table.SetHeader([]string{"ID", "Text", "Published", "Author", "Group"})
		for _, p := range found {
			group := color.New(color.Faint).Sprint("-")
			if p.Group != nil {
				group = p.Group.Slug
			}
			table.Append([]string{
				p.ID,
				p.Title(),
				p.PubDate.Local().Format("2006-01-02 15:04"),
				p.Author.Username,
				group,
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	postListCmd.Flags().StringVarP(&postSearch, "search", "s", "", "only posts whose text contains this")
	postListCmd.Flags().IntVarP(&postLimit, "limit", "n", 20, "how many posts to show")

	postCmd.AddCommand(postListCmd)
}
