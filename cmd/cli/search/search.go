package search

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/crucial707/booktrack/cmd/cli/apiclient"
	"github.com/crucial707/booktrack/cmd/cli/output"
	"github.com/spf13/cobra"
)

func InitSearch(rootCmd *cobra.Command) {
	rootCmd.AddCommand(searchCmd())
}

type volume struct {
	CatalogID   string `json:"catalogId"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	CoverURL    string `json:"coverUrl,omitempty"`
	Description string `json:"description,omitempty"`
}

func searchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the book catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")

			var vols []volume
			if err := apiclient.DoAuthed("GET", "/catalog/search?q="+url.QueryEscape(q), nil, &vols); err != nil {
				return err
			}

			if asJSON {
				return output.PrintJSON(vols)
			}
			if len(vols) == 0 {
				fmt.Printf("No results for %q\n", q)
				return nil
			}

			rows := make([][]interface{}, 0, len(vols))
			for _, v := range vols {
				rows = append(rows, []interface{}{v.CatalogID, output.Truncate(v.Title, 50), output.Truncate(v.Author, 30)})
			}
			output.RenderTable([]string{"Catalog ID", "Title", "Author"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}
