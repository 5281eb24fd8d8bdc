package books

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/crucial707/booktrack/cmd/cli/apiclient"
	"github.com/crucial707/booktrack/cmd/cli/output"
	"github.com/spf13/cobra"
)

// ==========================
// Init Books
// ==========================
func InitBooks(rootCmd *cobra.Command) {
	booksCmd := &cobra.Command{
		Use:   "books",
		Short: "Manage your reading list",
	}

	booksCmd.AddCommand(
		listBooksCmd(),
		addBookCmd(),
		statusCmd(),
		deleteBookCmd(),
	)

	rootCmd.AddCommand(booksCmd)
}

type book struct {
	ID          string  `json:"id"`
	CatalogID   string  `json:"catalogId"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	CoverURL    *string `json:"coverUrl,omitempty"`
	Description *string `json:"description,omitempty"`
}

type entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	BookID    string    `json:"bookId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Book      book      `json:"book"`
}

// ==========================
// LIST
// ==========================
func listBooksCmd() *cobra.Command {
	var status string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books in your library",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/books"
			if status != "" {
				path += "?status=" + url.QueryEscape(status)
			}

			var entries []entry
			if err := apiclient.DoAuthed("GET", path, nil, &entries); err != nil {
				return err
			}

			if asJSON {
				return output.PrintJSON(entries)
			}

			rows := make([][]interface{}, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []interface{}{
					e.ID, output.Truncate(e.Book.Title, 40), output.Truncate(e.Book.Author, 30),
					e.Status, e.UpdatedAt.Local().Format("2006-01-02"),
				})
			}
			output.RenderTable([]string{"ID", "Title", "Author", "Status", "Updated"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (to-read, reading, read)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// ADD
// ==========================
func addBookCmd() *cobra.Command {
	var catalogID, title, author, coverURL, description, status string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog book to your library",
		Long:  "Add a book by its catalog id. Use `booktrack search` to find ids.",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{
				"catalogId": catalogID,
				"title":     title,
				"author":    author,
				"status":    status,
			}
			if coverURL != "" {
				payload["coverUrl"] = coverURL
			}
			if description != "" {
				payload["description"] = description
			}

			var e entry
			if err := apiclient.DoAuthed("POST", "/books", payload, &e); err != nil {
				return err
			}
			fmt.Printf("Added %q (%s) as %s. Entry id: %s\n", e.Book.Title, e.Book.CatalogID, e.Status, e.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogID, "catalog-id", "", "catalog volume id")
	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringVar(&author, "author", "", "book author")
	cmd.Flags().StringVar(&coverURL, "cover-url", "", "cover image URL")
	cmd.Flags().StringVar(&description, "description", "", "book description")
	cmd.Flags().StringVar(&status, "status", "to-read", "initial status")
	_ = cmd.MarkFlagRequired("catalog-id")
	return cmd
}

// ==========================
// STATUS
// ==========================
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change the reading status of an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var e entry
			err := apiclient.DoAuthed("PUT", "/books/"+url.PathEscape(args[0]),
				map[string]string{"status": strings.ToLower(args[1])}, &e)
			if err != nil {
				return err
			}
			fmt.Printf("%q is now %s\n", e.Book.Title, e.Status)
			return nil
		},
	}
}

// ==========================
// DELETE
// ==========================
func deleteBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an entry from your library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiclient.DoAuthed("DELETE", "/books/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Println("Book removed")
			return nil
		},
	}
}
