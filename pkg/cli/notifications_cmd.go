package cli

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// notification mirrors the server's notification JSON.
type notification struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject,omitempty"`
	Message    string    `json:"message"`
	Error      string    `json:"error,omitempty"`
	Operation  string    `json:"operation,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Principal  string    `json:"principal,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type notificationPage struct {
	Data          []notification `json:"data"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

func newNotificationsCmd(client *Client) *cobra.Command {
	var (
		maxResults int
		pageToken  string
		subject    string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List fetch failures recorded while building summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if maxResults > 0 {
				q.Set("max_results", strconv.Itoa(maxResults))
			}
			if subject != "" {
				q.Set("subject", subject)
			}

			var page notificationPage
			var err error
			if all {
				page.Data, err = fetchAllNotifications(cmd.Context(), client, q)
			} else {
				if pageToken != "" {
					q.Set("page_token", pageToken)
				}
				err = client.GetJSON(cmd.Context(), "/notifications", q, &page)
			}
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, page)
			}
			t := newTable(os.Stdout, "CREATED", "SUBJECT", "MESSAGE", "STATUS", "ERROR")
			for _, n := range page.Data {
				status := ""
				if n.StatusCode != 0 {
					status = strconv.Itoa(n.StatusCode)
				}
				t.AppendRow(table.Row{n.CreatedAt.Local().Format(time.DateTime), n.Subject, n.Message, status, n.Error})
			}
			t.Render()
			if page.NextPageToken != "" {
				_, _ = os.Stdout.WriteString("next page: --page-token " + page.NextPageToken + "\n")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Page size (1-500)")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Token of the page to fetch")
	cmd.Flags().StringVar(&subject, "subject", "", "Only notifications about this entity FQN")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	return cmd
}

// fetchAllNotifications follows next_page_token until the last page.
func fetchAllNotifications(ctx context.Context, client *Client, q url.Values) ([]notification, error) {
	var out []notification
	token := ""
	for {
		pq := url.Values{}
		for k, v := range q {
			pq[k] = v
		}
		if token != "" {
			pq.Set("page_token", token)
		}
		var page notificationPage
		if err := client.GetJSON(ctx, "/notifications", pq, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		if page.NextPageToken == "" || page.NextPageToken == token {
			return out, nil
		}
		token = page.NextPageToken
	}
}
