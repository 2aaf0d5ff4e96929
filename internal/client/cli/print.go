package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/common"
)

const descriptionWidth = 40

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func printEscrows(w io.Writer, items []models.Escrow) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No escrows.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBUYER\tSELLER\tAMOUNT\tSTATUS\tCREATED\tDESCRIPTION")
	for _, e := range items {
		desc := strings.Join(strings.Fields(e.Description), " ")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.BuyerID, e.SellerID, e.Amount.StringFixed(2), e.Status,
			formatTime(e.CreatedAt), common.Truncate(desc, descriptionWidth))
	}
	tw.Flush()
}

func printTransactions(w io.Writer, items []models.Transaction) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBUYER\tSELLER\tAMOUNT\tSTATUS\tCREATED\tUPDATED")
	for _, t := range items {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			t.ID, t.BuyerID, t.SellerID, t.Amount.StringFixed(2), t.Status,
			formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	}
	tw.Flush()
}

func printLogs(w io.Writer, items []models.TransactionLog) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No log entries.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tEVENT\tDETAILS")
	for _, l := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.ID, formatTime(l.CreatedAt), l.EventType, l.EventDetails)
	}
	tw.Flush()
}

func printUser(w io.Writer, u models.User) {
	fmt.Fprintf(w, "User #%d %s\n", u.ID, u.Username)
	fmt.Fprintf(w, "Role: %s\n", u.Role)
	fmt.Fprintf(w, "Member since: %s\n", formatTime(u.CreatedAt))
}

func printUsers(w io.Writer, users []models.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, formatTime(u.CreatedAt))
	}
	tw.Flush()
}

func printFiles(w io.Writer, files []models.FileRef) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No files.")
		return
	}
	for _, f := range files {
		fmt.Fprintln(w, f.URL)
	}
}
