package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/viper"

	"pactline/internal/domain"
)

// printDetail renders a single object. Detail payloads are irregular
// (optional workflows, nested participants), so both modes emit
// indented JSON; list commands have dedicated table renderers.
func printDetail(v any) error {
	return printJSON(v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(headers ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(headers)
	return t
}

func renderAgreements(items []domain.Agreement) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	t := newTable("ID", "NUMBER", "TITLE", "STATUS", "VALUE", "EFFECTIVE")
	for _, a := range items {
		t.AppendRow(table.Row{a.ID, a.AgreementNumber, a.Title, a.Status, renderValue(a.Value, a.Currency), formatDate(a.EffectiveDate)})
	}
	t.Render()
	return nil
}

func renderNegotiations(items []domain.NegotiationSummary) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	t := newTable("ID", "TITLE", "STATUS", "ROUNDS", "PARTICIPANTS", "LAST ACTIVITY")
	for _, n := range items {
		t.AppendRow(table.Row{n.NegotiationID, n.Title, n.Status, n.TotalRounds, n.ActiveParticipants, formatTimestamp(n.LastActivity)})
	}
	t.Render()
	return nil
}

func renderRounds(items []domain.Round) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	t := newTable("ID", "#", "TITLE", "STATUS", "RESPONDED")
	for _, r := range items {
		t.AppendRow(table.Row{r.ID, r.RoundNumber, r.Title, r.Status, formatTimestamp(r.RespondedAt)})
	}
	t.Render()
	return nil
}

func renderDocuments(items []domain.Document) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	t := newTable("ID", "FILE", "SIZE", "TYPE", "UPLOADED")
	for _, doc := range items {
		t.AppendRow(table.Row{doc.ID, doc.FileName, formatSize(doc.FileSize), doc.MimeType, formatTimestamp(doc.CreatedAt)})
	}
	t.Render()
	return nil
}

func renderUsers(items []domain.UserListEntry) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	t := newTable("ID", "NAME", "EMAIL")
	for _, u := range items {
		t.AppendRow(table.Row{u.ID, u.FullName, u.Email})
	}
	t.Render()
	return nil
}

func renderValue(value *float64, currency string) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f %s", *value, currency)
}

// formatDate renders a date as "June 1, 2024"; the raw string comes
// back unchanged when it does not parse.
func formatDate(s string) string {
	if s == "" {
		return "-"
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return s
}

func formatTimestamp(s string) string {
	if s == "" {
		return "-"
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Local().Format("2006-01-02 15:04")
	}
	return s
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
