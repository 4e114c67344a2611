package output

import (
	"strconv"
	"time"

	"helix/internal/twitch"
)

var userColumns = []string{"ID", "Login", "Display Name", "Type", "Broadcaster", "Views", "Created"}

// UserTable renders users one per row
func (p *Printer) UserTable(users []twitch.User) error {
	table := NewTableWithWriter(p.out, userColumns)
	for _, u := range users {
		table.AddRow([]string{
			u.ID,
			p.Bold(u.Login),
			u.DisplayName,
			orDash(u.Type),
			orDash(u.BroadcasterType),
			strconv.FormatInt(u.ViewCount, 10),
			formatDate(u.CreatedAt),
		})
	}
	return table.Render()
}

// UserDetail renders a single user as key/value rows
func (p *Printer) UserDetail(u twitch.User) error {
	table := NewTableWithWriter(p.out, []string{"Field", "Value"})
	table.AddRow([]string{"id", u.ID})
	table.AddRow([]string{"login", u.Login})
	table.AddRow([]string{"display_name", u.DisplayName})
	table.AddRow([]string{"type", orDash(u.Type)})
	table.AddRow([]string{"broadcaster_type", orDash(u.BroadcasterType)})
	table.AddRow([]string{"description", orDash(u.Description)})
	table.AddRow([]string{"profile_image_url", orDash(u.ProfileImageURL)})
	table.AddRow([]string{"offline_image_url", orDash(u.OfflineImageURL)})
	table.AddRow([]string{"view_count", strconv.FormatInt(u.ViewCount, 10)})
	table.AddRow([]string{"created_at", formatDate(u.CreatedAt)})
	return table.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
