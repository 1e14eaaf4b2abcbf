package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/kidandcat/bugracer/internal/model"
	"github.com/kidandcat/bugracer/internal/stats"
)

var out io.Writer = os.Stdout

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "no results")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printBugs(bugs []model.Bug) {
	rows := make([][]string, 0, len(bugs))
	for _, b := range bugs {
		rows = append(rows, []string{
			b.ID,
			b.Name,
			b.ProjectID,
			string(b.Priority),
			b.Status.Label(),
			orDash(b.AssigneeID),
			formatTime(b.UpdatedAt),
		})
	}
	printTable([]string{"ID", "NAME", "PROJECT", "PRIORITY", "STATUS", "ASSIGNEE", "UPDATED"}, rows)
}

func printBug(b model.Bug) {
	printKV([][2]string{
		{"id", b.ID},
		{"name", b.Name},
		{"project", b.ProjectID},
		{"dashboards", orDash(strings.Join(b.AffectedDashboards, ","))},
		{"priority", string(b.Priority)},
		{"status", b.Status.Label()},
		{"reporter", b.ReporterID},
		{"assignee", orDash(b.AssigneeID)},
		{"created", formatTime(b.CreatedAt)},
		{"updated", formatTime(b.UpdatedAt)},
	})
	if b.Description != "" {
		_, _ = fmt.Fprintf(out, "\n%s\n", b.Description)
	}
}

func printProjects(projects []model.Project) {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			string(p.Status),
			strconv.Itoa(len(p.Dashboards)),
			formatTime(p.CreatedAt),
		})
	}
	printTable([]string{"ID", "NAME", "STATUS", "DASHBOARDS", "CREATED"}, rows)
}

func printUsers(users []model.User) {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Name, u.Email, u.Role.Title()})
	}
	printTable([]string{"ID", "NAME", "EMAIL", "ROLE"}, rows)
}

func printUser(u model.User) {
	printKV([][2]string{
		{"id", u.ID},
		{"name", u.Name},
		{"username", orDash(u.Username)},
		{"email", u.Email},
		{"role", u.Role.Title()},
	})
}

func printActivities(acts []model.Activity) {
	rows := make([][]string, 0, len(acts))
	for _, a := range acts {
		rows = append(rows, []string{formatTime(a.CreatedAt), a.Type, a.UserID, a.Description})
	}
	printTable([]string{"WHEN", "TYPE", "USER", "DESCRIPTION"}, rows)
}

func printSummary(s stats.Summary) {
	rows := [][2]string{
		{"total", strconv.Itoa(s.Total)},
		{"open", strconv.Itoa(s.Open())},
	}
	for _, st := range model.Statuses {
		rows = append(rows, [2]string{st.Label(), strconv.Itoa(s.ByStatus[st])})
	}
	printKV(rows)
}

func printProjectStats(items []stats.ProjectStats) {
	rows := make([][]string, 0, len(items))
	for _, p := range items {
		rows = append(rows, []string{
			p.ProjectName,
			strconv.Itoa(p.TotalBugs),
			strconv.Itoa(p.PendingBugs),
			strconv.Itoa(p.FixedBugs),
		})
	}
	printTable([]string{"PROJECT", "TOTAL", "PENDING", "FIXED"}, rows)
}

func printWeekly(days []stats.Day) {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{d.Date, strconv.Itoa(d.Bugs), strconv.Itoa(d.Fixes)})
	}
	printTable([]string{"DATE", "REPORTED", "FIXED"}, rows)
}
