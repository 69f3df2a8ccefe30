// Package report renders a deal's request list for printing and exports it
// as CSV.
package report

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"

	"diligence-tracker/internal/model"
	"diligence-tracker/internal/tracker"
)

// MsgExportFailed is shown when a report or export cannot be produced.
const MsgExportFailed = "Failed to export"

//go:embed report.html
var reportHTML string

var page = template.Must(template.New("report").Funcs(template.FuncMap{
	"markdown": func(content string) template.HTML {
		var buf strings.Builder
		if err := goldmark.Convert([]byte(content), &buf); err != nil {
			return template.HTML("<p>Error rendering markdown</p>")
		}
		return template.HTML(buf.String())
	},
	"bytes": func(n int64) string {
		if n < 0 {
			n = 0
		}
		return humanize.Bytes(uint64(n))
	},
	"ago": func(t *time.Time) string {
		if t == nil {
			return "never"
		}
		return humanize.Time(*t)
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return "—"
		}
		return t.Format("2006-01-02")
	},
	"label": label,
}).Parse(reportHTML))

// Data is everything the printable report shows. Documents, Comments and
// Assignees are keyed by request id.
type Data struct {
	Deal        model.Deal
	Groups      []tracker.Group
	Documents   map[uint][]model.Document
	Comments    map[uint][]model.Comment
	Assignees   map[uint][]string
	GeneratedAt time.Time
}

// Total counts the requests across groups.
func (d Data) Total() int {
	var n int
	for _, g := range d.Groups {
		n += len(g.Requests)
	}
	return n
}

// RenderHTML writes the printable report.
func RenderHTML(w io.Writer, d Data) error {
	if err := page.Execute(w, d); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// CSVHeader is the first row of WriteCSV.
var CSVHeader = []string{"ID", "Category", "Title", "Status", "Priority", "Due date", "Completed", "Assignees", "Last activity"}

// WriteCSV exports requests in the given order. Names resolve category ids;
// members resolves assignee ids.
func WriteCSV(w io.Writer, requests []model.Request, categories map[uint]string, members map[uint]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, r := range requests {
		names := make([]string, 0, len(r.Assignees))
		for _, id := range r.Assignees {
			if n, ok := members[id]; ok {
				names = append(names, n)
			}
		}
		category := categories[r.CategoryID]
		if category == "" {
			category = tracker.OtherName
		}
		row := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			category,
			r.Title,
			label(r.Status),
			label(r.Priority),
			isoDate(r.DueDate),
			isoDate(r.CompletedAt),
			strings.Join(names, "; "),
			isoTime(r.LastActivityAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// label turns a status or priority value into display text.
func label(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "_", " ")
	return strings.ToUpper(v[:1]) + v[1:]
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func isoTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
