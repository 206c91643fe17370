package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/synapse-news/synapse-client/pkg/client"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printNews(w io.Writer, news []client.News) {
	if len(news) == 0 {
		fmt.Fprintln(w, "No articles.")
		return
	}
	t := newTable("ID", "PUBLISHED", "TITLE")
	for _, n := range news {
		published := ""
		if ts, ok := n.Published(); ok {
			published = ts.Format("2006-01-02")
		}
		t.Row(strconv.FormatInt(n.ID, 10), published, n.Title)
	}
	fmt.Fprintln(w, t.String())
}

func printTopics(w io.Writer, topics []client.Topic) {
	if len(topics) == 0 {
		fmt.Fprintln(w, "No topics.")
		return
	}
	t := newTable("ID", "NAME")
	for _, tp := range topics {
		t.Row(strconv.FormatInt(tp.ID, 10), tp.Name)
	}
	fmt.Fprintln(w, t.String())
}

func printSources(w io.Writer, sources []client.Source) {
	if len(sources) == 0 {
		fmt.Fprintln(w, "No sources.")
		return
	}
	t := newTable("ID", "NAME", "URL")
	for _, s := range sources {
		t.Row(strconv.FormatInt(s.ID, 10), s.Name, s.URL)
	}
	fmt.Fprintln(w, t.String())
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
