package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Abathargh/platconf/internal/board"
	"github.com/Abathargh/platconf/internal/chip"
	"github.com/Abathargh/platconf/internal/layout"
)

const (
	entryWidth = 26
	valueWidth = 14
	titleWidth = entryWidth + valueWidth + 1

	headerColorHex = "#ececec"
	entryColorHex  = "#aeaeae"
	warnColorHex   = "#e5c07b"
	errorColorHex  = "#e06c75"
	okColorHex     = "#98c379"
)

var (
	headerColor = lipgloss.Color(headerColorHex)
	entryColor  = lipgloss.Color(entryColorHex)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(headerColor).
			Align(lipgloss.Center)

	nameStyle = lipgloss.NewStyle().
			Width(entryWidth).
			Foreground(entryColor).
			Align(lipgloss.Left)

	valueStyle = lipgloss.NewStyle().
			Width(valueWidth).
			Foreground(entryColor).
			Align(lipgloss.Right)

	titleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Width(titleWidth).
			Foreground(entryColor).
			Align(lipgloss.Center)

	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(warnColorHex))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(errorColorHex))
	greenStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(okColorHex))
)

// reportRows returns the values printed for a board: the board summary
// followed, for embedded targets, by the memory layout.
func reportRows(b board.Board, l *layout.Layout, target string) [][2]string {
	traits, _ := chip.Lookup(b.Chip.Family)

	rows := [][2]string{
		{"Header", target},
		{"Board", b.Name},
		{"Family", string(b.Chip.Family)},
		{"Class", string(traits.Class)},
		{"Part", b.Chip.Part},
	}

	if b.Chip.Subfamily != "" {
		rows = append(rows, [2]string{"Subfamily", b.Chip.Subfamily})
	}

	if l == nil {
		return append(rows, [2]string{"Variables", "dynamic"})
	}

	for _, entry := range l.Entries() {
		rows = append(rows, [2]string{entry.Name, strconv.Itoa(entry.Value)})
	}
	return rows
}

func printReport(w io.Writer, b board.Board, l *layout.Layout, target string, bare bool) {
	rows := reportRows(b, l, target)

	if bare {
		for _, row := range rows {
			fmt.Fprintf(w, "%s = %s\n", row[0], row[1])
		}
	} else {
		fmt.Fprintln(w, titleBox.Render(fmt.Sprintf("platconf - %s", b.Name)))

		t := makeTable()
		for _, row := range rows {
			t.Row(row[0], row[1])
		}
		fmt.Fprintln(w, t)
	}

	if l != nil && l.Overcommitted() {
		msg := fmt.Sprintf("warning: no flash left for code (%d bytes)", l.FlashAvailableForCode)
		if !bare {
			msg = warnStyle.Render(msg)
		}
		fmt.Fprintln(w, msg)
	}
}

func makeTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return nameStyle
			default:
				return valueStyle
			}
		}).
		Headers("Entry", "Value")
}

// okStyle returns the style for success messages, plain when bare.
func okStyle(bare bool) lipgloss.Style {
	if bare {
		return lipgloss.NewStyle()
	}
	return greenStyle
}
