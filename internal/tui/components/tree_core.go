package components

import (
	"strings"

	"github.com/artpar/treeview/internal/tree"
)

// This file contains pure functions for laying out rendered trees.
// These functions take values and return values - no mutation, no side effects.

// Row is one visible node container, laid out as terminal lines.
type Row struct {
	Item        tree.Node
	ID          any
	Level       int
	Expanded    bool
	HasChildren bool
	// Lines is the container's own content, already fitted to its height.
	Lines []string
	// Start is the index of the row's first line in the full layout.
	Start int
}

// FlattenRows lays rendered containers out in display order.
// Collapsed containers show exactly Height lines: content is cut or padded.
// Containers with no lines are not reachable and are skipped.
func FlattenRows(rendered []tree.Rendered) []Row {
	var rows []Row
	line := 0
	tree.Walk(rendered, func(r tree.Rendered) bool {
		lines := FitLines(strings.Split(r.Content, "\n"), r.Height)
		if len(lines) == 0 {
			return true
		}
		rows = append(rows, Row{
			Item:        r.Item,
			ID:          r.ID,
			Level:       r.Level,
			Expanded:    r.Expanded,
			HasChildren: r.HasChildren,
			Lines:       lines,
			Start:       line,
		})
		line += len(lines)
		return true
	})
	return rows
}

// FitLines cuts or pads lines to height. AutoHeight keeps them as-is.
func FitLines(lines []string, height int) []string {
	if height == tree.AutoHeight {
		return lines
	}
	if height <= 0 {
		return nil
	}
	result := make([]string, height)
	copy(result, lines)
	return result
}

// TotalLines returns the number of lines the rows occupy.
func TotalLines(rows []Row) int {
	if len(rows) == 0 {
		return 0
	}
	last := rows[len(rows)-1]
	return last.Start + len(last.Lines)
}

// RowAtLine returns the index of the row covering line, or -1.
func RowAtLine(rows []Row, line int) int {
	for i, r := range rows {
		if line >= r.Start && line < r.Start+len(r.Lines) {
			return i
		}
	}
	return -1
}

// FindRow returns the index of the row with the given identity, or -1.
func FindRow(rows []Row, id any) int {
	key := tree.KeyOf(id)
	for i, r := range rows {
		if tree.KeyOf(r.ID) == key {
			return i
		}
	}
	return -1
}

// MoveCursor computes new cursor position within bounds.
func MoveCursor(cursor, delta, itemCount int) int {
	if itemCount == 0 {
		return 0
	}
	newCursor := cursor + delta
	if newCursor < 0 {
		return 0
	}
	if newCursor >= itemCount {
		return itemCount - 1
	}
	return newCursor
}

// AdjustOffset scrolls so that the lines [start, start+size) are visible,
// preferring the first line when the block is taller than the viewport.
func AdjustOffset(start, size, offset, visibleHeight int) int {
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	if size < 1 {
		size = 1
	}
	if start < offset {
		return start
	}
	end := start + min(size, visibleHeight)
	if end > offset+visibleHeight {
		return end - visibleHeight
	}
	return offset
}
