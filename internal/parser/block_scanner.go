package parser

import (
	"strings"
)

type scanState int

const (
	searchingBlock scanState = iota
	searchingHeader
	consumingRows
	scanDone
)

// block is the raw content of one named block: its header row and data rows.
type block struct {
	header  []string
	rows    [][]string
	rowBase int // 1-based sheet row of rows[0]
}

var blockNames = []string{CalibrationBlock, BlankBlock, MeasureBlock}

func firstCell(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return strings.TrimSpace(row[0])
}

func startsBlock(row []string) bool {
	cell := firstCell(row)
	for _, name := range blockNames {
		if strings.HasPrefix(cell, name) {
			return true
		}
	}
	return false
}

func rowHasToken(row []string, token string) bool {
	for _, cell := range row {
		if strings.EqualFold(strings.TrimSpace(cell), token) {
			return true
		}
	}
	return false
}

// scanBlock walks rows looking for the block whose first cell starts with name,
// then for a header row containing headerToken, then consumes data rows until a
// blank first cell. It reports errMissingSection or errMissingHeader when the
// walk ends in the corresponding state.
func scanBlock(rows [][]string, name, headerToken string) (*block, error) {
	state := searchingBlock
	out := &block{}

	for i := 0; i < len(rows) && state != scanDone; i++ {
		row := rows[i]
		switch state {
		case searchingBlock:
			if strings.HasPrefix(firstCell(row), name) {
				state = searchingHeader
			}
		case searchingHeader:
			if rowHasToken(row, headerToken) {
				out.header = row
				out.rowBase = i + 2
				state = consumingRows
			} else if startsBlock(row) {
				return nil, errMissingHeader
			}
		case consumingRows:
			if firstCell(row) == "" || startsBlock(row) {
				state = scanDone
				continue
			}
			out.rows = append(out.rows, row)
		}
	}

	switch state {
	case searchingBlock:
		return nil, errMissingSection
	case searchingHeader:
		return nil, errMissingHeader
	}
	return out, nil
}

func cellAt(row []string, col int) string {
	if col < len(row) {
		return strings.TrimSpace(row[col])
	}
	return ""
}
