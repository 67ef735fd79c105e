// Package spreadsheet moves monthly timecards in and out of xlsx and CSV files.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"timecard/models"
	"timecard/timecard"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "Report"
	headerRow = 5
	firstRow  = 6
)

var header = []string{"Date", "Weekday", "Kind", "In", "Out", "Break start", "Break end", "Work", "Break", "Note", "Error"}

// Columns of a day row, 1-based.
const (
	colDate = iota + 1
	colWeekday
	colKind
	colIn
	colOut
	colBreakStart
	colBreakEnd
	colWork
	colBreak
	colNote
	colError
)

// importKinds maps the time columns onto stamp kinds.
var importKinds = []struct {
	col  int
	kind models.Kind
}{
	{colIn, models.KindIn},
	{colOut, models.KindOut},
	{colBreakStart, models.KindEnterBreak},
	{colBreakEnd, models.KindEndBreak},
}

var ErrMalformed = errors.New("malformed timecard file")

// WriteReport renders a month as a single-sheet workbook.
func WriteReport(w io.Writer, name string, r *timecard.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	sw := sheetWriter{f: f}
	sw.set(1, 2, "Attendance report "+r.Month.Label())
	sw.set(1, 4, name)
	for i, h := range header {
		sw.set(i+1, headerRow, h)
	}
	row := firstRow
	for _, d := range r.Days {
		note := d.Holiday
		errText := ""
		if d.Err != nil {
			errText = d.Err.Error()
		}
		sw.set(colDate, row, d.Date)
		sw.set(colWeekday, row, d.Weekday)
		sw.set(colKind, row, string(d.Kind))
		sw.set(colIn, row, d.StartWork)
		sw.set(colOut, row, d.EndWork)
		sw.set(colBreakStart, row, d.EnterBreak)
		sw.set(colBreakEnd, row, d.EndBreak)
		sw.set(colWork, row, d.WorkHours)
		sw.set(colBreak, row, d.BreakHours)
		sw.set(colNote, row, note)
		sw.set(colError, row, errText)
		row++
	}
	sw.set(colDate, row, "Total")
	sw.set(colWork, row, r.TotalWorkHours)
	sw.set(colBreak, row, r.TotalBreakHours)
	if sw.err != nil {
		return sw.err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), headerRow)
	if err := f.SetCellStyle(SheetName, "A1", "A2", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A5", last, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "K", "K", 40); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

type sheetWriter struct {
	f   *excelize.File
	err error
}

func (s *sheetWriter) set(col, row int, v string) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStr(SheetName, cell, v)
}

// ReadReport parses a workbook written by WriteReport, or edited from one,
// into the entries of each listed day of m. A row whose time columns are
// all empty clears that day.
func ReadReport(r io.Reader, m timecard.Month, loc *time.Location) (map[int][]timecard.Entry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	days := make(map[int][]timecard.Entry)
	for i := firstRow - 1; i < len(rows); i++ {
		row := rows[i]
		date := cellAt(row, colDate)
		if date == "" || strings.EqualFold(date, "Total") {
			continue
		}
		cols := make([]string, len(importKinds))
		for j, ik := range importKinds {
			cols[j] = cellAt(row, ik.col)
		}
		day, entries, err := parseDay(date, cols, m, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, i+1, err)
		}
		days[day] = entries
	}
	return days, nil
}

func cellAt(row []string, col int) string {
	if col-1 < len(row) {
		return strings.TrimSpace(row[col-1])
	}
	return ""
}

// parseDay reads one date and its in/out/break columns.
func parseDay(date string, times []string, m timecard.Month, loc *time.Location) (int, []timecard.Entry, error) {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid date %q", date)
	}
	if timecard.MonthOf(d, loc) != m {
		return 0, nil, fmt.Errorf("date %s is not in %s", date, m.Label())
	}
	entries := []timecard.Entry{}
	for j, v := range times {
		if v == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+v, loc)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid time %q", v)
		}
		entries = append(entries, timecard.Entry{Kind: importKinds[j].kind, Time: t})
	}
	return d.Day(), entries, nil
}
