package spreadsheet

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math/bits"
	"strconv"
	"strings"
	"time"

	"timecard/models"
	"timecard/timecard"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var csvHeader = []string{"date", "in", "out", "break_start", "break_end"}

// ReadCSV parses date,in,out,break_start,break_end rows. UTF-16 input with a
// BOM is decoded; anything else is read as UTF-8.
func ReadCSV(r io.Reader, m timecard.Month, loc *time.Location) (map[int][]timecard.Entry, error) {
	br := bufio.NewReader(r)
	bom, _ := br.Peek(2)

	var src io.Reader = br
	if len(bom) == 2 && (bom[0] == 0xFE && bom[1] == 0xFF || bom[0] == 0xFF && bom[1] == 0xFE) {
		dec := unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
		src = transform.NewReader(br, dec)
	} else {
		src = transform.NewReader(br, unicode.UTF8BOM.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformed, err)
	}
	idx := make(map[string]int, len(head))
	for i, h := range head {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range csvHeader {
		if _, ok := idx[h]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, h)
		}
	}

	days := make(map[int][]timecard.Entry)
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		field := func(name string) string {
			if i := idx[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		date := field("date")
		if date == "" {
			continue
		}
		times := make([]string, 0, 4)
		for _, h := range csvHeader[1:] {
			times = append(times, field(h))
		}
		day, entries, err := parseDay(date, times, m, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		days[day] = entries
	}
	return days, nil
}

// WriteSummaries writes approved summaries as CSV, one row per user.
func WriteSummaries(w io.Writer, sums []models.MonthlySummary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Employee", "Email", "Month", "Work hours", "Break hours", "Worked days"}); err != nil {
		return err
	}
	for _, s := range sums {
		name, email := "", ""
		if s.User != nil {
			name = s.User.DisplayName()
			email = s.User.Email
		}
		if err := writer.Write([]string{
			name,
			email,
			s.Month,
			s.TotalWorkHours,
			s.TotalBreakHours,
			strconv.Itoa(bits.OnesCount32(s.WorkedDays)),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
