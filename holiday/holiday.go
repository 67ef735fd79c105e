// Package holiday loads the public holiday calendar from a YAML file.
//
//	holidays:
//	  - date: 2023-01-09
//	    name: Coming of Age Day
//	  - date: 01-01        # every year
//	    name: New Year's Day
package holiday

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type entry struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

type file struct {
	Holidays []entry `yaml:"holidays"`
}

// Calendar answers holiday lookups. The zero value has no holidays.
type Calendar struct {
	dated  map[string]string // 2006-01-02
	yearly map[string]string // 01-02
}

// Load reads a calendar file. An empty path yields an empty calendar.
func Load(path string) (*Calendar, error) {
	if path == "" {
		return &Calendar{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open holiday file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Calendar, error) {
	var doc file
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode holiday file: %w", err)
	}
	c := &Calendar{
		dated:  make(map[string]string),
		yearly: make(map[string]string),
	}
	for i, h := range doc.Holidays {
		d := strings.TrimSpace(h.Date)
		name := strings.TrimSpace(h.Name)
		if name == "" {
			name = "Holiday"
		}
		if _, err := time.Parse("2006-01-02", d); err == nil {
			c.dated[d] = name
			continue
		}
		if _, err := time.Parse("01-02", d); err == nil {
			c.yearly[d] = name
			continue
		}
		return nil, fmt.Errorf("holiday %d: invalid date %q", i+1, h.Date)
	}
	return c, nil
}

// Holiday returns the holiday name for the calendar date of t.
func (c *Calendar) Holiday(t time.Time) (string, bool) {
	if name, ok := c.dated[t.Format("2006-01-02")]; ok {
		return name, true
	}
	name, ok := c.yearly[t.Format("01-02")]
	return name, ok
}

func (c *Calendar) Len() int {
	return len(c.dated) + len(c.yearly)
}
