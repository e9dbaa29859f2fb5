package export

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

const (
	SectionOverview  = "overview"
	SectionProducts  = "products"
	SectionSchedules = "schedules"
	SectionSplits    = "splits"
	SectionNotes     = "notes"
)

var allSections = []string{SectionOverview, SectionProducts, SectionSchedules, SectionSplits, SectionNotes}

var (
	ErrFormat  = errors.New("format must be csv or pdf")
	ErrSection = errors.New("unknown export section")
	ErrOptions = errors.New("invalid export options")
)

type Options struct {
	Orientation     string  `json:"orientation"`
	IncludeBranding bool    `json:"includeBranding"`
	NotesFrom       *string `json:"notesFrom"`
	NotesTo         *string `json:"notesTo"`
	NotesAuthor     string  `json:"notesAuthor"`
}

type Request struct {
	Sections []string `json:"sections"`
	Format   string   `json:"format"`
	Options  Options  `json:"options"`
}

// Normalize validates the request in place: format and sections are
// lowercased, duplicate sections dropped, and an empty list selects all.
func (r *Request) Normalize() error {
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
	if r.Format != FormatCSV && r.Format != FormatPDF {
		return ErrFormat
	}

	seen := map[string]bool{}
	out := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		s = strings.ToLower(strings.TrimSpace(s))
		if !known(s) {
			return fmt.Errorf("%w: %q", ErrSection, s)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = append(out, allSections...)
	}
	r.Sections = out

	switch o := strings.ToLower(strings.TrimSpace(r.Options.Orientation)); o {
	case "", "portrait":
		r.Options.Orientation = "portrait"
	case "landscape":
		r.Options.Orientation = o
	default:
		return fmt.Errorf("%w: orientation %q", ErrOptions, r.Options.Orientation)
	}
	return nil
}

func (r *Request) Has(section string) bool {
	for _, s := range r.Sections {
		if s == section {
			return true
		}
	}
	return false
}

// NotesRange parses the optional notes date filter. A bare date for
// notesTo covers the whole day.
func (o Options) NotesRange() (from, to *time.Time, err error) {
	if from, err = parseDay(o.NotesFrom, false); err != nil {
		return nil, nil, err
	}
	if to, err = parseDay(o.NotesTo, true); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func parseDay(v *string, endOfDay bool) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrOptions, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func known(s string) bool {
	for _, k := range allSections {
		if s == k {
			return true
		}
	}
	return false
}
