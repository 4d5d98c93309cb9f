package sim

import (
	"fmt"
	"io"
	"strings"
)

// Stat is one scalar summary statistic.
type Stat struct {
	Name  string
	Value float64
	Unit  string
}

// Report is the end-of-run summary of a model. Coupled models nest the
// reports of their submodels.
type Report struct {
	ModelID  string
	Stats    []Stat
	Children []Report
}

// Stat returns the value of the named statistic.
func (r Report) Stat(name string) (float64, bool) {
	for _, s := range r.Stats {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

// Find searches r and its descendants for the report of modelID.
func (r Report) Find(modelID string) (Report, bool) {
	if r.ModelID == modelID {
		return r, true
	}
	for _, c := range r.Children {
		if found, ok := c.Find(modelID); ok {
			return found, true
		}
	}
	return Report{}, false
}

// Print writes the textual report.
func (r Report) Print(w io.Writer) {
	r.print(w, 0)
}

func (r Report) print(w io.Writer, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s=== %s ===\n", indent, r.ModelID)
	for _, s := range r.Stats {
		fmt.Fprintf(w, "%s%-28s: %.4f %s\n", indent, s.Name, s.Value, s.Unit)
	}
	for _, c := range r.Children {
		c.print(w, depth+1)
	}
}
