// Package report renders estimation results as human-readable text for the
// console, with machine output left to the JSON encodings of the domain
// types.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/avelarde/sizecast/internal/core/domain"
)

const ruleWidth = 70

// Renderer writes plain-text reports to a single destination writer.
type Renderer struct {
	w io.Writer
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// DatabaseSize prints the database overview followed by a per-collection
// breakdown, largest collections first, each with a proportional bar.
func (r *Renderer) DatabaseSize(summary *domain.DatabaseSize) {
	r.rule("DATABASE SIZE")
	fmt.Fprintf(r.w, "  Database:          %s\n", summary.Name)
	if summary.Description != "" {
		fmt.Fprintf(r.w, "  Description:       %s\n", summary.Description)
	}
	fmt.Fprintf(r.w, "  Total Collections: %d\n", summary.TotalCollections)
	fmt.Fprintf(r.w, "  Total Documents:   %d\n", summary.TotalDocuments)
	fmt.Fprintf(r.w, "  Total Size:        %s\n", FormatSize(summary.TotalSizeBytes))

	r.rule("COLLECTION BREAKDOWN")
	for _, name := range sortBySize(summary.Collections) {
		cs := summary.Collections[name]
		pct := 0.0
		if summary.TotalSizeBytes > 0 {
			pct = float64(cs.TotalSizeBytes) / float64(summary.TotalSizeBytes) * 100
		}
		fmt.Fprintf(r.w, "\n  %s\n", name)
		fmt.Fprintf(r.w, "    Documents:    %d\n", cs.DocumentCount)
		fmt.Fprintf(r.w, "    Avg Doc Size: %d bytes\n", cs.AvgDocumentSizeBytes)
		fmt.Fprintf(r.w, "    Total Size:   %s (%.2f%%)\n", FormatSize(cs.TotalSizeBytes), pct)
		fmt.Fprintf(r.w, "    [%s]\n", bar(pct))
	}
}

// Estimate prints one operator estimate: identity, cardinalities, sizes and
// the cost breakdown when present.
func (r *Renderer) Estimate(est *domain.Estimate) {
	r.rule(est.Operator)
	switch {
	case est.Collection != "":
		fmt.Fprintf(r.w, "  Collection:   %s\n", est.Collection)
	case est.LeftCollection != "":
		fmt.Fprintf(r.w, "  Collections:  %s JOIN %s ON %s\n", est.LeftCollection, est.RightCollection, est.JoinKey)
	}
	if est.InputDocCount > 0 {
		fmt.Fprintf(r.w, "  Input Docs:   %d\n", est.InputDocCount)
	}
	fmt.Fprintf(r.w, "  Output Docs:  %d\n", est.OutputDocCount)
	if est.DistinctGroups > 0 {
		fmt.Fprintf(r.w, "  Groups:       %d\n", est.DistinctGroups)
	}
	fmt.Fprintf(r.w, "  Avg Doc Size: %d bytes\n", est.AvgDocSizeBytes)
	fmt.Fprintf(r.w, "  Output Size:  %s\n", FormatSize(est.OutputSizeBytes))

	if est.Shards > 0 {
		fmt.Fprintf(r.w, "  Shards:       %d", est.Shards)
		if est.CoLocated {
			fmt.Fprint(r.w, " (co-located)")
		}
		fmt.Fprintln(r.w)
		if est.InputDocsPerShard > 0 {
			fmt.Fprintf(r.w, "  Docs/Shard:   %d in, %d out\n", est.InputDocsPerShard, est.OutputDocsPerShard)
		}
		if est.GroupsPerShard > 0 {
			fmt.Fprintf(r.w, "  Groups/Shard: %d\n", est.GroupsPerShard)
		}
	}

	if c := est.Costs; c != nil {
		fmt.Fprintf(r.w, "  Costs:        io=%.4f cpu=%.4f net=%.4f total=%.4f\n",
			c.IOCost, c.CPUCost, c.NetworkCost, c.TotalCost)
	}
}

func (r *Renderer) rule(title string) {
	fmt.Fprintf(r.w, "\n%s\n%s\n%s\n", strings.Repeat("=", ruleWidth), title, strings.Repeat("=", ruleWidth))
}

// bar maps a percentage to a fixed-width proportional bar, capped at 50
// cells so a dominant collection still fits the line.
func bar(pct float64) string {
	n := int(pct / 2)
	if n > 50 {
		n = 50
	}
	if n < 0 {
		n = 0
	}
	return strings.Repeat("█", n)
}

// sortBySize orders collection names by total size, descending, with name
// order as a deterministic tiebreak.
func sortBySize(collections map[string]domain.CollectionSize) []string {
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := collections[names[i]].TotalSizeBytes, collections[names[j]].TotalSizeBytes
		if si != sj {
			return si > sj
		}
		return names[i] < names[j]
	})
	return names
}

// FormatSize renders a byte count in the largest unit keeping the value
// under 1024, with two decimals.
func FormatSize(bytes int64) string {
	v := float64(bytes)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if v < 1024.0 {
			return fmt.Sprintf("%.2f %s", v, unit)
		}
		v /= 1024.0
	}
	return fmt.Sprintf("%.2f PB", v)
}
