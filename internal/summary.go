package internal

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/starford/zettelmark/internal/index"
	"github.com/starford/zettelmark/internal/noteservice"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
)

// printSummary writes a human-readable build report to w.
func printSummary(w io.Writer, sum *noteservice.BuildSummary, invalid []index.InvalidRow) {
	okColor.Fprintf(w, "Built %d documents (%d notes) in %s\n", sum.Documents, sum.Notes, sum.Duration)
	fmt.Fprintf(w, "  written: %d, pruned: %d, changed: %d, removed: %d\n",
		sum.Written, sum.Pruned, len(sum.Updated), len(sum.Removed))
	if len(invalid) == 0 {
		return
	}
	warnColor.Fprintf(w, "%d documents are not notes:\n", len(invalid))
	for _, doc := range invalid {
		warnColor.Fprintf(w, "  %s: %s\n", doc.Path, doc.Reason)
	}
}
