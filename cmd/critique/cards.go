package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/anime-shed/ux-critique-go/pkg/models"
)

// printCards writes one text card per critique entry
func printCards(w io.Writer, result *models.AnalysisResult) {
	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "No issues reported.")
		return
	}

	for i, e := range result.Entries {
		header := []string{string(e.Category)}
		if e.Priority > 0 {
			header = append(header, fmt.Sprintf("priority %d", e.Priority))
		}
		if e.Effort != "" {
			header = append(header, "effort "+string(e.Effort))
		}
		fmt.Fprintf(w, "[%d] %s\n", i+1, strings.Join(header, " | "))

		field(w, "Issue", e.Issue)
		field(w, "Suggestion", e.Suggestion)
		field(w, "Reference", e.Reference)
		field(w, "Component", e.Component)
		field(w, "Impact", e.Impact)
		field(w, "Metrics", strings.Join(e.Metrics, ", "))
		fmt.Fprintln(w)
	}

	if result.Dropped > 0 {
		fmt.Fprintf(w, "(%d malformed entries skipped)\n", result.Dropped)
	}
}

func field(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "    %-11s %s\n", label+":", value)
}
