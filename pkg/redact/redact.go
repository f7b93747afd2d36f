// Package redact applies the compliance policy to scanned prompt text.
package redact

import (
	"sort"
	"strings"

	"github.com/gatewise-ai/gatewise/pkg/models"
	"github.com/gatewise-ai/gatewise/pkg/pii"
)

// DefaultMarker replaces redacted spans when no marker is configured.
const DefaultMarker = "<REDACTED>"

// Result is the outcome of applying a compliance mode to text.
type Result struct {
	// Text is what is eligible to leave the trust boundary.
	Text string
	// Redacted is true when strict mode replaced at least one span.
	Redacted bool
	// AuditFlagged is true when audit-only mode forwarded raw text that
	// contained findings. The caller logs the compliance exception.
	AuditFlagged bool
}

// Apply produces the forwardable text for the given findings and mode.
//
// Strict mode replaces every finding span with marker, merging
// overlapping spans into their union first so no residual PII characters
// survive partial replacement. Audit-only mode returns text unchanged
// and flags the request when findings exist.
func Apply(text string, findings []pii.Finding, mode models.ComplianceMode, marker string) Result {
	if marker == "" {
		marker = DefaultMarker
	}

	if mode == models.ModeAuditOnly {
		return Result{Text: text, AuditFlagged: len(findings) > 0}
	}

	if len(findings) == 0 {
		return Result{Text: text}
	}

	spans := mergeSpans(findings, len(text))

	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(text[prev:s.start])
		b.WriteString(marker)
		prev = s.end
	}
	b.WriteString(text[prev:])

	return Result{Text: b.String(), Redacted: true}
}

type span struct {
	start, end int
}

// mergeSpans clamps finding offsets to the text and merges overlapping
// ranges into their union, returned in ascending order.
func mergeSpans(findings []pii.Finding, textLen int) []span {
	spans := make([]span, 0, len(findings))
	for _, f := range findings {
		start, end := f.Start, f.End
		if start < 0 {
			start = 0
		}
		if end > textLen {
			end = textLen
		}
		if start >= end {
			continue
		}
		spans = append(spans, span{start, end})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	merged := spans[:0]
	for _, s := range spans {
		if n := len(merged); n > 0 && s.start <= merged[n-1].end {
			if s.end > merged[n-1].end {
				merged[n-1].end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
