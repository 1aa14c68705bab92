package usecase

import (
	"fmt"
	"strings"

	"PressTopics/internal/domain"
)

const digestTermsPerTopic = 5

// buildDigestMessage renders a short Markdown summary of a finished job.
func buildDigestMessage(jobID string, result domain.JobResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Job %s complete*\n", jobID)
	fmt.Fprintf(&b, "Articles: %d\n", len(result.Allocation.Documents))

	if len(result.TopTerms) > 0 {
		terms := make([]string, 0, len(result.TopTerms))
		for _, tc := range result.TopTerms {
			terms = append(terms, fmt.Sprintf("%s (%d)", tc.Term, tc.Count))
		}
		fmt.Fprintf(&b, "Top terms: %s\n", strings.Join(terms, ", "))
	}

	for _, model := range []domain.ModelResult{result.Factorization, result.Allocation} {
		if len(model.Model.Topics) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n_%s_\n", model.Model.Family)
		for i, topic := range model.Model.Topics {
			words := make([]string, 0, digestTermsPerTopic)
			for _, tw := range topic {
				if len(words) == digestTermsPerTopic {
					break
				}
				words = append(words, tw.Term)
			}
			fmt.Fprintf(&b, "- Topic %d: %s\n", i, strings.Join(words, " "))
		}
	}

	return b.String()
}
