package notifier

import "fmt"

// FormatSummary formats the message announcing how many listings were found.
func FormatSummary(count int) string {
	return fmt.Sprintf("少吃一口会死! Found %d items", count)
}

// FormatLink formats the Markdown link message for the n-th listing.
func FormatLink(n int, baseURL, id string) string {
	return fmt.Sprintf("[link %d](%s%s)", n, baseURL, id)
}
