package crawler

import "github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/models"

// Filter drops every candidate found in any of the known sets, applying the
// sets in order and preserving candidate order. The duplicate count for a
// listing page is len(candidates) minus the length of the result.
func Filter(candidates []string, known ...models.LinkSet) []string {
	residual := candidates
	for _, set := range known {
		kept := make([]string, 0, len(residual))
		for _, link := range residual {
			if !set.Contains(link) {
				kept = append(kept, link)
			}
		}
		residual = kept
	}
	return residual
}
