package main

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SearchCmd crawls the website if it isn't indexed yet and prints the
// top matches for the query.
type SearchCmd struct {
	Website string `arg:"" help:"Website URL to search."`
	Query   string `arg:"" help:"Search query."`
}

func (c *SearchCmd) Run(deps *Dependencies) error {
	resp, err := deps.Service.Search(deps.Ctx, c.Website, c.Query)
	if err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results.")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "%d results in %.2fs (%d chunks indexed)\n\n",
		len(resp.Results), resp.Time, resp.TotalChunks)
	for i, r := range resp.Results {
		content := strings.TrimSpace(r.Content)
		if len(content) > 200 {
			cut := 200
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut] + "..."
		}
		fmt.Fprintf(deps.Stdout, "%d. [%.3f] %s\n   %s\n\n", i+1, r.Score, r.URL, content)
	}
	return nil
}
