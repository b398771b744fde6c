package main

import (
	"fmt"

	websearch "github.com/Mati018/website-search"
)

// ClearCmd deletes every collection from the store.
type ClearCmd struct{}

func (c *ClearCmd) Run(deps *Dependencies) error {
	names, err := deps.Store.ListCollections(deps.Ctx)
	if err != nil {
		return err
	}
	deleted := 0
	for _, name := range names {
		if err := deps.Store.DeleteCollection(deps.Ctx, name); err != nil {
			if websearch.ErrorCode(err) == websearch.ENOTFOUND {
				continue
			}
			return err
		}
		deleted++
	}
	fmt.Fprintf(deps.Stdout, "Deleted %d collections\n", deleted)
	return nil
}
