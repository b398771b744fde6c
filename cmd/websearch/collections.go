package main

import "fmt"

// CollectionsCmd lists indexed collections with their chunk counts.
type CollectionsCmd struct{}

func (c *CollectionsCmd) Run(deps *Dependencies) error {
	names, err := deps.Store.ListCollections(deps.Ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(deps.Stdout, "No collections.")
		return nil
	}
	for _, name := range names {
		n, err := deps.Store.CountChunks(deps.Ctx, name)
		if err != nil {
			return err
		}
		ready, err := deps.Store.Ready(deps.Ctx, name)
		if err != nil {
			return err
		}
		status := "ready"
		if !ready {
			status = "building"
		}
		fmt.Fprintf(deps.Stdout, "%s\t%d chunks\t%s\n", name, n, status)
	}
	return nil
}
