package commands

import (
	"context"
	"fmt"
)

type SequenceCmd struct {
	Partition string `arg:"" help:"Partition key, e.g. a fiscal-year code like 25-26."`
	Prefix    string `arg:"" help:"Sequence prefix, e.g. INV."`
}

func (c *SequenceCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.sequences.Next(ctx, c.Partition, c.Prefix)
	if err != nil {
		return err
	}

	fmt.Printf("%d\n", n)
	return nil
}
