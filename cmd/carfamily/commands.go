package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carfamily/carfamily_sdk_go/pkg/carsync"
)

// FieldsArgs are the car attributes accepted by add and update.
type FieldsArgs struct {
	Brand string `long:"brand" required:"true" description:"car brand"`
	Model string `long:"model" description:"car model; empty marks the record as a base car"`
	Price string `long:"price" required:"true" description:"price"`
	Year  string `long:"year" required:"true" description:"model year"`
}

type ListCmd struct {
	opts *Options
}

func (c *ListCmd) Execute(_ []string) error {
	return c.opts.withCollection(func(_ context.Context, coll *carsync.Collection) error {
		printEntries(c.opts.out, coll.Entries(), time.Now())
		return nil
	})
}

type AddCmd struct {
	FieldsArgs
	opts *Options
}

func (c *AddCmd) Execute(_ []string) error {
	fields, err := carsync.ParseFields(c.Brand, c.Model, c.Price, c.Year)
	if err != nil {
		return err
	}
	return c.opts.withCollection(func(ctx context.Context, coll *carsync.Collection) error {
		res, err := coll.Create(ctx, fields)
		if err != nil {
			return err
		}
		printResult(c.opts.out, "added", res)
		return nil
	})
}

type UpdateCmd struct {
	FieldsArgs
	ID   string `long:"id" required:"true" description:"remote id of the car"`
	opts *Options
}

func (c *UpdateCmd) Execute(_ []string) error {
	fields, err := carsync.ParseFields(c.Brand, c.Model, c.Price, c.Year)
	if err != nil {
		return err
	}
	return c.opts.withCollection(func(ctx context.Context, coll *carsync.Collection) error {
		entry, ok := coll.Lookup(c.ID)
		if !ok {
			return fmt.Errorf("car %q not found", c.ID)
		}
		res, err := coll.Update(ctx, entry.Key, fields)
		if err != nil {
			return err
		}
		printResult(c.opts.out, "updated", res)
		return nil
	})
}

type DeleteCmd struct {
	ID   string `long:"id" required:"true" description:"remote id of the car"`
	opts *Options
}

func (c *DeleteCmd) Execute(_ []string) error {
	return c.opts.withCollection(func(ctx context.Context, coll *carsync.Collection) error {
		entry, ok := coll.Lookup(c.ID)
		if !ok {
			return fmt.Errorf("car %q not found", c.ID)
		}
		outcome, err := coll.Delete(ctx, entry.Key)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.opts.out, "deleted id=%s outcome=%s\n", c.ID, outcome)
		return nil
	})
}

type UserCmd struct {
	Args struct {
		Name string `positional-arg-name:"name" description:"new user name; omit to print the current one"`
	} `positional-args:"true"`
	opts *Options
}

func (c *UserCmd) Execute(_ []string) error {
	rt, err := c.opts.runtime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if c.Args.Name != "" {
		if err := rt.Client.SetUserName(c.Args.Name); err != nil {
			return err
		}
	}
	fmt.Fprintln(c.opts.out, rt.Client.UserName())
	return nil
}

type ConfigCmd struct {
	opts *Options
}

func (c *ConfigCmd) Execute(_ []string) error {
	rt, err := c.opts.runtime()
	if err != nil {
		return err
	}
	defer rt.Close()
	data, err := yaml.Marshal(rt.Client.Config())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.opts.out, "# mode: %s\n# user: %s\n%s", rt.Mode, rt.Client.UserName(), data)
	return nil
}

// withCollection resolves the runtime, loads the collection and hands it to
// fn.
func (o *Options) withCollection(fn func(context.Context, *carsync.Collection) error) error {
	rt, err := o.runtime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	coll := rt.Collection()
	if _, err := coll.Reload(ctx); err != nil {
		return err
	}
	return fn(ctx, coll)
}

func printEntries(out io.Writer, entries []carsync.Entry, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBRAND\tMODEL\tPRICE\tYEAR\tAGE")
	for _, e := range entries {
		id := "-"
		if e.ID != nil {
			id = fmt.Sprint(e.ID)
		}
		year, age := "", ""
		if e.Year != nil {
			year = strconv.Itoa(*e.Year)
		}
		if a, ok := e.Age(now); ok {
			age = strconv.Itoa(a)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t$%.2f\t%s\t%s\n", id, e.Brand, e.Model, e.Price, year, age)
	}
	tw.Flush()
}

func printResult(out io.Writer, verb string, res carsync.Result) {
	if res.Outcome == carsync.OutcomeReloaded {
		fmt.Fprintf(out, "%s outcome=%s\n", verb, res.Outcome)
		return
	}
	fmt.Fprintf(out, "%s id=%v outcome=%s\n", verb, res.Entry.ID, res.Outcome)
}
