package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/carfamily/carfamily_sdk_go/pkg/carapi"
	"github.com/carfamily/carfamily_sdk_go/pkg/carfamily_sdk"
)

// Options is the root of the CLI. The runtime itself is resolved from
// CARFAMILY_* environment variables; flags only layer on top of them.
type Options struct {
	Mapping string `short:"f" long:"mapping" description:"YAML/JSON config patch (overrides CARFAMILY_MAPPING_FILE)"`
	Verbose bool   `short:"v" long:"verbose" description:"log every request to stderr"`

	List   ListCmd   `command:"list"   description:"List cars"`
	Add    AddCmd    `command:"add"    description:"Add a car"`
	Update UpdateCmd `command:"update" description:"Update a car by remote id"`
	Delete DeleteCmd `command:"delete" description:"Delete a car by remote id"`
	User   UserCmd   `command:"user"   description:"Show or set the user name sent with requests"`
	Show   ConfigCmd `command:"config" description:"Print the active configuration"`

	out io.Writer
}

func newOptions(out io.Writer) *Options {
	o := &Options{out: out}
	o.List.opts = o
	o.Add.opts = o
	o.Update.opts = o
	o.Delete.opts = o
	o.User.opts = o
	o.Show.opts = o
	return o
}

// Run parses args and executes the selected command, writing results to out.
func Run(args []string, out io.Writer) error {
	opts := newOptions(out)
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(out, err)
			return nil
		}
		fmt.Fprintf(os.Stderr, "carfamily: %v\n", err)
		return err
	}
	return nil
}

func (o *Options) runtime() (*carfamily_sdk.Runtime, error) {
	if o.Mapping != "" {
		if err := os.Setenv("CARFAMILY_MAPPING_FILE", o.Mapping); err != nil {
			return nil, err
		}
	}
	var extra []carapi.Option
	if o.Verbose {
		extra = append(extra, carapi.WithLogger(log.New(os.Stderr, "", log.LstdFlags)))
	}
	return carfamily_sdk.NewFromEnv(extra...)
}
