package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ernestognw/Teampp/compiler"
	"github.com/ernestognw/Teampp/compiler/format"
	"github.com/ernestognw/Teampp/vm"
)

func main() {
	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile programs and print their quadruples",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("out,o", "", "write the listing to the file instead of stdout"),
			cli.NewFlag("annotate,a", false, "label jump targets and show addresses by segment and type"),
		},
	}

	runCmd := &cli.Command{
		Name:        "run",
		Description: "compile and execute programs one after another",
		Action:      runAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("max-depth", vm.DefaultMaxDepth, "max number of live function calls"),
		},
	}

	app := &cli.Command{
		Name:        "teampp",
		Description: "teampp compiles and runs team++ programs",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "logger verbosity topics (quads, decl, scopes, vm_step)"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			compileCmd,
			runCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	var b []byte

	for _, a := range c.Args {
		p, err := compiler.CompileFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		if c.Bool("annotate") {
			b, err = format.Format(ctx, b, p)
			if err != nil {
				return errors.Wrap(err, "format %v", a)
			}
		} else {
			b = p.Append(b)
		}
	}

	out := c.String("out")
	if out == "" {
		_, err = os.Stdout.Write(b)

		return err
	}

	lock := flock.New(out + ".lock")

	err = lock.Lock()
	if err != nil {
		return errors.Wrap(err, "lock %v", out)
	}

	defer func() {
		e := lock.Unlock()
		if err == nil && e != nil {
			err = errors.Wrap(e, "unlock %v", out)
		}
	}()

	err = os.WriteFile(out, b, 0o644)
	if err != nil {
		return errors.Wrap(err, "write listing")
	}

	return nil
}

func runAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg := vm.Config{
		MaxDepth: c.Int("max-depth"),
	}

	// one reader for all the programs so buffered input is not lost between them
	in := bufio.NewReader(os.Stdin)
	failed := 0

	for _, a := range c.Args {
		err = runFile(ctx, a, in, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v: %v\n", a, err)
			failed++
		}
	}

	if failed != 0 {
		return errors.New("%d of %d programs failed", failed, len(c.Args))
	}

	return nil
}

func runFile(ctx context.Context, name string, in *bufio.Reader, cfg vm.Config) (err error) {
	p, err := compiler.CompileFile(ctx, name)
	if err != nil {
		return errors.Wrap(err, "compile")
	}

	err = vm.New(p, in, os.Stdout, cfg).Run(ctx)
	if err != nil {
		return errors.Wrap(err, "run")
	}

	return nil
}
