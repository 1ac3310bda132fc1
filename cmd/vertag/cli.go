package main

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/fatih/color"
	flags "github.com/jessevdk/go-flags"
	"github.com/vertag/vertag"
)

const (
	// ExitOK for exit code
	ExitOK int = 0

	// ExitErr for exit code
	ExitErr int = 1
)

// CLI struct
type CLI struct {
	outStream, errStream io.Writer
	Store                string `long:"store" short:"s" arg:"url" description:"Store URL (file://<dir>, dynamodb://<region>/<table>, s3://<region>/<bucket>/<prefix>, gs://<bucket>/<prefix>)"`
	Key                  string `long:"key" short:"k" description:"Record key, usually <workspace>/<repo>"`
	Increment            string `long:"increment" short:"i" arg:"(x|y|z)" description:"Increment a version component"`
	ResetZ               bool   `long:"reset-z" description:"Reset the z component to 0"`
	SetX                 *int   `long:"set-x" arg:"number" description:"Set the x component"`
	SetY                 *int   `long:"set-y" arg:"number" description:"Set the y component"`
	SetZ                 *int   `long:"set-z" arg:"number" description:"Set the z component"`
	GetVersion           bool   `long:"get-version" description:"Print the current version string"`
	GetTag               bool   `long:"get-tag" description:"Print the rendered image tag"`
	Template             string `long:"template" short:"t" description:"Tag template, must contain {version}"`
	Commit               string `long:"commit" description:"Commit hash for the {commit} placeholder"`
	LogLevel             string `long:"log-level" short:"l" arg:"(debug|info|warn|error)" description:"Level displayed as log"`
	LogFormat            string `long:"log-format" arg:"(text|json)" description:"Format displayed as log"`
	Help                 bool   `long:"help" short:"h" description:"show this help message and exit"`
	Version              bool   `long:"version" short:"v" description:"prints the version number"`
}

func (c *CLI) buildHelp(names []string) []string {
	var help []string
	t := reflect.TypeOf(CLI{})

	for _, name := range names {
		f, ok := t.FieldByName(name)
		if !ok {
			continue
		}

		tag := f.Tag
		if tag == "" {
			continue
		}

		var o, a string
		if a = tag.Get("arg"); a != "" {
			a = fmt.Sprintf("=%s", a)
		}
		if s := tag.Get("short"); s != "" {
			o = fmt.Sprintf("-%s, --%s%s", s, tag.Get("long"), a)
		} else {
			o = fmt.Sprintf("--%s%s", tag.Get("long"), a)
		}

		help = append(help, fmt.Sprintf("  %-40s %s", o, tag.Get("description")))
	}

	return help
}

func (c *CLI) showHelp() {
	opts := strings.Join(c.buildHelp([]string{
		"Store",
		"Key",
		"Increment",
		"ResetZ",
		"SetX",
		"SetY",
		"SetZ",
		"GetVersion",
		"GetTag",
		"Template",
		"Commit",
		"LogLevel",
		"LogFormat",
	}), "\n")

	help := `
Usage: vertag [--version] [--help] <options>

Tracks a version triple per repository, persisted in a file, DynamoDB,
S3 or Google Cloud Storage store, and renders image tags from it.

Options:
%s
`
	fmt.Fprintf(c.outStream, help, opts)
}

func (c *CLI) fail(err error) int {
	fmt.Fprintf(c.errStream, "%s\n", color.RedString("Error: %s", err))
	return ExitErr
}

func (c *CLI) run(a []string) int {
	p := flags.NewParser(c, flags.PrintErrors|flags.PassDoubleDash)
	args, err := p.ParseArgs(a)
	if err != nil || c.Help {
		c.showHelp()
		return ExitErr
	}

	if c.Version {
		fmt.Fprintf(c.errStream, "%s version %s [%v, %v]\n", vertag.Name, vertag.Version, commit, date)
		return ExitOK
	}

	if len(args) > 0 {
		fmt.Fprintf(c.errStream, "Error: unexpected argument: %s\n", args[0])
		c.showHelp()
		return ExitErr
	}

	mutate := c.Increment != "" || c.ResetZ || c.SetX != nil || c.SetY != nil || c.SetZ != nil
	if !mutate && !c.GetVersion && !c.GetTag {
		c.showHelp()
		return ExitErr
	}

	conf := vertag.DefaultConfig()
	conf.OverrideWithEnv()

	if c.Store != "" {
		conf.StoreURL = c.Store
	}
	if c.Key != "" {
		conf.Key = c.Key
	}
	if c.Template != "" {
		conf.Template = c.Template
	}
	if c.Commit != "" {
		conf.Commit = c.Commit
	}
	if c.LogLevel != "" {
		conf.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		conf.LogFormat = c.LogFormat
	}

	ctx := context.Background()

	m, err := vertag.New(ctx, conf)
	if err != nil {
		return c.fail(err)
	}

	// Mutations apply in a fixed order: explicit set, then increment,
	// then reset-z.
	if c.SetX != nil || c.SetY != nil || c.SetZ != nil {
		if _, err := m.Set(ctx, c.SetX, c.SetY, c.SetZ); err != nil {
			return c.fail(err)
		}
	}

	if c.Increment != "" {
		if _, err := m.Increment(ctx, c.Increment); err != nil {
			return c.fail(err)
		}
	}

	if c.ResetZ {
		if _, err := m.ResetZ(ctx); err != nil {
			return c.fail(err)
		}
	}

	if c.GetTag {
		tag, err := m.Tag(ctx)
		if err != nil {
			return c.fail(err)
		}
		fmt.Fprintln(c.outStream, tag)
	}

	if c.GetVersion {
		v, err := m.CurrentVersion(ctx)
		if err != nil {
			return c.fail(err)
		}
		fmt.Fprintln(c.outStream, v)
	}

	return ExitOK
}
