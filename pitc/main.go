// Command pitc computes the Polish PIT figures from broker exports.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/pit/cmd"
	"github.com/google/subcommands"
)

func main() {
	cmd.LoadEnv()
	cmd.Completion().Complete("pitc")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	cmd.SetupLogging()

	if name := flag.Arg(0); name != "" && !cmd.Builtin(name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}
