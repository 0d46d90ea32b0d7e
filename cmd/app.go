// Package cmd implements the pitc command line, which computes the Polish
// PIT figures of a year from broker exports.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/pit/nbp"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

// Commands lists the subcommands, a main package registers them.
var Commands = []subcommands.Command{
	&reportCmd{},
	&rateCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var cacheDir = flag.String("cache-dir", "", "Folder of the exchange rate cache. Defaults to $"+EnvCacheDir+" or the user cache folder.")

// Verbose turns on the logs of downloads and cache updates.
var Verbose = flag.Bool("v", false, "Verbose output. Defaults to $"+EnvVerbose+".")

// LoadEnv reads the .env file of the working directory, if any. Variables
// already set take precedence.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("cannot load .env: %v", err)
	}
}

// SetupLogging discards the logs unless verbose.
func SetupLogging() {
	if !*Verbose {
		*Verbose, _ = strconv.ParseBool(os.Getenv(EnvVerbose))
	}
	if !*Verbose {
		log.SetOutput(io.Discard)
	}
}

// Builtin reports whether name is a subcommand of pitc itself, as opposed to
// an extension.
func Builtin(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	for _, c := range Commands {
		if c.Name() == name {
			return true
		}
	}
	return false
}

// CacheDir returns the exchange rate cache folder.
func CacheDir() (string, error) {
	if *cacheDir != "" {
		return *cacheDir, nil
	}
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir, nil
	}
	return nbp.DefaultDir()
}

func openRates() (*nbp.Cache, error) {
	dir, err := CacheDir()
	if err != nil {
		return nil, err
	}
	return nbp.NewCache(dir), nil
}

// printMarkdown renders md for the terminal, or prints it as is.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	log.Printf("cannot render markdown: %v", err)
	fmt.Print(md)
}
