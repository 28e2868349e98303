package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/catalogqa/catalog-contract-tests/config"
	"github.com/catalogqa/catalog-contract-tests/framework"

	"github.com/alessio/shellescape"
)

const commandName = "catalog-contract-tests"

type commandParams struct {
	serviceURL string
	configFile string
	envFile    string
	email      string
	password   string
	loginPath  string
	filters    framework.RegexFilters
	debug      bool
	debugAll   bool
	setFlags   map[string]bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet(commandName, flag.ContinueOnError)
	fs.StringVar(&c.serviceURL, "url", "", "base URL of the catalog service (or CATALOG_URL)")
	fs.StringVar(&c.configFile, "config", "", "optional YAML configuration file")
	fs.StringVar(&c.envFile, "env-file", ".env", "optional file of environment variables")
	fs.StringVar(&c.email, "email", "", "login email")
	fs.StringVar(&c.password, "password", "", "login password")
	fs.StringVar(&c.loginPath, "login-path", "", "path of the login endpoint")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	c.setFlags = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { c.setFlags[f.Name] = true })
	return true
}

// applyTo overrides configuration values with the flags that were given explicitly.
func (c *commandParams) applyTo(cfg *config.Config) {
	if c.setFlags["url"] {
		cfg.BaseURL = c.serviceURL
	}
	if c.setFlags["email"] {
		cfg.Email = c.email
	}
	if c.setFlags["password"] {
		cfg.Password = c.password
	}
	if c.setFlags["login-path"] {
		cfg.LoginPath = c.loginPath
	}
}

// rerunCommand returns a command line that runs only the failed tests again.
func (c *commandParams) rerunCommand(cfg config.Config, results framework.Results) string {
	var cmd commandBuilder
	cmd.add(commandName, "-url", cfg.BaseURL)
	if c.configFile != "" {
		cmd.add("-config", c.configFile)
	}
	for _, f := range results.Failures {
		cmd.add("-run", "^"+regexp.QuoteMeta(f.TestID.String())+"$")
	}
	if c.debugAll {
		cmd.add("-debug-all")
	} else {
		cmd.add("-debug")
	}
	return cmd.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

func usageError(message string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", commandName, message)
}
