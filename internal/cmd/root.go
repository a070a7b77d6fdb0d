package cmd

import (
	"github.com/alecthomas/kong"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"TSV output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`

	VersionFlag kong.VersionFlag `help:"Print version."`

	Menu    MenuCmd    `cmd:"" default:"1" help:"Interactive menu (default)."`
	Search  SearchCmd  `cmd:"" help:"Search vacancies on hh.ru and save them."`
	Saved   SavedCmd   `cmd:"" help:"Work with saved vacancies."`
	DB      DBCmd      `cmd:"" name:"db" help:"Employer database: setup, seeding and reports."`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration."`
	Proxies ProxiesCmd `cmd:"" help:"Proxy utilities."`
	Version VersionCmd `cmd:"" help:"Print version."`
}

func NewCLI() *CLI {
	return &CLI{}
}
