package cli

import (
	"context"
	"fmt"
	"strings"
)

type command struct {
	name    string
	usage   string
	help    string
	minArgs int
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = []command{
	{name: "accounts", help: "list accounts", run: (*App).listAccounts},
	{name: "addressbooks", usage: "[filter] [account-id]", help: "list addressbooks (filters: all, regular, active, active-rw, discovered, extra, template)", run: (*App).listAddressbooks},
	{name: "addaccount", usage: "[key=value ...]", help: "create an account and discover its addressbooks", run: (*App).addAccount},
	{name: "rediscover", usage: "<account-id>", help: "rediscover the addressbooks of an account", minArgs: 1, run: (*App).rediscover},
	{name: "setaccount", usage: "<account-id> key=value ...", help: "change account settings", minArgs: 2, run: (*App).setAccount},
	{name: "delaccount", usage: "<account-id>", help: "delete an account with all its addressbooks", minArgs: 1, run: (*App).deleteAccount},
	{name: "setabook", usage: "<addressbook-id> key=value ...", help: "change addressbook settings", minArgs: 2, run: (*App).setAddressbook},
	{name: "delabook", usage: "<addressbook-id> ...", help: "delete addressbooks and their cached cards", minArgs: 1, run: (*App).deleteAddressbooks},
	{name: "sync", usage: "<addressbook-id> ...", help: "resync addressbooks now", minArgs: 1, run: (*App).sync},
	{name: "clearcache", usage: "<addressbook-id>", help: "drop cached cards; the next sync is a full one", minArgs: 1, run: (*App).clearCache},
	{name: "template", usage: "<account-id> [key=value ...]", help: "show or change the settings new addressbooks get", minArgs: 1, run: (*App).template},
	{name: "login", help: "store login name, password and OAuth token for placeholders", run: (*App).login},
	{name: "logout", help: "forget the stored session secrets", run: (*App).logout},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage() string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-13s %-30s %s\n", c.name, c.usage, c.help)
	}
	b.WriteString("  help, exit")
	return b.String()
}
