// Package help describes the built-in triggers for the help listing.
package help

import (
	"cogito/fchat/access"
	"sort"
	"strings"
)

type (
	Help struct {
		Name      string
		Trigger   string
		Level     access.Level
		Path      access.Path
		Help      string
		Arguments []Arguments
		Example   string
	}

	Arguments struct {
		Argument string
		Help     string
		Values   string
	}
)

func StandardHelp() []Help {
	return []Help{
		{
			Name:    "help",
			Trigger: "help",
			Level:   access.Everyone,
			Path:    access.All,
			Help:    "Lists the triggers you may use, or explains one of them.",
			Arguments: []Arguments{
				{Argument: "[trigger]", Help: "Show the details of a single trigger.", Values: ""},
			},
		},
		{
			Name:    "list",
			Trigger: "ls",
			Level:   access.Everyone,
			Path:    access.PMOnly,
			Help:    "Lists the channels the bot is in, with the index to use for redirects.",
		},
		{
			Name:    "ignore",
			Trigger: "ignore",
			Level:   access.Everyone,
			Path:    access.All,
			Help:    "Opts you in or out of automated moderation messages.",
			Arguments: []Arguments{
				{Argument: "on|off", Help: "on stops the messages, off resumes them.", Values: "on, off"},
			},
		},
	}
}

func ModeratorHelp() []Help {
	return []Help{
		{
			Name:    "age verification",
			Trigger: "minage",
			Level:   access.ChannelOps,
			Path:    access.All,
			Help:    "Shows or changes the minimum age and the enforcement mode of a channel.",
			Arguments: []Arguments{
				{Argument: "[age]", Help: "New minimum age. 0 disables age control.", Values: "integer"},
				{Argument: "-a <age>", Help: "Same as giving the age directly.", Values: "integer"},
				{Argument: "-r <response>", Help: "What to do with underage joiners.", Values: "Kick, Warn, Alert, Ignore"},
			},
			Example: "minage 18 -r Kick",
		},
		{
			Name:    "whitelist",
			Trigger: "whitelist",
			Level:   access.ChannelOps,
			Path:    access.All,
			Help:    "Shows the whitelist, or exempts a current channel member from age checks.",
			Arguments: []Arguments{
				{Argument: "[name]", Help: "Character to add. It must be in the channel.", Values: ""},
			},
		},
		{
			Name:    "operator",
			Trigger: "op",
			Level:   access.ChannelOps,
			Path:    access.ChannelOnly,
			Help:    "Kicks, bans or times out a character through the bot.",
			Arguments: []Arguments{
				{Argument: "-k <name>", Help: "Kick.", Values: ""},
				{Argument: "-b <name>", Help: "Ban.", Values: ""},
				{Argument: "-t <minutes> <name>", Help: "Timeout for the given minutes.", Values: "1-90"},
			},
		},
		{
			Name:    "remote",
			Trigger: "ri",
			Level:   access.ChannelOps,
			Path:    access.PMOnly,
			Help:    "Acts in a channel from private messages. Needs a redirect.",
			Arguments: []Arguments{
				{Argument: "-s <text>", Help: "Say text in the channel.", Values: ""},
				{Argument: "-a <text>", Help: "Perform an action (/me) in the channel.", Values: ""},
				{Argument: "-r <frame>", Help: "Send a raw command frame.", Values: "OPC {json}"},
			},
			Example: "ri -s hello => 0",
		},
		{
			Name:    "report",
			Trigger: "report",
			Level:   access.ChannelOps,
			Path:    access.All,
			Help:    "Sends you every pending incident for the channels you moderate.",
		},
		{
			Name:    "shutdown",
			Trigger: "shutdown",
			Level:   access.ChannelOps,
			Path:    access.All,
			Help:    "Shuts the bot down cleanly.",
		},
	}
}

func AdminHelp() []Help {
	return []Help{
		{
			Name:    "status",
			Trigger: "status",
			Level:   access.GlobalOps,
			Path:    access.All,
			Help:    "Shows uptime, joined channels and the outbound queue.",
		},
	}
}

func OwnerHelp() []Help {
	return []Help{
		{
			Name:    "save",
			Trigger: "save",
			Level:   access.RootOnly,
			Path:    access.All,
			Help:    "Saves users and channels to storage now.",
		},
	}
}

// All returns every help entry ordered by trigger
func All() []Help {
	all := append(StandardHelp(), ModeratorHelp()...)
	all = append(all, AdminHelp()...)
	all = append(all, OwnerHelp()...)
	sort.Slice(all, func(i, j int) bool { return all[i].Trigger < all[j].Trigger })
	return all
}

// Available filters entries down to what level may run
func Available(items []Help, level access.Level) []Help {
	var filtered []Help
	for _, item := range items {
		if level >= item.Level {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func Find(items []Help, trigger string) (Help, bool) {
	for _, item := range items {
		if strings.EqualFold(item.Trigger, trigger) {
			return item, true
		}
	}
	return Help{}, false
}

// Format renders one entry in full
func Format(prefix string, item Help) string {
	var result strings.Builder
	result.WriteString("[b]" + prefix + item.Trigger + "[/b]: " + item.Help)
	result.WriteString(" [i](" + item.Level.String() + ", " + item.Path.String() + ")[/i]")
	for _, arg := range item.Arguments {
		result.WriteString("\n\t" + arg.Argument + ": " + arg.Help)
		if arg.Values != "" {
			result.WriteString(" [" + arg.Values + "]")
		}
	}
	if item.Example != "" {
		result.WriteString("\nExample: " + prefix + item.Example)
	}
	return result.String()
}

// FormatList renders the trigger names on one line
func FormatList(prefix string, items []Help) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, "[b]"+prefix+item.Trigger+"[/b]")
	}
	return strings.Join(names, ", ")
}
