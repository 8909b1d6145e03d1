package commands

import (
	"cogito/fchat/channels"
	"cogito/fchat/frame"
	"cogito/fchat/state"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const maxTimeoutMinutes = 90

// MinAge shows or changes the channel's age policy
func MinAge(s *state.State) error {
	if !s.RequireChannel() {
		return nil
	}
	c := s.Channel
	oldAge := c.MinAge()
	newAge := oldAge
	response := c.UnderageResponse
	changed := false

	if raw, ok := s.FlagValue("-r"); ok {
		parsed, err := channels.ParseResponse(raw)
		if err != nil {
			return err
		}
		response = parsed
		changed = true
	}

	ageArg, ok := s.FlagValue("-a")
	if !ok && !strings.HasPrefix(s.Arg(0), "-") {
		ageArg = s.Arg(0)
	}
	if ageArg != "" {
		age, err := strconv.Atoi(ageArg)
		if err != nil {
			return fmt.Errorf("cannot parse '%s' as number. Expected format: %sminage <newMinAge> (-r Kick|Ignore|Warn|Alert)", ageArg, s.Config.Fchat.TriggerPrefix)
		}
		if oldAge == 0 && !s.HasFlag("-r") {
			if fallback, err := channels.ParseResponse(s.Config.Moderation.DefaultResponse); err == nil {
				response = fallback
			}
		}
		newAge = age
		changed = true
	}

	if changed {
		c.SetMinAge(newAge, response)
		s.Log(fmt.Sprintf("Minimum age for '%s' changed from '%d' to '%d' by '%s' (%s). Enforcement mode: %s",
			c, oldAge, c.MinAge(), s.User.Name, s.Level, c.UnderageResponse))
		persist(s)
	}

	control := "disabled"
	if c.MinAge() > 0 {
		control = "enabled"
	}
	s.Send(fmt.Sprintf("Settings for channel '%s': Control system %s. Minimum age: %d. Enforcement mode: %s.",
		c.Name, control, c.MinAge(), c.UnderageResponse))
	return nil
}

// Whitelist lists the exemptions, or exempts a current member from age checks
func Whitelist(s *state.State) error {
	if !s.RequireChannel() {
		return nil
	}
	c := s.Channel
	target := s.Message()

	if target == "" {
		s.Send(fmt.Sprintf("Current whitelist for Channel '%s':\n%s", c.Name, strings.Join(c.Whitelist(), ", ")))
		return nil
	}
	if !c.HasUser(target) {
		s.Send(fmt.Sprintf("'%s' is not currently a user of channel '%s'. For security purposes, and to avoid misspelling issues, only users in the channel can be added to the whitelist.",
			target, c.Name))
		return nil
	}
	if u, ok := s.Directory.LookupUser(target); ok {
		target = u.Name
	}
	if !c.AddWhitelist(target) {
		s.SendInfo(fmt.Sprintf("User '%s' is already on the whitelist for channel '%s'.", target, c.Name))
		return nil
	}

	s.Log(fmt.Sprintf("Adding user '%s' to channel whitelist by order of '%s' (%s)", target, s.User.Name, s.Level))
	s.Send(fmt.Sprintf("User '%s' successfully added to whitelist for channel '%s'.", target, c.Name))
	persist(s)
	return nil
}

// Operator kicks, bans or times out a channel member through the bot
func Operator(s *state.State) error {
	if !s.RequireChannel() {
		return nil
	}
	c := s.Channel

	modes := 0
	for _, flag := range []string{"-k", "-b", "-t"} {
		if s.HasFlag(flag) {
			modes++
		}
	}
	if modes != 1 {
		return errors.New("one mode only: -k <name>, -b <name> or -t <minutes> <name>")
	}

	sass := s.HasFlag("-s")
	var rest []string
	for _, arg := range s.Arguments {
		if arg != "-k" && arg != "-b" && arg != "-t" && arg != "-s" {
			rest = append(rest, arg)
		}
	}

	length := 0
	if s.HasFlag("-t") {
		if len(rest) == 0 {
			return errors.New("not enough arguments supplied. Need the timeout length and the target name")
		}
		minutes, err := strconv.Atoi(rest[0])
		if err != nil || minutes < 1 || minutes > maxTimeoutMinutes {
			return fmt.Errorf("timeout length must be between 1 and %d minutes", maxTimeoutMinutes)
		}
		length = minutes
		rest = rest[1:]
	}

	target := strings.Join(rest, " ")
	if target == "" {
		return errors.New("not enough arguments supplied. Need at least mode and target name")
	}
	if !c.HasUser(target) {
		s.Send(fmt.Sprintf("Target '%s' is not currently in channel '%s'. Unable to comply.", target, c.Name))
		return nil
	}
	if _, ok := c.ModEntry(s.Directory.Character); !ok {
		return fmt.Errorf("I am not an operator in channel '%s'", c.Name)
	}
	if u, ok := s.Directory.LookupUser(target); ok {
		target = u.Name
	}

	var opcode, message string
	switch {
	case s.HasFlag("-k"):
		opcode = "CKU"
		message = fmt.Sprintf("Subject %s. Enforcement mode: Channel Kick.", target)
	case s.HasFlag("-b"):
		opcode = "CBU"
		message = fmt.Sprintf("Subject %s. Enforcement mode: Channel Ban.", target)
	default:
		opcode = "CTU"
		unit := "minutes"
		if length == 1 {
			unit = "minute"
		}
		message = fmt.Sprintf("Subject %s. Enforcement mode: Time out for %d %s.", target, length, unit)
	}

	if err := s.SendFrame(opcode, frame.ChannelModeration{Channel: c.Key, Character: target, Length: length}); err != nil {
		return err
	}
	if sass {
		s.SendChannel(c.Key, message)
	}
	return nil
}

// Remote speaks or acts in a channel from private messages
func Remote(s *state.State) error {
	if !s.RequireChannel() {
		return nil
	}

	modes := 0
	for _, flag := range []string{"-r", "-s", "-a"} {
		if s.HasFlag(flag) {
			modes++
		}
	}
	if modes > 1 {
		return errors.New("one mode only")
	}

	var words []string
	for _, arg := range s.Arguments {
		if arg != "-r" && arg != "-s" && arg != "-a" {
			words = append(words, arg)
		}
	}
	body := strings.Join(words, " ")
	if body == "" {
		return errors.New("nothing to send")
	}

	switch {
	case s.HasFlag("-r"):
		f, err := frame.Decode(body)
		if err != nil {
			return err
		}
		s.Outbox.Enqueue(f)
	case s.HasFlag("-a"):
		s.SendChannel(s.Channel.Key, "/me "+body)
	default:
		s.SendChannel(s.Channel.Key, body)
	}
	return nil
}

// Report sends the sender every pending incident for the channels they moderate
func Report(s *state.State) error {
	report := s.Moderation.Drain(s.User)
	s.SendPrivate(s.User.Name, report.String())
	return nil
}

func Shutdown(s *state.State) error {
	s.SendInfo("Shutting down.")
	s.Control.Shutdown(fmt.Sprintf("requested by %s %s", s.User.Name, s.Where()))
	return nil
}
