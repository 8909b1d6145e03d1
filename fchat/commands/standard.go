package commands

import (
	"cogito/fchat/commands/help"
	"cogito/fchat/state"
	"fmt"
	"strings"
)

func Help(s *state.State) error {
	prefix := s.Config.Fchat.TriggerPrefix
	available := help.Available(help.All(), s.Level)

	if topic := strings.TrimPrefix(s.Arg(0), prefix); topic != "" {
		item, ok := help.Find(available, topic)
		if !ok {
			s.SendError(fmt.Sprintf("There is no trigger %s%s you can use.", prefix, topic))
			return nil
		}
		s.Send(help.Format(prefix, item))
		return nil
	}

	s.Send(fmt.Sprintf("Type %shelp <trigger> for more information on a trigger. Add %s <index> to act on another channel.",
		prefix, s.Config.Fchat.RedirectOperator))
	s.Send("Triggers: " + help.FormatList(prefix, available))
	return nil
}

// List replies with the joined channels and their redirect index
func List(s *state.State) error {
	joined := s.Directory.Joined()
	if len(joined) == 0 {
		s.Send("I am not in any channels right now.")
		return nil
	}

	var reply strings.Builder
	reply.WriteString("Currently joined channels, ordered by their Redirect Key, are:")
	for i, c := range joined {
		fmt.Fprintf(&reply, "\n\t%d: '%s' [%s]", i, c.Name, c.Key)
	}
	s.SendPrivate(s.User.Name, reply.String())
	return nil
}

// Ignore toggles the sender's opt-out from automated moderation messages
func Ignore(s *state.State) error {
	switch strings.ToLower(s.Arg(0)) {
	case "on":
		s.User.SetIgnore(true)
		s.SendSuccess("You will no longer receive automated moderation messages.")
	case "off":
		s.User.SetIgnore(false)
		s.SendSuccess("You will receive automated moderation messages again.")
	case "":
		current := "receiving"
		if s.User.Ignore {
			current = "not receiving"
		}
		s.SendInfo(fmt.Sprintf("You are currently %s automated moderation messages. Use %signore on|off to change that.", current, s.Config.Fchat.TriggerPrefix))
		return nil
	default:
		return fmt.Errorf("expected on or off, got '%s'", s.Arg(0))
	}
	persist(s)
	return nil
}
