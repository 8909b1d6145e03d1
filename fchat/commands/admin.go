package commands

import (
	"cogito/fchat/state"
	"cogito/helpers"
	"fmt"
	"strings"
)

// Status reports uptime, channels and the outbound queue
func Status(s *state.State) error {
	joined := s.Directory.Joined()
	pending := 0
	names := make([]string, 0, len(joined))
	for _, c := range joined {
		pending += c.Incidents.Len()
		names = append(names, c.Name)
	}
	chatMax, privMax := s.Outbox.Limits()

	s.Send(fmt.Sprintf("[b]Uptime[/b]: %s [b]Channels[/b]: %d (%s) [b]Known users[/b]: %d [b]Pending incidents[/b]: %d",
		helpers.Duration(s.Control.Uptime()),
		len(joined),
		strings.Join(names, ", "),
		s.Directory.UserCount(),
		pending))
	s.Send(fmt.Sprintf("[b]Send queue[/b]: %d frame(s) [b]Interval[/b]: %s [b]chat_max[/b]: %d [b]priv_max[/b]: %d",
		s.Outbox.Len(),
		s.Outbox.Interval(),
		chatMax,
		privMax))
	if s.Channel != nil {
		s.Send(s.Channel.Describe())
	}
	return nil
}
