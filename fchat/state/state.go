package state

import (
	"cogito/fchat/frame"
	"cogito/logger"
	"cogito/queue"
	"fmt"
	"strings"
)

func (s *State) String() string {
	channel := "PM"
	if s.Channel != nil {
		channel = s.Channel.String()
	}
	return fmt.Sprintf("[b]Channel[/b]: %s, [b]User[/b]: %s, [b]Trigger[/b]: %s, [b]Arguments[/b]: %s",
		channel,
		s.User.Name,
		s.Trigger,
		strings.Join(s.Arguments, " "))
}

// IsPrivate reports whether the message arrived as a private message
func (s *State) IsPrivate() bool {
	return s.Origin == nil
}

func (s *State) IsSelf() bool {
	return s.Directory.IsSelf(s.User.Name)
}

// Where names the place the trigger acts on for replies and audit lines
func (s *State) Where() string {
	if s.Channel == nil {
		return "via PM"
	}
	return "in channel " + s.Channel.Name
}

// Send replies where the message came from: the channel, or the sender's PMs
func (s *State) Send(message string) {
	if s.Origin != nil {
		s.SendChannel(s.Origin.Key, message)
		return
	}
	s.SendPrivate(s.User.Name, message)
}

func (s *State) SendError(response string) {
	s.Send("[b][color=red][ERROR][/color][/b] " + response)
}

func (s *State) SendSuccess(response string) {
	s.Send("[b][color=green][SUCCESS][/color][/b] " + response)
}

func (s *State) SendInfo(response string) {
	s.Send("[b][color=blue][INFO][/color][/b] " + response)
}

func (s *State) SendPrivate(recipient, message string) {
	if err := s.Outbox.EnqueueMessage(queue.Message{Recipient: recipient, Body: message}); err != nil {
		logger.Error("Failed to queue private message", "recipient", recipient, "error", err)
	}
}

func (s *State) SendChannel(channel, message string) {
	if err := s.Outbox.EnqueueMessage(queue.Message{Channel: channel, Body: message}); err != nil {
		logger.Error("Failed to queue channel message", "channel", channel, "error", err)
	}
}

// SendFrame queues a raw command frame
func (s *State) SendFrame(opcode string, payload any) error {
	f, err := frame.New(opcode, payload)
	if err != nil {
		return err
	}
	s.Outbox.Enqueue(f)
	return nil
}

// Log writes to the target channel's mod log, or the global one without a channel
func (s *State) Log(text string) {
	if s.Channel != nil {
		s.ModLog.Channel(s.Channel.Key, text)
		return
	}
	s.ModLog.Global(text)
}

// Arg returns the i-th argument or "" when there are fewer
func (s *State) Arg(i int) string {
	if i < 0 || i >= len(s.Arguments) {
		return ""
	}
	return s.Arguments[i]
}

// HasFlag reports whether flag appears among the arguments
func (s *State) HasFlag(flag string) bool {
	for _, arg := range s.Arguments {
		if arg == flag {
			return true
		}
	}
	return false
}

// FlagValue returns the argument following flag
func (s *State) FlagValue(flag string) (string, bool) {
	for i, arg := range s.Arguments {
		if arg == flag && i+1 < len(s.Arguments) {
			return s.Arguments[i+1], true
		}
	}
	return "", false
}

// Rest joins the arguments from index i onwards
func (s *State) Rest(i int) string {
	if i < 0 || i >= len(s.Arguments) {
		return ""
	}
	return strings.Join(s.Arguments[i:], " ")
}

// Message returns the arguments as one string
func (s *State) Message() string {
	return s.Rest(0)
}

// RequireChannel replies with an error when the trigger has no channel to act on
func (s *State) RequireChannel() bool {
	if s.Channel != nil {
		return true
	}
	s.SendError(fmt.Sprintf("%s needs a channel. Use it in a channel or add %s <index> (see %sls).",
		s.Trigger, s.Config.Fchat.RedirectOperator, s.Config.Fchat.TriggerPrefix))
	return false
}
