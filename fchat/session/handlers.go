package session

import (
	"cogito/fchat/channels"
	"cogito/fchat/frame"
	"cogito/fchat/users"
	"cogito/logger"
	"cogito/telemetry"
	"fmt"
	"time"
)

// errTicketInvalid is the server error number for a rejected login ticket
const errTicketInvalid = 4

var handlers = map[string]handler{
	"ADL": handleGlobalOps,
	"AOP": handleGlobalOpAdded,
	"DOP": handleGlobalOpRemoved,
	"CBU": handleBan,
	"CDS": handleDescription,
	"CHA": handlePublicChannels,
	"CIU": handleInvite,
	"CKU": handleKick,
	"COA": handleOpAdded,
	"COL": handleOpList,
	"CON": handleCount,
	"COR": handleOpRemoved,
	"CSO": handleOwnerChanged,
	"CTU": handleTimeout,
	"ERR": handleError,
	"FLN": handleOffline,
	"HLO": handleHello,
	"ICH": handleInitialChannel,
	"IDN": handleIdentified,
	"JCH": handleJoin,
	"LCH": handleLeave,
	"MSG": handleChannelMessage,
	"NLN": handleOnline,
	"ORS": handlePrivateChannels,
	"PRI": handlePrivateMessage,
	"RMO": handleRoomMode,
	"STA": handleStatus,
	"SYS": handleSystem,
	"UPT": handleUptime,
	"VAR": handleVariable,
}

func handleGlobalOps(s *Session, f frame.Frame) error {
	var p frame.OpList
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.directory.SetGlobalOps(p.Ops)
	s.log.Debug("Global operators received", "count", len(p.Ops))
	return nil
}

func handleGlobalOpAdded(s *Session, f frame.Frame) error {
	var p frame.Character
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.directory.AddGlobalOp(p.Character)
	return nil
}

func handleGlobalOpRemoved(s *Session, f frame.Frame) error {
	var p frame.Character
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.directory.RemoveGlobalOp(p.Character)
	return nil
}

func handleBan(s *Session, f frame.Frame) error {
	var p frame.ChannelModeration
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	c := s.directory.GetOrCreateChannel(p.Channel, "")
	s.modlog.Channel(c.Key, fmt.Sprintf("%s has banned %s from %s", p.Operator, p.Character, c.Name))
	c.RemoveUser(p.Character)
	return nil
}

func handleKick(s *Session, f frame.Frame) error {
	var p frame.ChannelModeration
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	c := s.directory.GetOrCreateChannel(p.Channel, "")
	s.modlog.Channel(c.Key, fmt.Sprintf("%s has kicked %s from '%s'", p.Operator, p.Character, c.Name))
	c.RemoveUser(p.Character)
	return nil
}

func handleTimeout(s *Session, f frame.Frame) error {
	var p frame.ChannelModeration
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	c := s.directory.GetOrCreateChannel(p.Channel, "")
	s.modlog.Channel(c.Key, fmt.Sprintf("%s has been suspended from %s for %d minutes by %s", p.Character, c.Name, p.Length, p.Operator))
	c.RemoveUser(p.Character)
	return nil
}

func handleOwnerChanged(s *Session, f frame.Frame) error {
	var p frame.ChannelModeration
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	c := s.directory.GetOrCreateChannel(p.Channel, "")
	s.modlog.Channel(c.Key, fmt.Sprintf("Ownership of channel '%s' has been transferred to %s", c.Name, p.Character))
	return nil
}

func handleOpAdded(s *Session, f frame.Frame) error {
	var p frame.ChannelModeration
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	c := s.directory.GetOrCreateChannel(p.Channel, "")
	operator := p.Operator
	if operator == "" {
		operator = "The channel owner"
	}
	s.modlog.Channel(c.Key, fmt.Sprintf("%s has promoted %s to operator status in '%s'", operator, p.Character, c.Name))
	c.AddMod(p.Character)
	s.directory.RefreshModerator(p.Character)
	return nil
}

func handleOpRemoved(s *Session, f frame.Frame) error {
	var p frame.ChannelModeration
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	c := s.directory.GetOrCreateChannel(p.Channel, "")
	s.modlog.Channel(c.Key, fmt.Sprintf("%s has been demoted from operator status in '%s'", p.Character, c.Name))
	c.RemoveMod(p.Character)
	s.directory.RefreshModerator(p.Character)
	return nil
}

func handleOpList(s *Session, f frame.Frame) error {
	var p frame.ChannelOps
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	c := s.directory.GetOrCreateChannel(p.Channel, "")
	previous := c.Mods()
	c.SetMods(p.OpList)
	for _, name := range previous {
		s.directory.RefreshModerator(name)
	}
	for _, name := range c.Mods() {
		s.directory.RefreshModerator(name)
	}
	logger.Channel(c.Key).Debug("Operator list received", "count", len(c.Mods()))
	return nil
}

func handleDescription(s *Session, f frame.Frame) error {
	var p frame.ChannelDescription
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.directory.GetOrCreateChannel(p.Channel, "").Description = p.Description
	return nil
}

func handlePublicChannels(s *Session, f frame.Frame) error {
	var p frame.PublicChannels
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	for _, entry := range p.Channels {
		c := s.directory.GetOrCreateChannel(entry.Name, "")
		if mode, err := channels.ParseMode(entry.Mode); err == nil {
			c.Mode = mode
		}
		c.UserCount = entry.Characters
	}
	s.log.Info("Public channels received", "count", len(p.Channels))
	s.outbox.Enqueue(frame.MustNew("ORS", nil))
	return nil
}

func handlePrivateChannels(s *Session, f frame.Frame) error {
	var p frame.PrivateChannels
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	for _, entry := range p.Channels {
		c := s.directory.GetOrCreateChannel(entry.Name, entry.Title)
		c.UserCount = entry.Characters
	}
	s.log.Info("Private channels received", "count", len(p.Channels))

	s.outbox.Enqueue(frame.MustNew("STA", frame.Status{Status: "online", StatusMessage: "Running cogito v" + Version}))
	s.autoJoin()
	return nil
}

// autoJoin requests every configured channel, by key or display name
func (s *Session) autoJoin() {
	for _, name := range s.config.Fchat.AutoJoin {
		c, ok := s.directory.LookupChannel(name)
		if !ok {
			c, ok = s.directory.ChannelByName(name)
		}
		if !ok {
			s.log.Warn("Auto join channel not found", "channel", name)
			continue
		}
		if c.IsJoined() {
			continue
		}
		s.outbox.Enqueue(frame.MustNew("JCH", frame.ChannelRequest{Channel: c.Key}))
	}
}

func handleInvite(s *Session, f frame.Frame) error {
	var p frame.Invite
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("Joining channel '%s' by invitation of user '%s'", p.Title, p.Sender))
	c := s.directory.GetOrCreateChannel(p.Name, p.Title)
	s.outbox.Enqueue(frame.MustNew("JCH", frame.ChannelRequest{Channel: c.Key}))
	return nil
}

func handleCount(s *Session, f frame.Frame) error {
	var p frame.Count
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.log.Info("Characters online", "count", p.Count)
	return nil
}

func handleError(s *Session, f frame.Frame) error {
	var p frame.ServerError
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.log.Warn("Server error", "number", p.Number, "message", p.Message)
	if p.Number == errTicketInvalid {
		s.api.Invalidate()
	}
	return nil
}

func handleOffline(s *Session, f frame.Frame) error {
	var p frame.Character
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.directory.LeaveAll(p.Character)

	u, ok := s.directory.LookupUser(p.Character)
	if !ok {
		return nil
	}
	if u.IsModerator {
		s.modlog.Global(fmt.Sprintf("%s has disconnected from the server", u.Name))
	}
	u.Status = users.Offline
	if !u.Ignore {
		s.directory.RemoveUser(u.Name)
	}
	return nil
}

func handleHello(s *Session, f frame.Frame) error {
	var p frame.Hello
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.directory.Own().Status = users.Online
	s.log.Info("Connected", "server", p.Message)
	s.outbox.Enqueue(frame.MustNew("CHA", nil))
	return nil
}

func handleInitialChannel(s *Session, f frame.Frame) error {
	var p frame.InitialChannel
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	c := s.directory.GetOrCreateChannel(p.Channel, "")
	if mode, err := channels.ParseMode(p.Mode); err == nil {
		c.Mode = mode
	}
	for _, member := range p.Users {
		u := s.directory.GetOrCreateUser(member.Identity)
		if u.Status == users.Offline {
			u.Status = users.Online
		}
		c.AddUser(u.Name)
		s.directory.RefreshModerator(u.Name)
	}
	c.UserCount = len(c.Users())
	logger.Channel(c.Key).Debug("Initial members received", "count", c.UserCount)
	return nil
}

func handleIdentified(s *Session, f frame.Frame) error {
	var p frame.Character
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.log.Info("Identification accepted", "character", p.Character)
	return nil
}

func handleJoin(s *Session, f frame.Frame) error {
	var p frame.Joined
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	title := ""
	if p.Title != "" && p.Title != p.Channel {
		title = p.Title
	}
	c := s.directory.GetOrCreateChannel(p.Channel, title)
	u := s.directory.GetOrCreateUser(p.Character.Identity)
	if u.Status == users.Offline {
		u.Status = users.Online
	}
	c.AddUser(u.Name)

	if s.directory.IsSelf(u.Name) {
		index := s.directory.MarkJoined(c)
		telemetry.SetJoinedChannels(len(s.directory.Joined()))
		logger.Channel(c.Key).Info("Joined channel", "name", c.Name, "index", index)
		return nil
	}

	s.modlog.Chat(c.Key, fmt.Sprintf("User '%s' joined Channel '%s'", u.Name, c.Name))
	if c.MinAge() > 0 {
		s.moderation.Check(c, u)
	}
	if _, ok := c.ModEntry(u.Name); ok {
		s.directory.RefreshModerator(u.Name)
		s.moderation.Reconcile(u)
	}
	return nil
}

func handleLeave(s *Session, f frame.Frame) error {
	var p frame.Left
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	c, ok := s.directory.LookupChannel(p.Channel)
	if !ok {
		return nil
	}
	if s.directory.IsSelf(p.Character) {
		s.directory.MarkLeft(c)
		telemetry.SetJoinedChannels(len(s.directory.Joined()))
		logger.Channel(c.Key).Info("Left channel", "name", c.Name)
		return nil
	}
	c.RemoveUser(p.Character)
	s.modlog.Chat(c.Key, fmt.Sprintf("User '%s' left Channel '%s'", p.Character, c.Name))
	return nil
}

func handleChannelMessage(s *Session, f frame.Frame) error {
	var p frame.ChannelMessage
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	if s.directory.IsSelf(p.Character) {
		return nil
	}
	c := s.directory.GetOrCreateChannel(p.Channel, "")
	u := s.directory.GetOrCreateUser(p.Character)

	line := u.Name + ": " + p.Message
	s.modlog.Chat(c.Key, line)
	if c.IsMod(u.Name) {
		s.modlog.Channel(c.Key, line)
	}
	s.router.Route(u, c, p.Message)
	return nil
}

func handlePrivateMessage(s *Session, f frame.Frame) error {
	var p frame.PrivateMessage
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	if s.directory.IsSelf(p.Character) {
		return nil
	}
	u := s.directory.GetOrCreateUser(p.Character)
	s.modlog.Private(u.Name, u.Name+": "+p.Message)
	s.router.Route(u, nil, p.Message)
	return nil
}

func handleOnline(s *Session, f frame.Frame) error {
	var p frame.Online
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	u := s.directory.GetOrCreateUser(p.Identity)
	u.Gender = p.Gender
	status, err := users.ParseStatus(p.Status)
	if err != nil {
		status = users.Online
	}
	u.Status = status
	s.directory.RefreshModerator(u.Name)
	if u.IsModerator && status.Returning() {
		s.moderation.Reconcile(u)
	}
	return nil
}

func handleRoomMode(s *Session, f frame.Frame) error {
	var p frame.RoomMode
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	mode, err := channels.ParseMode(p.Mode)
	if err != nil {
		return err
	}
	s.directory.GetOrCreateChannel(p.Channel, "").Mode = mode
	return nil
}

func handleStatus(s *Session, f frame.Frame) error {
	var p frame.Status
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	if s.directory.IsSelf(p.Character) {
		return nil
	}
	status, err := users.ParseStatus(p.Status)
	if err != nil {
		return err
	}
	u := s.directory.GetOrCreateUser(p.Character)
	s.directory.RefreshModerator(u.Name)
	previous := u.Status
	u.Status = status
	u.StatusMessage = p.StatusMessage

	if u.IsModerator && !previous.Returning() && status.Returning() {
		s.moderation.Reconcile(u)
	}
	return nil
}

func handleSystem(s *Session, f frame.Frame) error {
	var p frame.System
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.log.Info("System message", "channel", p.Channel, "message", p.Message)
	return nil
}

func handleUptime(s *Session, f frame.Frame) error {
	var p frame.Uptime
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	s.log.Info("Server uptime",
		"since", time.Unix(p.StartTime, 0).UTC(),
		"channels", p.Channels,
		"users", p.Users,
		"peak", p.MaxUsers)
	return nil
}

func handleVariable(s *Session, f frame.Frame) error {
	var p frame.Variable
	if err := f.Unmarshal(&p); err != nil {
		return err
	}
	switch p.Variable {
	case "chat_flood", "msg_flood":
		seconds, ok := p.Float()
		if !ok {
			return fmt.Errorf("%s is not a number: %s", p.Variable, p.Value)
		}
		return s.outbox.SetInterval(time.Duration(seconds * float64(time.Second)))
	case "chat_max":
		if n, ok := p.Int(); ok {
			s.outbox.SetLimits(n, 0)
		}
	case "priv_max":
		if n, ok := p.Int(); ok {
			s.outbox.SetLimits(0, n)
		}
	default:
		s.log.Debug("Server variable", "name", p.Variable, "value", string(p.Value))
	}
	return nil
}
