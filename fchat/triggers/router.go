// Package triggers matches chat messages against registered triggers and
// applies access control before running them.
package triggers

import (
	"cogito/fchat/access"
	"cogito/fchat/channels"
	"cogito/fchat/state"
	"cogito/fchat/users"
	"cogito/logger"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// New builds a router. base carries the shared dependencies every handler
// receives; the per-message fields are filled in by Route.
func New(base state.State, registrations []Registration, passive ...Passive) *Router {
	r := &Router{
		base:          base,
		prefix:        base.Config.Fchat.TriggerPrefix,
		redirect:      base.Config.Fchat.RedirectOperator,
		registrations: make(map[string]Registration, len(registrations)),
		passive:       passive,
	}
	for _, reg := range registrations {
		if _, exists := r.registrations[reg.Trigger]; exists {
			logger.Warn("Duplicate trigger registration", "trigger", reg.Trigger)
		}
		r.registrations[reg.Trigger] = reg
	}
	return r
}

// Registrations lists the registered triggers in order
func (r *Router) Registrations() []Registration {
	regs := make([]Registration, 0, len(r.registrations))
	for _, reg := range r.registrations {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Trigger < regs[j].Trigger })
	return regs
}

// Route handles one chat message from u, sent in origin or privately when
// origin is nil. It returns true when the first word matched a trigger,
// whether or not the sender was allowed to run it.
func (r *Router) Route(u *users.User, origin *channels.Channel, body string) bool {
	s := r.base
	s.User = u
	s.Origin = origin
	s.Channel = origin
	s.Body = body

	fields := strings.Fields(body)
	reg, ok := r.match(fields)
	if !ok {
		r.observe(&s)
		return false
	}
	s.Trigger = reg.Trigger

	args, ok := r.applyRedirect(&s, fields[1:])
	if !ok {
		return true
	}
	s.Arguments = args
	s.Level = r.level(&s)

	if !r.authorize(&s, reg) {
		return true
	}
	if s.Level >= access.ChannelOps {
		r.audit(&s)
	}
	r.invoke(&s, reg)
	return true
}

func (r *Router) match(fields []string) (Registration, bool) {
	if len(fields) == 0 || !strings.HasPrefix(fields[0], r.prefix) {
		return Registration{}, false
	}
	reg, ok := r.registrations[fields[0]]
	return reg, ok
}

// applyRedirect retargets the state when the arguments end in "=> N" and
// strips the redirect from them. The operator anywhere else is an ordinary
// word. It returns false after replying to a redirect that cannot be
// honoured.
func (r *Router) applyRedirect(s *state.State, args []string) ([]string, bool) {
	n := len(args)
	if n > 0 && args[n-1] == r.redirect {
		s.SendError(fmt.Sprintf("%s needs a channel index. See %sls.", r.redirect, r.prefix))
		return nil, false
	}
	if n < 2 || args[n-2] != r.redirect {
		return args, true
	}

	index, err := strconv.Atoi(args[n-1])
	if err != nil {
		s.SendError(fmt.Sprintf("'%s' is not a channel index. See %sls.", args[n-1], r.prefix))
		return nil, false
	}
	target, ok := s.Directory.JoinedAt(index)
	if !ok {
		s.SendError(fmt.Sprintf("There is no joined channel with index %d. See %sls.", index, r.prefix))
		return nil, false
	}
	s.Channel = target
	return args[:n-2], true
}

// level is the highest access the sender holds for the target channel
func (r *Router) level(s *state.State) access.Level {
	channelOp := s.Channel != nil && s.Channel.IsMod(s.User.Name)
	return access.Resolve(channelOp, s.Directory.IsGlobalOp(s.User.Name), s.Directory.IsOwner(s.User.Name))
}

func (r *Router) authorize(s *state.State, reg Registration) bool {
	if !reg.Path.Allows(s.IsPrivate()) {
		switch reg.Path {
		case access.PMOnly:
			s.SendError(fmt.Sprintf("%s can only be used in a private message.", reg.Trigger))
		case access.ChannelOnly:
			s.SendError(fmt.Sprintf("%s can only be used in a channel.", reg.Trigger))
		}
		logger.Debug("Trigger refused on path", "trigger", reg.Trigger, "user", s.User.Name, "path", reg.Path)
		return false
	}

	if access.Authorized(s.Level, s.IsPrivate(), reg.Level, reg.Path) {
		return true
	}

	s.Send(fmt.Sprintf("You do not have the necessary access permissions to execute %s %s.", reg.Trigger, s.Where()))
	if reg.Level == access.ChannelOps && s.Channel != nil {
		if entry, ok := s.Channel.ModEntry(s.User.Name); ok && entry != s.User.Name {
			s.Send(fmt.Sprintf("The op list of %s has you as '%s', which does not match the case of your name '%s'. Ask the channel owner to re-add you with the exact spelling.",
				s.Channel.Name, entry, s.User.Name))
		}
	}
	logger.Info("Trigger denied", "trigger", reg.Trigger, "user", s.User.Name, "level", s.Level, "required", reg.Level)
	return false
}

func (r *Router) audit(s *state.State) {
	args := strings.Join(s.Arguments, " ")
	if s.Channel != nil {
		s.ModLog.Channel(s.Channel.Key, fmt.Sprintf("Executing command %s by order of %s [%s], channel %s. Args: %s",
			s.Trigger, s.User.Name, s.Level, s.Channel.Name, args))
		return
	}
	s.ModLog.Global(fmt.Sprintf("Executing command %s by order of %s [%s], via PM. Args: '%s'",
		s.Trigger, s.User.Name, s.Level, args))
}

func (r *Router) invoke(s *state.State, reg Registration) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Trigger panicked", "trigger", reg.Trigger, "user", s.User.Name, "panic", rec)
			s.SendError("Something went wrong running " + reg.Trigger + ".")
		}
	}()

	if err := reg.Handler(s); err != nil {
		logger.Error("Trigger failed", "trigger", reg.Trigger, "user", s.User.Name, "error", err)
		s.SendError(err.Error())
	}
}

func (r *Router) observe(s *state.State) {
	for _, passive := range r.passive {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Chat observer panicked", "user", s.User.Name, "panic", rec)
				}
			}()
			passive(s)
		}()
	}
}
