package moderation

import (
	"cogito/fchat/channels"
	"cogito/fchat/frame"
	"cogito/fchat/users"
	"cogito/helpers"
	"cogito/logger"
	"cogito/queue"
	"cogito/telemetry"
	"fmt"
)

var outcomeNames = []string{"no action", "pending", "alerted", "warned", "kicked"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// Check runs the age workflow for u in c. When the cached profile is stale a
// fetch is requested and Pending returned; the check finishes in Resume.
func (m *Manager) Check(c *channels.Channel, u *users.User) Outcome {
	if c.MinAge() == 0 || m.directory.IsSelf(u.Name) || c.IsWhitelisted(u.Name) {
		return NoAction
	}

	if u.ProfileStale(m.config.ProfileRefresh, m.now()) {
		m.await(c, u)
		return Pending
	}
	return m.decide(c, u, u.Age())
}

// Resume applies a finished profile fetch and completes every check that was
// waiting on it.
func (m *Manager) Resume(result ProfileResult) []Decision {
	key := users.Key(result.Name)
	waiting := m.pending[key]
	delete(m.pending, key)

	u, ok := m.directory.LookupUser(result.Name)
	if !ok {
		logger.Debug("Profile arrived for unknown user", "user", result.Name)
		return nil
	}

	age := users.AgeUnknown
	if result.Err != nil {
		logger.Warn("Profile fetch failed", "user", result.Name, "error", result.Err)
	} else {
		u.SetProfile(result.Profile, result.TakenAt)
		age = u.Age()
	}

	var decisions []Decision
	for _, channelKey := range waiting {
		c, ok := m.directory.LookupChannel(channelKey)
		if !ok || !c.HasUser(u.Name) {
			continue
		}
		outcome := NoAction
		if c.MinAge() > 0 && !c.IsWhitelisted(u.Name) {
			outcome = m.decide(c, u, age)
		}
		decisions = append(decisions, Decision{Channel: c.Key, User: u.Name, Outcome: outcome})
	}
	return decisions
}

// PendingFor reports whether a check for name is waiting on a profile
func (m *Manager) PendingFor(name string) bool {
	_, ok := m.pending[users.Key(name)]
	return ok
}

func (m *Manager) await(c *channels.Channel, u *users.User) {
	key := u.Key()
	waiting, inFlight := m.pending[key]
	for _, channelKey := range waiting {
		if channelKey == c.Key {
			return
		}
	}
	m.pending[key] = append(waiting, c.Key)
	if !inFlight {
		m.profiles.RequestProfile(u.Name)
	}
}

func (m *Manager) decide(c *channels.Channel, u *users.User, age int) Outcome {
	log := logger.User(c.Key, u.Name)
	minAge := c.MinAge()

	var outcome Outcome
	switch {
	case age == users.AgeUnknown:
		if c.UnderageResponse == channels.Ignore {
			return NoAction
		}
		details := fmt.Sprintf("%s joined without an age on their profile. Minimum age is %d. If they are old enough, exempt them with: %swhitelist %s",
			u.Name, minAge, m.config.TriggerPrefix, u.Name)
		m.TryAlert(c, u.Name, details)
		outcome = Alerted
	case age == users.AgeUnparsed:
		log.Info("Profile age is not a number", "raw", u.Profile["age"])
		return NoAction
	case age >= minAge:
		return NoAction
	default:
		outcome = m.enforce(c, u, age)
	}

	telemetry.Enforced(outcome.String())
	log.Info("Age check finished", "age", age, "minimum", minAge, "outcome", outcome)
	return outcome
}

// enforce applies the channel's response to a user known to be underage
func (m *Manager) enforce(c *channels.Channel, u *users.User, age int) Outcome {
	minAge := c.MinAge()
	switch c.UnderageResponse {
	case channels.Warn:
		warning := fmt.Sprintf("%s, this channel requires members to be at least %d years old. Your profile lists your age as %d.", helpers.UserLink(u.Name), minAge, age)
		if err := m.out.EnqueueMessage(queue.Message{Channel: c.Key, Body: warning}); err != nil {
			logger.Channel(c.Key).Error("Failed to send age warning", "user", u.Name, "error", err)
		}
		m.log.Channel(c.Key, fmt.Sprintf("Warned %s: age %d is below the minimum of %d", u.Name, age, minAge))
		return Warned
	case channels.Kick:
		if _, ok := c.ModEntry(m.directory.Character); !ok {
			logger.Channel(c.Key).Warn("Cannot kick without operator status, alerting instead", "user", u.Name)
			break
		}
		notice := fmt.Sprintf("%s\nYou have been removed from channel '%s' because it requires members to be at least %d years old and your profile lists your age as %d.",
			automated, c.Name, minAge, age)
		if err := m.out.EnqueueMessage(queue.Message{Recipient: u.Name, Body: notice}); err != nil {
			logger.Channel(c.Key).Error("Failed to send removal notice", "user", u.Name, "error", err)
		}
		m.out.Enqueue(frame.MustNew("CKU", frame.ChannelModeration{Channel: c.Key, Character: u.Name}))
		m.log.Channel(c.Key, fmt.Sprintf("Kicked %s: age %d is below the minimum of %d", u.Name, age, minAge))
		return Kicked
	case channels.Ignore:
		return NoAction
	}

	details := fmt.Sprintf("%s is %d years old according to their profile, below the minimum age of %d.", u.Name, age, minAge)
	m.TryAlert(c, u.Name, details)
	return Alerted
}
