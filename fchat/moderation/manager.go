// Package moderation escalates incidents to channel moderators and runs the
// age verification workflow for channels with a minimum age.
package moderation

import (
	"cogito/fchat/channels"
	"cogito/fchat/directory"
	"cogito/fchat/incidents"
	"cogito/fchat/users"
	"cogito/helpers"
	"cogito/logger"
	"cogito/queue"
	"cogito/telemetry"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const automated = "This is an automated message."

func New(dir *directory.Directory, out Outbox, log ModLog, profiles ProfileRequester, config Config) *Manager {
	if config.TriggerPrefix == "" {
		config.TriggerPrefix = "."
	}
	if config.ProfileRefresh <= 0 {
		config.ProfileRefresh = time.Hour
	}
	return &Manager{
		directory: dir,
		out:       out,
		log:       log,
		profiles:  profiles,
		config:    config,
		pending:   map[string][]string{},
		now:       time.Now,
		pick:      rand.Intn,
	}
}

// Enqueue stores an incident on the channel until a moderator is available
func (m *Manager) Enqueue(c *channels.Channel, incident incidents.Incident) {
	c.Incidents.Push(incident)
	telemetry.IncidentRaised("queued")
	logger.Channel(c.Key).Info("Incident queued", "subject", incident.Subject, "pending", c.Incidents.Len())
}

// TryAlert messages one available moderator of c, chosen at random. With
// nobody available the incident is queued instead. It reports whether a
// moderator was messaged.
func (m *Manager) TryAlert(c *channels.Channel, subject, details string) bool {
	eligible := m.alertable(c)
	if len(eligible) == 0 {
		m.Enqueue(c, incidents.New(subject, details, m.now()))
		return false
	}

	mod := eligible[m.pick(len(eligible))]
	body := fmt.Sprintf("%s\n\t Subject: %s\nChannel: %s\n%s", automated, subject, c.Name, details)
	if err := m.out.EnqueueMessage(queue.Message{Recipient: mod.Name, Body: body}); err != nil {
		logger.Channel(c.Key).Error("Failed to alert moderator", "moderator", mod.Name, "error", err)
		m.Enqueue(c, incidents.New(subject, details, m.now()))
		return false
	}
	telemetry.IncidentRaised("alerted")
	logger.Channel(c.Key).Info("Moderator alerted", "moderator", mod.Name, "subject", subject)
	return true
}

// alertable lists the moderators of c who are present, available and not opted out
func (m *Manager) alertable(c *channels.Channel) []*users.User {
	var eligible []*users.User
	for _, name := range c.Mods() {
		if m.directory.IsSelf(name) || !c.HasUser(name) {
			continue
		}
		u, ok := m.directory.LookupUser(name)
		if !ok || u.Ignore || !u.Status.Alertable() {
			continue
		}
		eligible = append(eligible, u)
	}
	return eligible
}

// Reconcile expires the incidents whose subject has left, across every
// joined channel u moderates, and returns how many remain. A moderator with
// incidents waiting gets a notice telling them how to read them.
func (m *Manager) Reconcile(u *users.User) int {
	var (
		surviving, expired int
		lines              []string
	)
	for _, c := range m.directory.ModeratedBy(u.Name) {
		dropped := c.Incidents.Filter(func(i incidents.Incident) bool {
			return c.HasUser(i.Subject)
		})
		for _, i := range dropped {
			m.log.Channel(c.Key, "Expired incident: "+i.String())
		}

		current := c.Incidents.Len()
		surviving += current
		expired += len(dropped)
		if current > 0 || len(dropped) > 0 {
			lines = append(lines, fmt.Sprintf("\n\t%s: %d current incident(s) (%d expired).", c.Name, current, len(dropped)))
		}
	}

	if surviving == 0 {
		return 0
	}
	if u.Ignore {
		logger.Debug("Not notifying opted out moderator", "moderator", u.Name, "pending", surviving)
		return surviving
	}

	notice := fmt.Sprintf("%s\nWelcome back. In your absence, there have been %d incidents requiring moderator attention, of which %d have expired (user has left channel).",
		automated, surviving+expired, expired)
	notice += strings.Join(lines, "")
	notice += fmt.Sprintf("\nSend %sreport to receive the details.", m.config.TriggerPrefix)
	if err := m.out.EnqueueMessage(queue.Message{Recipient: u.Name, Body: notice}); err != nil {
		logger.Error("Failed to send welcome back notice", "moderator", u.Name, "error", err)
	}
	return surviving
}

// Drain removes and returns every incident queued for the channels u moderates
func (m *Manager) Drain(u *users.User) Report {
	var report Report
	for _, c := range m.directory.ModeratedBy(u.Name) {
		items := c.Incidents.Take()
		if len(items) == 0 {
			continue
		}
		report.Channels = append(report.Channels, ChannelReport{Channel: c.Name, Incidents: items})
	}
	return report
}

// Abandon logs every incident still queued. It is called once at shutdown.
func (m *Manager) Abandon() int {
	count := 0
	for _, c := range m.directory.Channels() {
		for _, i := range c.Incidents.Take() {
			m.log.Channel(c.Key, "Unresolved issue at shutdown: "+i.String())
			count++
		}
	}
	return count
}

func (r Report) Total() int {
	total := 0
	for _, c := range r.Channels {
		total += len(c.Incidents)
	}
	return total
}

func (r Report) String() string {
	if r.Total() == 0 {
		return automated + "\nThere are no incidents pending for the channels you moderate."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nPending incidents: %d", automated, r.Total())
	for _, c := range r.Channels {
		fmt.Fprintf(&b, "\n\t%s: %d incident(s).", c.Channel, len(c.Incidents))
		for _, i := range c.Incidents {
			fmt.Fprintf(&b, "\n\t\t%s (%s ago)", i, helpers.Since(i.Time))
		}
	}
	return b.String()
}
