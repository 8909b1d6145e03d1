package directory

import (
	"cogito/fchat/channels"
	"cogito/fchat/users"
	"cogito/logger"
	"sort"
)

func New(character string, owners []string) *Directory {
	d := &Directory{
		Character: character,
		users:     map[string]*users.User{},
		channels:  map[string]*channels.Channel{},
		globalOps: map[string]string{},
		owners:    map[string]string{},
	}
	for _, owner := range owners {
		d.owners[users.Key(owner)] = owner
	}
	return d
}

// Own returns the bot's own user record
func (d *Directory) Own() *users.User {
	return d.GetOrCreateUser(d.Character)
}

func (d *Directory) IsSelf(name string) bool {
	return users.Key(name) == users.Key(d.Character)
}

// GetOrCreateUser returns the single user for name, creating it on first reference
func (d *Directory) GetOrCreateUser(name string) *users.User {
	key := users.Key(name)
	if u, ok := d.users[key]; ok {
		return u
	}
	u := users.New(name)
	d.users[key] = u
	return u
}

func (d *Directory) LookupUser(name string) (*users.User, bool) {
	u, ok := d.users[users.Key(name)]
	return u, ok
}

// RemoveUser detaches the user from the registry. Channel membership and
// queued incidents referencing the name are left to their owners.
func (d *Directory) RemoveUser(name string) {
	delete(d.users, users.Key(name))
}

func (d *Directory) UserCount() int {
	return len(d.users)
}

// GetOrCreateChannel resolves a channel by key. When it has to create one,
// overrideName marks it as a private room with that display name.
func (d *Directory) GetOrCreateChannel(keyOrTitle, overrideName string) *channels.Channel {
	if c, ok := d.channels[keyOrTitle]; ok {
		if overrideName != "" && c.Name != overrideName {
			c.Name = overrideName
		}
		return c
	}
	c := channels.New(keyOrTitle, overrideName)
	d.channels[keyOrTitle] = c
	logger.Debug("Registered channel", "key", c.Key, "name", c.Name)
	return c
}

func (d *Directory) LookupChannel(key string) (*channels.Channel, bool) {
	c, ok := d.channels[key]
	return c, ok
}

// ChannelByName finds a channel by display name, preferring public channels
func (d *Directory) ChannelByName(name string) (*channels.Channel, bool) {
	if c, ok := d.channels[name]; ok {
		return c, true
	}
	var found *channels.Channel
	for _, c := range d.channels {
		if c.Name == name && (found == nil || c.Key < found.Key) {
			found = c
		}
	}
	return found, found != nil
}

// Channels returns every known channel ordered by key
func (d *Directory) Channels() []*channels.Channel {
	all := make([]*channels.Channel, 0, len(d.channels))
	for _, c := range d.channels {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Key < all[j].Key })
	return all
}

func (d *Directory) ChannelCount() int {
	return len(d.channels)
}

// MarkJoined adds c to the joined list and returns its index
func (d *Directory) MarkJoined(c *channels.Channel) int {
	if c.IsJoined() {
		return c.JoinIndex
	}
	d.joined = append(d.joined, c.Key)
	c.JoinIndex = len(d.joined) - 1
	return c.JoinIndex
}

// MarkLeft removes c from the joined list and renumbers the channels after it
func (d *Directory) MarkLeft(c *channels.Channel) {
	for i, key := range d.joined {
		if key != c.Key {
			continue
		}
		d.joined = append(d.joined[:i], d.joined[i+1:]...)
		break
	}
	c.JoinIndex = -1
	c.ClearUsers()
	for i, key := range d.joined {
		if joined, ok := d.channels[key]; ok {
			joined.JoinIndex = i
		}
	}
}

// Joined returns the joined channels in join order
func (d *Directory) Joined() []*channels.Channel {
	joined := make([]*channels.Channel, 0, len(d.joined))
	for _, key := range d.joined {
		if c, ok := d.channels[key]; ok {
			joined = append(joined, c)
		}
	}
	return joined
}

func (d *Directory) JoinedAt(index int) (*channels.Channel, bool) {
	if index < 0 || index >= len(d.joined) {
		return nil, false
	}
	return d.LookupChannel(d.joined[index])
}

// ModeratedBy lists the joined channels whose op list holds name, ignoring case
func (d *Directory) ModeratedBy(name string) []*channels.Channel {
	var moderated []*channels.Channel
	for _, c := range d.Joined() {
		if _, ok := c.ModEntry(name); ok {
			moderated = append(moderated, c)
		}
	}
	return moderated
}

// RefreshModerator recomputes the cached moderator flag for name
func (d *Directory) RefreshModerator(name string) {
	u, ok := d.LookupUser(name)
	if !ok {
		return
	}
	u.IsModerator = false
	for _, c := range d.channels {
		if _, ok := c.ModEntry(name); ok {
			u.IsModerator = true
			return
		}
	}
}

// LeaveAll removes name from every joined channel and returns the channels it was in
func (d *Directory) LeaveAll(name string) []*channels.Channel {
	var left []*channels.Channel
	for _, c := range d.Joined() {
		if c.RemoveUser(name) {
			left = append(left, c)
		}
	}
	return left
}

func (d *Directory) SetGlobalOps(names []string) {
	d.globalOps = make(map[string]string, len(names))
	for _, name := range names {
		d.globalOps[users.Key(name)] = name
	}
}

func (d *Directory) AddGlobalOp(name string) {
	d.globalOps[users.Key(name)] = name
}

func (d *Directory) RemoveGlobalOp(name string) {
	delete(d.globalOps, users.Key(name))
}

func (d *Directory) IsGlobalOp(name string) bool {
	_, ok := d.globalOps[users.Key(name)]
	return ok
}

func (d *Directory) IsOwner(name string) bool {
	_, ok := d.owners[users.Key(name)]
	return ok
}

// Snapshot copies the persisted state. Only users who opted out of
// moderation pings are kept; everyone else is rebuilt from the server.
func (d *Directory) Snapshot() Snapshot {
	var snapshot Snapshot
	for _, u := range d.users {
		if !u.Ignore {
			continue
		}
		snapshot.Users = append(snapshot.Users, u.Record())
	}
	for _, c := range d.channels {
		snapshot.Channels = append(snapshot.Channels, c.Record())
	}
	sort.Slice(snapshot.Users, func(i, j int) bool { return snapshot.Users[i].Name < snapshot.Users[j].Name })
	sort.Slice(snapshot.Channels, func(i, j int) bool { return snapshot.Channels[i].Key < snapshot.Channels[j].Key })
	return snapshot
}

// Restore merges a snapshot into the directory without replacing live entries
func (d *Directory) Restore(snapshot Snapshot) {
	for _, r := range snapshot.Users {
		if _, ok := d.users[users.Key(r.Name)]; ok {
			continue
		}
		d.users[users.Key(r.Name)] = users.FromRecord(r)
	}
	for _, r := range snapshot.Channels {
		if _, ok := d.channels[r.Key]; ok {
			continue
		}
		d.channels[r.Key] = channels.FromRecord(r)
	}
	logger.Info("Restored directory", "users", len(snapshot.Users), "channels", len(snapshot.Channels))
}
