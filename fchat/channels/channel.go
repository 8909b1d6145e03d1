package channels

import (
	"cogito/fchat/users"
	"cogito/helpers"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	modeNames     = []string{"chat", "ads", "both"}
	responseNames = []string{"Kick", "Warn", "Alert", "Ignore"}
)

type (
	// Record is the persisted form of a channel
	Record struct {
		Key              string   `json:"key"`
		Name             string   `json:"name"`
		Mode             string   `json:"mode"`
		Description      string   `json:"description,omitempty"`
		MinAge           int      `json:"minAge"`
		UnderageResponse string   `json:"underageResponse"`
		Whitelist        []string `json:"whitelist,omitempty"`
	}
)

// New creates a channel. Public channels use their title as key.
func New(key, name string) *Channel {
	if name == "" {
		name = key
	}
	return &Channel{
		Key:              key,
		Name:             name,
		Mode:             ModeBoth,
		UnderageResponse: Ignore,
		JoinIndex:        -1,
		users:            map[string]string{},
		mods:             map[string]string{},
		whitelist:        map[string]string{},
	}
}

func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(name, s) {
			return Mode(i), nil
		}
	}
	return ModeBoth, fmt.Errorf("unknown channel mode %q", s)
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

func ParseResponse(s string) (UnderageResponse, error) {
	for i, name := range responseNames {
		if strings.EqualFold(name, s) {
			return UnderageResponse(i), nil
		}
	}
	return Ignore, fmt.Errorf("unknown underage response %q, expected Kick, Warn, Alert or Ignore", s)
}

func (r UnderageResponse) String() string {
	if r < 0 || int(r) >= len(responseNames) {
		return "unknown"
	}
	return responseNames[r]
}

func (c *Channel) String() string {
	if !c.IsPrivate() {
		return c.Name
	}
	return c.Name + " (" + c.Key + ")"
}

// Describe renders the channel's state for status replies
func (c *Channel) Describe() string {
	return fmt.Sprintf("[b]Name[/b]: %s [b]Users[/b]: %d [b]Mods[/b]: %d [b]Mode[/b]: %s [b]Age control[/b]: %s [b]Minimum age[/b]: %d [b]Response[/b]: %s [b]Pending incidents[/b]: %d",
		c.String(),
		len(c.users),
		len(c.mods),
		c.Mode,
		helpers.StringToStatusIndicator(strconv.FormatBool(c.minAge > 0)),
		c.minAge,
		c.UnderageResponse,
		c.Incidents.Len())
}

func (c *Channel) IsPrivate() bool {
	return c.Key != c.Name
}

func (c *Channel) IsJoined() bool {
	return c.JoinIndex >= 0
}

func (c *Channel) MinAge() int {
	return c.minAge
}

// SetMinAge updates the age policy. A non-positive age disables age control,
// which always forces the Ignore response.
func (c *Channel) SetMinAge(age int, response UnderageResponse) {
	if age <= 0 {
		c.minAge = 0
		c.UnderageResponse = Ignore
		return
	}
	c.minAge = age
	c.UnderageResponse = response
}

// AddUser records name as present. It reports whether membership changed.
func (c *Channel) AddUser(name string) bool {
	key := users.Key(name)
	if _, ok := c.users[key]; ok {
		return false
	}
	c.users[key] = name
	return true
}

func (c *Channel) RemoveUser(name string) bool {
	key := users.Key(name)
	if _, ok := c.users[key]; !ok {
		return false
	}
	delete(c.users, key)
	return true
}

func (c *Channel) HasUser(name string) bool {
	_, ok := c.users[users.Key(name)]
	return ok
}

// Users returns the present names in sorted order
func (c *Channel) Users() []string {
	return sortedValues(c.users)
}

func (c *Channel) ClearUsers() {
	c.users = map[string]string{}
}

func (c *Channel) AddMod(name string) bool {
	key := users.Key(name)
	if existing, ok := c.mods[key]; ok && existing == name {
		return false
	}
	c.mods[key] = name
	return true
}

func (c *Channel) RemoveMod(name string) bool {
	key := users.Key(name)
	if _, ok := c.mods[key]; !ok {
		return false
	}
	delete(c.mods, key)
	return true
}

// SetMods replaces the moderator list with the server's op list
func (c *Channel) SetMods(names []string) {
	c.mods = make(map[string]string, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		c.mods[users.Key(name)] = name
	}
}

// IsMod reports whether name is on the op list exactly as the server sent it
func (c *Channel) IsMod(name string) bool {
	entry, ok := c.mods[users.Key(name)]
	return ok && entry == name
}

// ModEntry returns the op list entry matching name regardless of case
func (c *Channel) ModEntry(name string) (string, bool) {
	entry, ok := c.mods[users.Key(name)]
	return entry, ok
}

func (c *Channel) Mods() []string {
	return sortedValues(c.mods)
}

func (c *Channel) AddWhitelist(name string) bool {
	key := users.Key(name)
	if _, ok := c.whitelist[key]; ok {
		return false
	}
	c.whitelist[key] = name
	return true
}

func (c *Channel) IsWhitelisted(name string) bool {
	_, ok := c.whitelist[users.Key(name)]
	return ok
}

func (c *Channel) Whitelist() []string {
	return sortedValues(c.whitelist)
}

// Record returns the persisted form of the channel
func (c *Channel) Record() Record {
	return Record{
		Key:              c.Key,
		Name:             c.Name,
		Mode:             c.Mode.String(),
		Description:      c.Description,
		MinAge:           c.minAge,
		UnderageResponse: c.UnderageResponse.String(),
		Whitelist:        c.Whitelist(),
	}
}

// FromRecord rebuilds a channel from its persisted form
func FromRecord(r Record) *Channel {
	c := New(r.Key, r.Name)
	if mode, err := ParseMode(r.Mode); err == nil {
		c.Mode = mode
	}
	c.Description = r.Description
	response, err := ParseResponse(r.UnderageResponse)
	if err != nil {
		response = Ignore
	}
	c.SetMinAge(r.MinAge, response)
	for _, name := range r.Whitelist {
		c.AddWhitelist(name)
	}
	return c
}

func sortedValues(m map[string]string) []string {
	values := make([]string, 0, len(m))
	for _, v := range m {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
