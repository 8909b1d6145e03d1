package frame

import (
	"encoding/json"
	"strconv"
	"strings"
)

type (
	Identity struct {
		Identity string `json:"identity"`
	}

	// Inbound payloads

	OpList struct {
		Ops []string `json:"ops"`
	}

	ChannelModeration struct {
		Operator  string `json:"operator,omitempty"`
		Channel   string `json:"channel"`
		Character string `json:"character"`
		Length    int    `json:"length,omitempty"`
	}

	ChannelDescription struct {
		Channel     string `json:"channel"`
		Description string `json:"description"`
	}

	PublicChannel struct {
		Name       string `json:"name"`
		Mode       string `json:"mode"`
		Characters int    `json:"characters"`
	}

	PublicChannels struct {
		Channels []PublicChannel `json:"channels"`
	}

	PrivateChannel struct {
		Name       string `json:"name"`
		Characters int    `json:"characters"`
		Title      string `json:"title"`
	}

	PrivateChannels struct {
		Channels []PrivateChannel `json:"channels"`
	}

	Invite struct {
		Sender string `json:"sender"`
		Title  string `json:"title"`
		Name   string `json:"name"`
	}

	ChannelOps struct {
		Channel string   `json:"channel"`
		OpList  []string `json:"oplist"`
	}

	Count struct {
		Count int `json:"count"`
	}

	ServerError struct {
		Number  int    `json:"number"`
		Message string `json:"message"`
	}

	Character struct {
		Character string `json:"character"`
	}

	Hello struct {
		Message string `json:"message"`
	}

	InitialChannel struct {
		Users   []Identity `json:"users"`
		Channel string     `json:"channel"`
		Mode    string     `json:"mode"`
	}

	Joined struct {
		Channel   string   `json:"channel"`
		Character Identity `json:"character"`
		Title     string   `json:"title"`
	}

	Left struct {
		Channel   string `json:"channel"`
		Character string `json:"character"`
	}

	ChannelMessage struct {
		Channel   string `json:"channel"`
		Character string `json:"character,omitempty"`
		Message   string `json:"message"`
	}

	PrivateMessage struct {
		Character string `json:"character,omitempty"`
		Recipient string `json:"recipient,omitempty"`
		Message   string `json:"message"`
	}

	Online struct {
		Identity string `json:"identity"`
		Gender   string `json:"gender"`
		Status   string `json:"status"`
	}

	RoomMode struct {
		Mode    string `json:"mode"`
		Channel string `json:"channel"`
	}

	Status struct {
		Character     string `json:"character,omitempty"`
		Status        string `json:"status"`
		StatusMessage string `json:"statusmsg"`
	}

	System struct {
		Message string `json:"message"`
		Channel string `json:"channel,omitempty"`
	}

	Uptime struct {
		Time        int64  `json:"time"`
		StartTime   int64  `json:"starttime"`
		StartString string `json:"startstring"`
		Accepted    int    `json:"accepted"`
		Channels    int    `json:"channels"`
		Users       int    `json:"users"`
		MaxUsers    int    `json:"maxusers"`
	}

	Variable struct {
		Variable string          `json:"variable"`
		Value    json.RawMessage `json:"value"`
	}

	// Outbound payloads

	Identify struct {
		Method    string `json:"method"`
		Account   string `json:"account"`
		Ticket    string `json:"ticket"`
		Character string `json:"character"`
		Cname     string `json:"cname"`
		Cversion  string `json:"cversion"`
	}

	ChannelRequest struct {
		Channel string `json:"channel"`
	}
)

func (p *ChannelDescription) unescape() { unescape(&p.Description) }
func (p *PrivateChannels) unescape() {
	for i := range p.Channels {
		unescape(&p.Channels[i].Title)
	}
}
func (p *Invite) unescape()         { unescape(&p.Title) }
func (p *Joined) unescape()         { unescape(&p.Title) }
func (p *ChannelMessage) unescape() { unescape(&p.Message) }
func (p *PrivateMessage) unescape() { unescape(&p.Message) }
func (p *Status) unescape()         { unescape(&p.StatusMessage) }
func (p *System) unescape()         { unescape(&p.Message) }

// Float reads a VAR value sent either as a JSON number or a quoted number
func (v Variable) Float() (float64, bool) {
	raw := strings.Trim(string(v.Value), `"`)
	f, err := strconv.ParseFloat(raw, 64)
	return f, err == nil
}

func (v Variable) Int() (int, bool) {
	f, ok := v.Float()
	if !ok {
		return 0, false
	}
	return int(f), true
}
