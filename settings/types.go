package settings

import (
	"cogito/logger"
)

type (
	Config struct {
		Fchat      Fchat         `toml:"fchat" validate:"required"`
		Moderation Moderation    `toml:"moderation" validate:"required"`
		Storage    Storage       `toml:"storage" validate:"required"`
		Metrics    Metrics       `toml:"metrics"`
		Logging    logger.Config `toml:"logging" validate:"required"`
	}

	Fchat struct {
		Server           string   `toml:"server" validate:"required"`
		Port             int      `toml:"port" validate:"required,gt=0,lte=65535"`
		Secure           bool     `toml:"secure"`
		Account          string   `toml:"account" env:"FCHAT_ACCOUNT" validate:"required"`
		Password         string   `toml:"password" env:"FCHAT_PASSWORD" validate:"required"`
		Character        string   `toml:"character" env:"FCHAT_CHARACTER" validate:"required"`
		Owners           []string `toml:"owners"`
		AutoJoin         []string `toml:"autoJoin"`
		TriggerPrefix    string   `toml:"triggerPrefix" validate:"required,len=1"`
		RedirectOperator string   `toml:"redirectOperator" validate:"required"`
		TicketUrl        string   `toml:"ticketUrl" validate:"required,url"`
		ProfileUrl       string   `toml:"profileUrl" validate:"required,url"`
		ReconnectSeconds int      `toml:"reconnectSeconds" validate:"gte=0"`
	}

	Moderation struct {
		DefaultResponse       string `toml:"defaultResponse" validate:"required,oneof=Kick Warn Alert Ignore"`
		ProfileRefreshMinutes int    `toml:"profileRefreshMinutes" validate:"gte=0"`
		LogPath               string `toml:"logPath" validate:"required"`
	}

	Storage struct {
		Path          string `toml:"path" validate:"required"`
		SaveSchedule  string `toml:"saveSchedule" validate:"required"`
		MergeSchedule string `toml:"mergeSchedule" validate:"required"`
	}

	Metrics struct {
		Enabled bool   `toml:"enabled"`
		Listen  string `toml:"listen" validate:"required_if=Enabled true"`
	}
)
