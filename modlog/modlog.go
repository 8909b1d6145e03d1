// Package modlog writes the bot's daily text logs: the moderator audit trail
// per channel and globally, the chat transcript of every joined channel and
// one transcript per private conversation.
package modlog

import (
	"cogito/logger"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	dayLayout  = "2006_01_02"
	lineLayout = "2006-01-02 15:04:05"
	globalKey  = ""
)

const (
	modKind kind = iota
	chatKind
	privateKind
)

type (
	// kind selects which family of files an entry goes to
	kind int

	fileKey struct {
		kind kind
		name string
	}

	Logs struct {
		dir   string
		now   func() time.Time
		mutex sync.Mutex
		files map[fileKey]*dayFile
	}

	dayFile struct {
		day  string
		file *os.File
	}
)

func New(dir string) *Logs {
	return &Logs{
		dir:   dir,
		now:   time.Now,
		files: map[fileKey]*dayFile{},
	}
}

// Channel appends text to the channel's mod log
func (l *Logs) Channel(channel, text string) {
	if l == nil {
		logger.Warn("Mod log unavailable", "channel", channel, "entry", text)
		return
	}
	logger.Channel(channel).Info("Mod log", "entry", text)
	l.write(fileKey{modKind, channel}, text)
}

// Global appends text to the bot-wide mod log
func (l *Logs) Global(text string) {
	if l == nil {
		logger.Warn("Mod log unavailable", "entry", text)
		return
	}
	logger.Info("Mod log", "entry", text)
	l.write(fileKey{modKind, globalKey}, text)
}

// Chat appends text to the channel's chat transcript
func (l *Logs) Chat(channel, text string) {
	if l == nil {
		return
	}
	l.write(fileKey{chatKind, channel}, text)
}

// Private appends text to the transcript of the conversation with name
func (l *Logs) Private(name, text string) {
	if l == nil {
		return
	}
	l.write(fileKey{privateKind, name}, text)
}

// Close releases every open file. Later writes reopen them.
func (l *Logs) Close() error {
	if l == nil {
		return nil
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()

	var errs []error
	for key, f := range l.files {
		if err := f.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log %q: %w", key.name, err))
		}
		delete(l.files, key)
	}
	return errors.Join(errs...)
}

// Path returns the mod log an entry for channel would be written to today
func (l *Logs) Path(channel string) string {
	return l.path(fileKey{modKind, channel}, l.now().Format(dayLayout))
}

// ChatPath returns today's chat transcript of channel
func (l *Logs) ChatPath(channel string) string {
	return l.path(fileKey{chatKind, channel}, l.now().Format(dayLayout))
}

func (l *Logs) path(key fileKey, day string) string {
	if key.kind == modKind && key.name == globalKey {
		return filepath.Join(l.dir, day+"_ModLog.txt")
	}
	name := sanitize(key.name)
	switch key.kind {
	case chatKind:
		return filepath.Join(l.dir, name, day+"_"+name+".txt")
	case privateKind:
		return filepath.Join(l.dir, name, day+"_"+name+"_PM.txt")
	}
	return filepath.Join(l.dir, name, day+"_"+name+"_Mods.txt")
}

func (l *Logs) write(key fileKey, text string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	f, err := l.open(key, now.Format(dayLayout))
	if err != nil {
		logger.Error("Failed to open log", "name", key.name, "error", err)
		return
	}
	if _, err := fmt.Fprintf(f.file, "%s -- %s\n", now.Format(lineLayout), text); err != nil {
		logger.Error("Failed to write log", "name", key.name, "error", err)
	}
}

// open returns today's file for key, rolling over when the day changed
func (l *Logs) open(key fileKey, day string) (*dayFile, error) {
	if f, ok := l.files[key]; ok {
		if f.day == day {
			return f, nil
		}
		if err := f.file.Close(); err != nil {
			logger.Warn("Failed to close previous log", "name", key.name, "error", err)
		}
		delete(l.files, key)
	}

	path := l.path(key, day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	f := &dayFile{day: day, file: file}
	l.files[key] = f
	return f, nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == ' ':
			return r
		}
		return '_'
	}, name)
}
