package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host string `env:"HOST,default=localhost"`
	Port int    `env:"PORT,default=3000"`

	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=32"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=5s"`

	// RemoveRoomMaxOccupancy is the policy guard on explicit room removal.
	RemoveRoomMaxOccupancy int `env:"REMOVE_ROOM_MAX_OCCUPANCY,default=2"`

	MessagesPerSecond float64 `env:"MESSAGES_PER_SECOND,default=10"`
	MessageBurst      int     `env:"MESSAGE_BURST,default=20"`

	// CensoredWords is a comma-separated list; empty disables moderation.
	CensoredWords   string `env:"CENSORED_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	LogLevel string `env:"LOG_LEVEL,default=INFO"`
}

// CharacterRune validates the replacement setting down to a single rune.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// SplitWords turns the comma-separated censored word list into a clean
// slice, dropping empty entries.
func SplitWords(csv string) []string {
	var out []string
	for _, w := range strings.Split(csv, ",") {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}
