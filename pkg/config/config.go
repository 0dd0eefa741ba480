// Package config provides the relay's TOML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultAddress               = "0.0.0.0:8081"
	defaultPollInterval          = 500 * time.Millisecond
	defaultHandshakeWriteTimeout = 10 * time.Second
	defaultWriteTimeout          = 10 * time.Second
	defaultSendTimeout           = 2 * time.Second
	defaultMailboxSize           = 64
	defaultMaxFrameSize          = 64 * 1024
	defaultMinRSABits            = 2048
	defaultPacketsPerSecond      = 50
	defaultBurst                 = 100
	defaultLogLevel              = "NOTICE"
	defaultAPIAddress            = "127.0.0.1:8082"
	defaultHeartbeatInterval     = 5 * time.Minute

	// An encoded Assign (header, id, 32 byte key) needs roughly 75 bytes of
	// OAEP payload, which a 1024 bit key cannot carry.
	minRSABitsFloor = 2048
)

// Duration is a time.Duration read from a TOML string such as "500ms"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Server is the relay listener and connection worker configuration.
type Server struct {
	// Address is the TCP address the relay listens on.
	Address string

	// PollInterval bounds each blocking read so workers notice shutdown.
	PollInterval Duration

	// HandshakeWriteTimeout bounds the write of the Assign packet.
	HandshakeWriteTimeout Duration

	// WriteTimeout bounds every later write to a client.
	WriteTimeout Duration

	// SendTimeout is how long a forward waits for room in a full mailbox.
	SendTimeout Duration

	// MailboxSize is the number of packets queued per connection.
	MailboxSize int

	// MaxFrameSize is the largest accepted frame, after unescaping.
	MaxFrameSize int

	// MinRSABits is the smallest client RSA modulus accepted.
	MinRSABits int

	// HeartbeatInterval is how often relay stats are logged, negative disables.
	HeartbeatInterval Duration
}

func (sCfg *Server) applyDefaults() {
	if sCfg.Address == "" {
		sCfg.Address = defaultAddress
	}
	if sCfg.PollInterval.Duration <= 0 {
		sCfg.PollInterval.Duration = defaultPollInterval
	}
	if sCfg.HandshakeWriteTimeout.Duration <= 0 {
		sCfg.HandshakeWriteTimeout.Duration = defaultHandshakeWriteTimeout
	}
	if sCfg.WriteTimeout.Duration <= 0 {
		sCfg.WriteTimeout.Duration = defaultWriteTimeout
	}
	if sCfg.SendTimeout.Duration <= 0 {
		sCfg.SendTimeout.Duration = defaultSendTimeout
	}
	if sCfg.MailboxSize <= 0 {
		sCfg.MailboxSize = defaultMailboxSize
	}
	if sCfg.MaxFrameSize <= 0 {
		sCfg.MaxFrameSize = defaultMaxFrameSize
	}
	if sCfg.MinRSABits == 0 {
		sCfg.MinRSABits = defaultMinRSABits
	}
	if sCfg.HeartbeatInterval.Duration == 0 {
		sCfg.HeartbeatInterval.Duration = defaultHeartbeatInterval
	}
}

func (sCfg *Server) validate() error {
	if _, _, err := net.SplitHostPort(sCfg.Address); err != nil {
		return fmt.Errorf("config: Server: Address '%v' is invalid: %v", sCfg.Address, err)
	}
	if sCfg.MinRSABits < minRSABitsFloor {
		return fmt.Errorf("config: Server: MinRSABits %d is below %d", sCfg.MinRSABits, minRSABitsFloor)
	}
	if sCfg.MaxFrameSize < 1024 {
		return fmt.Errorf("config: Server: MaxFrameSize %d is too small", sCfg.MaxFrameSize)
	}
	return nil
}

// RateLimit limits inbound packets per connection. PacketsPerSecond 0
// disables the limit.
type RateLimit struct {
	PacketsPerSecond float64
	Burst            int
}

func (rCfg *RateLimit) validate() error {
	if rCfg.PacketsPerSecond < 0 {
		return errors.New("config: RateLimit: PacketsPerSecond is negative")
	}
	if rCfg.PacketsPerSecond > 0 && rCfg.Burst <= 0 {
		rCfg.Burst = int(rCfg.PacketsPerSecond)
		if rCfg.Burst < 1 {
			rCfg.Burst = 1
		}
	}
	return nil
}

// Logging is the relay logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout will be used.
	File string

	// Level specifies the log level.
	Level string
}

func (lCfg *Logging) validate() error {
	lvl := strings.ToUpper(lCfg.Level)
	switch lvl {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	case "":
		lvl = defaultLogLevel
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", lCfg.Level)
	}
	lCfg.Level = lvl // Force uppercase.
	return nil
}

// API is the HTTP status API configuration.
type API struct {
	// Enable turns on the status API.
	Enable bool

	// Address is the HTTP listen address.
	Address string
}

func (aCfg *API) validate() error {
	if aCfg.Address == "" {
		aCfg.Address = defaultAPIAddress
	}
	if _, _, err := net.SplitHostPort(aCfg.Address); err != nil {
		return fmt.Errorf("config: API: Address '%v' is invalid: %v", aCfg.Address, err)
	}
	return nil
}

// Config is the top level relay configuration.
type Config struct {
	Server    *Server
	RateLimit *RateLimit
	Logging   *Logging
	API       *API
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{
		Server: &Server{},
		RateLimit: &RateLimit{
			PacketsPerSecond: defaultPacketsPerSecond,
			Burst:            defaultBurst,
		},
		Logging: &Logging{Level: defaultLogLevel},
		API:     &API{Address: defaultAPIAddress},
	}
	if err := cfg.FixupAndValidate(); err != nil {
		panic(err)
	}
	return cfg
}

// FixupAndValidate applies defaults to config entries and validates the
// supplied configuration.  Most people should call one of the Load variants
// instead.
func (cfg *Config) FixupAndValidate() error {
	if cfg.Server == nil {
		cfg.Server = &Server{}
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = &RateLimit{
			PacketsPerSecond: defaultPacketsPerSecond,
			Burst:            defaultBurst,
		}
	}
	if cfg.Logging == nil {
		cfg.Logging = &Logging{}
	}
	if cfg.API == nil {
		cfg.API = &API{}
	}

	cfg.Server.applyDefaults()
	if err := cfg.Server.validate(); err != nil {
		return err
	}
	if err := cfg.RateLimit.validate(); err != nil {
		return err
	}
	if err := cfg.Logging.validate(); err != nil {
		return err
	}
	return cfg.API.validate()
}

// Load parses and validates the provided buffer b as a config file body.
func Load(b []byte) (*Config, error) {
	if b == nil {
		return nil, errors.New("config: no nil buffer as config file")
	}

	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: undecoded keys in config file: %v", undecoded)
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads, parses and validates the provided file.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

// Encode renders cfg as TOML
func (cfg *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
