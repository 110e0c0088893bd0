package config

import (
	"fmt"
	"os"
)

// Default configuration values (production)
const (
	DefaultDomain      = "webrtc.simtim.dev"
	DefaultSTUNListURL = "https://raw.githubusercontent.com/pradt2/always-online-stun/master/valid_hosts.txt"
	DefaultTURN        = "" // Optional, empty by default
	DefaultTURNUser    = ""
	DefaultTURNPass    = ""
)

// defaultSTUNServers are used when the online STUN host list cannot be
// fetched.
var defaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
	"stun:stun2.l.google.com:19302",
	"stun:stun3.l.google.com:19302",
	"stun:stun4.l.google.com:19302",
}

// Config holds application configuration
type Config struct {
	// Domain is the signaling server domain
	Domain string

	// WebSocketURL is constructed from domain
	WebSocketURL string

	// STUNListURL is the online STUN host list endpoint
	STUNListURL string

	// ICE servers for WebRTC. STUNExplicit marks STUNServers as chosen
	// by the user (flag or environment) rather than built-in defaults;
	// the online host list never replaces an explicit choice.
	STUNServers  []string
	STUNExplicit bool
	TURNServer   string
	TURNUser     string
	TURNPass     string

	// Viewer identity announced on join (both optional)
	ViewerName  string
	ViewerEmail string

	// RecordPath, when set, enables the flight-log recorder
	RecordPath string
}

// Options for loading config with CLI flag overrides
type Options struct {
	Domain      string
	STUNServer  string
	TURNServer  string
	TURNUser    string
	TURNPass    string
	ViewerName  string
	ViewerEmail string
	RecordPath  string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	domain := firstNonEmpty(opts.Domain, os.Getenv("DOMAIN"), DefaultDomain)
	turnServer := firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER"), DefaultTURN)
	turnUser := firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME"), DefaultTURNUser)
	turnPass := firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD"), DefaultTURNPass)
	viewerName := firstNonEmpty(opts.ViewerName, os.Getenv("VIEWER_NAME"), "")
	viewerEmail := firstNonEmpty(opts.ViewerEmail, os.Getenv("VIEWER_EMAIL"), "")

	stunServers := defaultSTUNServers
	stunExplicit := false
	if s := firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), ""); s != "" {
		stunServers = []string{s}
		stunExplicit = true
	}

	return &Config{
		Domain:       domain,
		WebSocketURL: fmt.Sprintf("wss://%s/ws", domain),
		STUNListURL:  firstNonEmpty(os.Getenv("STUN_LIST_URL"), DefaultSTUNListURL),
		STUNServers:  stunServers,
		STUNExplicit: stunExplicit,
		TURNServer:   turnServer,
		TURNUser:     turnUser,
		TURNPass:     turnPass,
		ViewerName:   viewerName,
		ViewerEmail:  viewerEmail,
		RecordPath:   opts.RecordPath,
	}, nil
}

// GetRoomLink returns the webapp URL for a room ID
func (c *Config) GetRoomLink(roomID string) string {
	return fmt.Sprintf("https://%s/live?stream=%s", c.Domain, roomID)
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	return c.STUNServers
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
		fmt.Sprintf("turns:%s:5349?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
