package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crucial707/searchsync/internal/records"
)

const (
	ActionGetInfo = "getinfo"
	ActionExecute = "execute"
)

// SearchInfo describes the search that invoked the command.
type SearchInfo struct {
	Args          []string `json:"args"`
	App           string   `json:"app"`
	Owner         string   `json:"owner"`
	Username      string   `json:"username"`
	SessionKey    string   `json:"session_key"`
	SplunkdURI    string   `json:"splunkd_uri"`
	SID           string   `json:"sid"`
	Command       string   `json:"command"`
	SplunkVersion string   `json:"splunk_version"`
}

// Metadata is the metadata of a chunk sent by splunkd.
type Metadata struct {
	Action     string      `json:"action"`
	Preview    bool        `json:"preview"`
	Finished   bool        `json:"finished"`
	SearchInfo *SearchInfo `json:"searchinfo,omitempty"`
}

// GetInfoReply answers the getinfo exchange.
type GetInfoReply struct {
	Type           string     `json:"type"`
	RequiredFields []string   `json:"required_fields,omitempty"`
	Finished       bool       `json:"finished,omitempty"`
	Inspector      *Inspector `json:"inspector,omitempty"`
}

// ExecuteReply answers one execute chunk.
type ExecuteReply struct {
	Finished  bool       `json:"finished"`
	Inspector *Inspector `json:"inspector,omitempty"`
}

// Inspector carries messages shown in the search job inspector.
type Inspector struct {
	Messages [][2]string `json:"messages"`
}

func errorInspector(err error) *Inspector {
	return &Inspector{Messages: [][2]string{{"ERROR", err.Error()}}}
}

func decodeMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode chunk metadata: %w", err)
	}
	return m, nil
}

// Args holds the options given to the command in the search string.
type Args struct {
	Verbose    bool
	Duplicates records.DuplicatePolicy
}

// ParseArgs parses key=value command arguments. Unknown keys are errors.
// Duplicates stays empty unless the search sets it.
func ParseArgs(args []string) (Args, error) {
	var out Args
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return out, fmt.Errorf("invalid argument %q: want key=value", arg)
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "verbose":
			out.Verbose = records.ParseEnabled(value)
		case "duplicates":
			p, err := records.ParseDuplicatePolicy(value)
			if err != nil {
				return out, err
			}
			out.Duplicates = p
		default:
			return out, fmt.Errorf("unknown option %q", key)
		}
	}
	return out, nil
}
