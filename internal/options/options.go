// Package options holds the user configuration shared by the settings page
// and the relay: the New Relic credentials and the watch polling interval.
package options

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// DefaultUpdateFreq is the polling interval, in minutes, used whenever the
// user leaves it blank or enters something unusable.
const DefaultUpdateFreq = 5

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)
	nonDigit        = regexp.MustCompile(`[^0-9]`)
)

var (
	ErrNotObject    = errors.New("options payload is not a JSON object")
	ErrTrailingData = errors.New("options payload has data after the JSON object")
)

type Options struct {
	APIKey     string `json:"apiKey"`
	AppID      string `json:"appId"`
	UpdateFreq int    `json:"updateFreq"`
}

// New builds Options, substituting the default interval for zero.
func New(apiKey, appID string, updateFreq int) Options {
	if updateFreq == 0 {
		updateFreq = DefaultUpdateFreq
	}
	return Options{
		APIKey:     apiKey,
		AppID:      appID,
		UpdateFreq: updateFreq,
	}
}

// Sanitize normalizes every field in place. It is idempotent.
func (o *Options) Sanitize() {
	o.APIKey = nonAlphanumeric.ReplaceAllString(o.APIKey, "")
	o.AppID = nonDigit.ReplaceAllString(o.AppID, "")
	if o.UpdateFreq < 1 {
		o.UpdateFreq = DefaultUpdateFreq
	}
}

// Complete reports whether there is enough configuration to query New Relic.
func (o Options) Complete() bool {
	return o.APIKey != "" && o.AppID != ""
}

// Parse decodes a JSON object leniently. The settings page submits the
// interval as a string and may submit the app id as a number, so both forms
// are accepted. Unknown fields are ignored.
func Parse(data []byte) (Options, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Options{}, fmt.Errorf("failed to decode options: %w", err)
	}
	if raw == nil {
		return Options{}, ErrNotObject
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Options{}, ErrTrailingData
	}

	return New(text(raw["apiKey"]), text(raw["appId"]), minutes(raw["updateFreq"])), nil
}

// FromFragment decodes the URL-fragment form the settings page hands back
// when it closes.
func FromFragment(fragment string) (Options, error) {
	decoded, err := url.PathUnescape(fragment)
	if err != nil {
		return Options{}, fmt.Errorf("failed to unescape options fragment: %w", err)
	}
	return Parse([]byte(decoded))
}

// Fragment encodes o for the settings page URL fragment, escaping like
// encodeURIComponent so the page can decode it.
func (o Options) Fragment() (string, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return "", fmt.Errorf("failed to marshal options: %w", err)
	}
	return strings.ReplaceAll(url.QueryEscape(string(data)), "+", "%20"), nil
}

func text(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// minutes converts a decoded interval to whole minutes. Anything unusable
// yields 0, which New and Sanitize turn into the default.
func minutes(v any) int {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		f = math.Trunc(f)
		if f > math.MaxInt32 || f < math.MinInt32 {
			return 0
		}
		return int(f)
	case string:
		return leadingInt(val)
	default:
		return 0
	}
}

// leadingInt parses an optional sign and the leading run of decimal digits,
// ignoring whatever follows ("10min" is 10). No digits yields 0.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}

	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}
