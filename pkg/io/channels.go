package io

import (
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/kahojyun/pulsegen/pkg/channel"
	"github.com/kahojyun/pulsegen/pkg/errors"
)

// channelTable is the TOML layout of a channel table:
//
//	[[channel]]
//	name = "xy0"
//	base_freq = 100e6
//	sample_rate = 2e9
//	length = 100000
type channelTable struct {
	Channel []channel.Info `toml:"channel"`
}

// ReadChannels decodes a TOML channel table. Unknown keys are rejected.
func ReadChannels(r io.Reader) ([]channel.Info, error) {
	var t channelTable
	md, err := toml.NewDecoder(r).Decode(&t)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode channel table")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidFormat, "channel table: unknown keys %s", strings.Join(keys, ", "))
	}
	if err := channel.ValidateAll(t.Channel); err != nil {
		return nil, err
	}
	return t.Channel, nil
}

// LoadChannels reads a TOML channel table from path.
func LoadChannels(path string) ([]channel.Info, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "channel table %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return ReadChannels(f)
}

// WriteChannels encodes channels as a TOML channel table.
func WriteChannels(channels []channel.Info, w io.Writer) error {
	return toml.NewEncoder(w).Encode(channelTable{Channel: channels})
}
