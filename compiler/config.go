package compiler

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"
	"tlog.app/go/errors"

	"github.com/slowlang/cflat/compiler/lower"
)

type (
	Config struct {
		// Entry is the designated entry function. It gets no funptr.
		Entry string `toml:"entry"`

		// Verify checks every lowered function before it is printed.
		Verify bool `toml:"verify"`

		// ReportUnreachable logs blocks no path from the entry reaches.
		ReportUnreachable bool `toml:"report_unreachable"`
	}
)

func DefaultConfig() Config {
	return Config{
		Entry:             lower.DefaultEntry,
		Verify:            true,
		ReportUnreachable: true,
	}
}

// LoadConfig reads a TOML config file.
// Keys missing from the file keep their defaults, unknown keys are an error.
func LoadConfig(name string) (Config, error) {
	c := DefaultConfig()

	data, err := os.ReadFile(name)
	if err != nil {
		return c, errors.Wrap(err, "read config")
	}

	d := toml.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()

	err = d.Decode(&c)
	if err != nil {
		return c, errors.Wrap(err, "decode config %v", name)
	}

	if c.Entry == "" {
		return c, errors.New("config %v: empty entry", name)
	}

	return c, nil
}

func (c Config) options() lower.Options {
	return lower.Options{Entry: c.Entry}
}
