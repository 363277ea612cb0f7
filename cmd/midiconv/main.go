// Command midiconv converts between Standard MIDI Files and the note list
// format. A .mid input is decoded to JSON or YAML; anything else is parsed
// as a note list and encoded to .mid.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"midi-player/smf"
	"midi-player/song"
)

func main() {
	out := flag.String("o", "", "Output file. Defaults to standard output.")
	format := flag.String("f", "json", "Output format when decoding: json or yaml.")
	info := flag.Bool("i", false, "Print a summary of a .mid file instead of its notes.")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: midiconv [-o out] [-f json|yaml] [-i] file\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *out, *format, *info); err != nil {
		fmt.Fprintf(os.Stderr, "midiconv: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out, format string, info bool) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrap(err, "read input")
	}

	var result []byte
	if bytes.HasPrefix(data, []byte("MThd")) {
		result, err = decode(data, format, info)
	} else {
		result, err = encode(data)
	}
	if err != nil {
		return errors.Wrap(err, in)
	}

	if out != "" {
		return os.WriteFile(out, result, 0644)
	}
	_, err = os.Stdout.Write(result)
	return err
}

func decode(data []byte, format string, info bool) ([]byte, error) {
	f, err := smf.Decode(data)
	if err != nil {
		return nil, err
	}
	var v any = song.FromFile(f)
	if info {
		v = song.Describe(f)
	}
	switch format {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		return append(b, '\n'), err
	case "yaml":
		return yaml.Marshal(v)
	}
	return nil, errors.Errorf("unknown format %q", format)
}

func encode(data []byte) ([]byte, error) {
	s, err := song.Parse(data)
	if err != nil {
		return nil, err
	}
	return s.MIDI()
}
