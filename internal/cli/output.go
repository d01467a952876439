package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// parseArg reads a command line call argument. JSON is decoded with integers kept exact;
// anything that is not JSON passes through as a string.
func parseArg(raw string) interface{} {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return normalize(v)
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if u, err := strconv.ParseUint(t.String(), 10, 64); err == nil {
			return u
		}
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return i
		}
		// too wide for 64 bits: the decimal string is what u128 encoders accept
		return t.String()
	case []interface{}:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]interface{}:
		for k := range t {
			t[k] = normalize(t[k])
		}
		return t
	}
	return v
}
