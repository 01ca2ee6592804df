package cli

import (
	"encoding/json"
	"io"
)

func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if flagPretty {
		enc.SetIndent("", "  ")
	}
	return enc
}
