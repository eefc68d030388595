package common

import (
	"encoding/json"
	"io"
)

type CIResult struct {
	OK         bool     `json:"ok"`
	Title      string   `json:"title"`
	Details    []string `json:"details,omitempty"`
	Error      string   `json:"error,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func PrintCIResult(w io.Writer, result CIResult) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}
