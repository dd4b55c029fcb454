package models

import (
	"encoding/json"
	"strings"
)

// StringList accepts either a JSON array of strings or a single
// comma-separated string. The union is normalized here and never
// propagated past input binding.
type StringList []string

func (s *StringList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*s = trimmed(arr)
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*s = trimmed(strings.Split(one, ","))
	return nil
}

func trimmed(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
