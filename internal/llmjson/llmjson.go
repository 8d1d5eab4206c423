// Package llmjson extracts typed values from raw, occasionally malformed LLM
// output. Nothing in this package returns an error: every decode degrades to
// the caller-supplied fallback values instead.
package llmjson

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"
)

// Outcome reports which strategy produced the decoded value.
type Outcome int

const (
	// Direct means the isolated JSON block parsed as-is.
	Direct Outcome = iota
	// Repaired means parsing succeeded after closing unmatched tokens.
	Repaired
	// Fields means individual fields were regex-salvaged by name.
	Fields
	// Fallback means nothing was extractable; dst was left untouched.
	Fallback
)

func (o Outcome) String() string {
	switch o {
	case Direct:
		return "direct"
	case Repaired:
		return "repaired"
	case Fields:
		return "fields"
	default:
		return "fallback"
	}
}

// DecodeInto parses raw model output into dst, which must be a non-nil
// pointer to a struct pre-filled with fallback values. Strategies, in order:
// direct parse of the first balanced JSON object (after stripping a markdown
// fence), structural repair of unclosed tokens, then per-field regex salvage.
// Fields the model did not produce keep their fallback values.
func DecodeInto(raw string, dst any) Outcome {
	candidate := Isolate(raw)
	if candidate != "" {
		if tryUnmarshal(candidate, dst) {
			return Direct
		}
		if repaired := Repair(candidate); repaired != candidate && tryUnmarshal(repaired, dst) {
			return Repaired
		}
	}
	if salvageFields(raw, dst) {
		return Fields
	}
	return Fallback
}

// tryUnmarshal decodes into a scratch copy of *dst so a failed parse cannot
// clobber the fallback values, then commits on success.
func tryUnmarshal(s string, dst any) bool {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	scratch := reflect.New(v.Elem().Type())
	scratch.Elem().Set(v.Elem())
	if err := json.Unmarshal([]byte(s), scratch.Interface()); err != nil {
		return false
	}
	v.Elem().Set(scratch.Elem())
	return true
}

// Isolate strips a leading/trailing markdown code fence and returns the first
// balanced top-level {...} span. An object that never closes is returned
// open, for Repair to finish. Returns "" when raw holds no object at all.
func Isolate(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if esc {
			esc = false
			continue
		}
		switch c {
		case '\\':
			if inStr {
				esc = true
			}
		case '"':
			inStr = !inStr
		case '{':
			if !inStr {
				depth++
			}
		case '}':
			if !inStr {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return s[start:]
}

// Repair appends the closing tokens a truncated object is missing: a quote
// for an open string, null for a dangling key, then the unmatched } and ]
// in reverse order of opening. A trailing comma is dropped first.
func Repair(s string) string {
	var stack []byte
	inStr := false
	esc := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if esc {
			esc = false
			continue
		}
		switch c {
		case '\\':
			if inStr {
				esc = true
			}
		case '"':
			inStr = !inStr
		case '{', '[':
			if !inStr {
				stack = append(stack, c)
			}
		case '}':
			if !inStr && len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if !inStr && len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if inStr {
		if esc {
			s = s[:len(s)-1]
		}
		s += `"`
	}
	trimmed := strings.TrimRight(s, " \t\r\n")
	if strings.HasSuffix(trimmed, ",") {
		s = strings.TrimSuffix(trimmed, ",")
	} else if strings.HasSuffix(trimmed, ":") {
		s = trimmed + " null"
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

// salvageFields regex-extracts booleans, quoted strings and numbers by their
// json field names and writes them over dst's fallback values. Returns true
// when at least one field was found.
func salvageFields(raw string, dst any) bool {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	elem := v.Elem()
	if elem.Kind() != reflect.Struct {
		return false
	}
	t := elem.Type()
	found := false
	for i := 0; i < t.NumField(); i++ {
		field := elem.Field(i)
		if !field.CanSet() {
			continue
		}
		name := jsonName(t.Field(i))
		if name == "" {
			continue
		}
		switch field.Kind() {
		case reflect.Bool:
			if m := boolFieldRE(name).FindStringSubmatch(raw); m != nil {
				field.SetBool(m[1] == "true")
				found = true
			}
		case reflect.String:
			if m := stringFieldRE(name).FindStringSubmatch(raw); m != nil {
				var s string
				if json.Unmarshal([]byte(`"`+m[1]+`"`), &s) == nil {
					field.SetString(s)
					found = true
				}
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if m := numberFieldRE(name).FindStringSubmatch(raw); m != nil {
				var f float64
				if json.Unmarshal([]byte(m[1]), &f) == nil {
					field.SetInt(int64(f))
					found = true
				}
			}
		case reflect.Float32, reflect.Float64:
			if m := numberFieldRE(name).FindStringSubmatch(raw); m != nil {
				var f float64
				if json.Unmarshal([]byte(m[1]), &f) == nil {
					field.SetFloat(f)
					found = true
				}
			}
		}
	}
	return found
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" {
		tag = f.Name
	}
	return tag
}

func boolFieldRE(name string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*(true|false)`)
}

func stringFieldRE(name string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
}

func numberFieldRE(name string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*(-?\d+(?:\.\d+)?)`)
}

// Truncate shortens raw content for log output.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
