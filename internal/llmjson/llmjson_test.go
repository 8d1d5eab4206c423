package llmjson

import (
	"reflect"
	"testing"
)

type buttonsPayload struct {
	Result []struct {
		Title   string `json:"title"`
		Payload string `json:"payload"`
	} `json:"result"`
	Language string `json:"language"`
}

type emailPayload struct {
	EmailText                string `json:"emailText"`
	DuringEmailClarification bool   `json:"duringEmailClarification"`
	ShouldSendEmail          bool   `json:"shouldSendEmail"`
	ClarificationText        string `json:"clarificationText"`
}

func TestDecodeInto_Direct(t *testing.T) {
	raw := `{"result":[{"title":"WiFi","payload":"ASK_WIFI"}],"language":"pl"}`
	var got buttonsPayload
	if out := DecodeInto(raw, &got); out != Direct {
		t.Fatalf("outcome = %v, want direct", out)
	}
	if got.Language != "pl" || len(got.Result) != 1 || got.Result[0].Title != "WiFi" {
		t.Fatalf("decoded: %+v", got)
	}
}

func TestDecodeInto_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"language\":\"en\",\"result\":[]}\n```"
	var got buttonsPayload
	if out := DecodeInto(raw, &got); out != Direct {
		t.Fatalf("outcome = %v, want direct", out)
	}
	if got.Language != "en" {
		t.Fatalf("language = %q", got.Language)
	}
}

func TestDecodeInto_IsolatesObjectFromProse(t *testing.T) {
	raw := `Sure! Here is the JSON you asked for: {"shouldSendEmail":true,"emailText":"Room 12 AC broken"} hope that helps`
	var got emailPayload
	if out := DecodeInto(raw, &got); out != Direct {
		t.Fatalf("outcome = %v, want direct", out)
	}
	if !got.ShouldSendEmail || got.EmailText != "Room 12 AC broken" {
		t.Fatalf("decoded: %+v", got)
	}
}

func TestDecodeInto_RepairsTruncatedOutput(t *testing.T) {
	cases := []string{
		`{"emailText":"hello","shouldSendEmail":true`,
		`{"emailText":"hello","shouldSendEmail":true,`,
		`{"emailText":"hel`,
	}
	for _, raw := range cases {
		var got emailPayload
		out := DecodeInto(raw, &got)
		if out == Fallback {
			t.Fatalf("raw %q: fell back entirely", raw)
		}
		if got.EmailText == "" {
			t.Fatalf("raw %q: emailText not recovered (outcome %v)", raw, out)
		}
	}
}

func TestDecodeInto_SalvagesFieldsFromBrokenJSON(t *testing.T) {
	// Unquoted key makes this unparseable even after repair, but individual
	// fields are still extractable by name.
	raw := `{broken "shouldSendEmail": true, "clarificationText": "which room?", "duringEmailClarification": true oops`
	fallback := emailPayload{}
	out := DecodeInto(raw, &fallback)
	if out != Fields {
		t.Fatalf("outcome = %v, want fields", out)
	}
	if !fallback.ShouldSendEmail || !fallback.DuringEmailClarification {
		t.Fatalf("bools not salvaged: %+v", fallback)
	}
	if fallback.ClarificationText != "which room?" {
		t.Fatalf("clarificationText = %q", fallback.ClarificationText)
	}
}

func TestDecodeInto_FallbackKeptOnGarbage(t *testing.T) {
	fallback := emailPayload{EmailText: "keep me"}
	if out := DecodeInto("complete nonsense with no braces at all", &fallback); out != Fallback {
		t.Fatalf("outcome = %v, want fallback", out)
	}
	if fallback.EmailText != "keep me" {
		t.Fatalf("fallback mutated: %+v", fallback)
	}
}

func TestDecodeInto_FailedParseDoesNotClobberFallback(t *testing.T) {
	// Parseable JSON of the wrong type must not partially overwrite dst.
	raw := `{"result":"not an array","language":12}`
	fallback := buttonsPayload{Language: "en"}
	DecodeInto(raw, &fallback)
	if fallback.Language != "en" {
		t.Fatalf("fallback clobbered: %+v", fallback)
	}
}

func TestDecodeInto_NeverPanicsOnMalformedInput(t *testing.T) {
	inputs := []string{
		"", "{", "}", "{{{{", `{"a"`, `{"a":`, `{"a":"b\`, "```", "```json",
		`[1,2,3]`, `{"result":[{"title":`, "\x00\xff{\"language\":", `{"language":"`,
	}
	for _, raw := range inputs {
		var b buttonsPayload
		var e emailPayload
		DecodeInto(raw, &b) // must not panic
		DecodeInto(raw, &e)
	}
}

func TestDecodeInto_Idempotent(t *testing.T) {
	raw := "```\n{\"result\":[{\"title\":\"Breakfast\",\"payload\":\"ASK_BREAKFAST\"}],\"language\":\"de\"}\n```"
	var first, second buttonsPayload
	DecodeInto(raw, &first)
	DecodeInto(raw, &second)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent: %+v vs %+v", first, second)
	}
}

func TestRepair(t *testing.T) {
	cases := map[string]string{
		`{"a":1`:         `{"a":1}`,
		`{"a":[1,2`:      `{"a":[1,2]}`,
		`{"a":"b`:        `{"a":"b"}`,
		`{"a":1,`:        `{"a":1}`,
		`{"a":`:          `{"a": null}`,
		`{"a":{"b":true`: `{"a":{"b":true}}`,
	}
	for in, want := range cases {
		if got := Repair(in); got != want {
			t.Errorf("Repair(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsolate(t *testing.T) {
	if got := Isolate(`noise {"a":{"b":1}} trailing {"c":2}`); got != `{"a":{"b":1}}` {
		t.Fatalf("Isolate = %q", got)
	}
	if got := Isolate("no object here"); got != "" {
		t.Fatalf("Isolate = %q, want empty", got)
	}
	if got := Isolate(`{"brace in string":"}"}`); got != `{"brace in string":"}"}` {
		t.Fatalf("Isolate mishandled quoted brace: %q", got)
	}
}
