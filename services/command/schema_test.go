package command

import (
	"encoding/json"
	"testing"

	"voicebox-go/errcode"
)

func TestSchemaValidate(t *testing.T) {
	s := Schema{
		IntRange("volume", 0, 100),
		BoolProp("mute").WithDefault(false),
		StringProp("room").WithDefault("kitchen"),
	}
	cases := []struct {
		name string
		args Args
		ok   bool
		want Args
	}{
		{"json number", Args{"volume": float64(40)}, true, Args{"volume": 40, "mute": false, "room": "kitchen"}},
		{"all set", Args{"volume": 7, "mute": true, "room": "hall"}, true, Args{"volume": 7, "mute": true, "room": "hall"}},
		{"missing required", Args{"mute": true}, false, nil},
		{"fractional", Args{"volume": 1.5}, false, nil},
		{"below range", Args{"volume": -1}, false, nil},
		{"above range", Args{"volume": 101}, false, nil},
		{"wrong type", Args{"volume": 3, "mute": "yes"}, false, nil},
		{"unknown key", Args{"volume": 3, "colour": "red"}, false, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Validate(tc.args)
			if !tc.ok {
				if errcode.Of(err) != errcode.InvalidParams {
					t.Fatalf("err = %v, want invalid_params", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Fatalf("%s = %v (%T), want %v", k, got[k], got[k], v)
				}
			}
		})
	}
}

func TestEmptySchema(t *testing.T) {
	var s Schema
	if out, err := s.Validate(nil); err != nil || len(out) != 0 {
		t.Fatalf("Validate(nil) = %v,%v", out, err)
	}
	if _, err := s.Validate(Args{"x": 1}); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("extra arg accepted: %v", err)
	}
}

func TestSchemaJSON(t *testing.T) {
	s := Schema{IntRange("volume", 0, 100), BoolProp("mute").WithDefault(false)}
	raw, err := json.Marshal(s.JSON())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"object","properties":{"mute":{"type":"boolean","default":false},"volume":{"type":"integer","minimum":0,"maximum":100}},"required":["volume"]}`
	if string(raw) != want {
		t.Fatalf("schema =\n%s\nwant\n%s", raw, want)
	}

	raw, _ = json.Marshal(Schema(nil).JSON())
	if string(raw) != `{"type":"object","properties":{}}` {
		t.Fatalf("empty schema = %s", raw)
	}
}
