package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestFloatCoercion(t *testing.T) {
	cases := map[string]float64{
		`12.5`:     12.5,
		`-90`:      -90,
		`"45"`:     45,
		`" 30 "`:   30,
		`"abc"`:    0,
		`null`:     0,
		`true`:     0,
		`{"a": 1}`: 0,
		`[1, 2]`:   0,
		`"NaN"`:    0,
		`"+Inf"`:   0,
	}
	for in, want := range cases {
		var f Float
		if err := json.Unmarshal([]byte(in), &f); err != nil {
			t.Errorf("Unmarshal(%s) failed: %v", in, err)
			continue
		}
		if float64(f) != want {
			t.Errorf("Unmarshal(%s): expected %v, got %v", in, want, float64(f))
		}
	}
}

func TestFloatInStruct(t *testing.T) {
	var v struct {
		X Float `json:"x"`
		Y Float `json:"y"`
		Z Float `json:"z"`
	}
	if err := json.Unmarshal([]byte(`{"x": "oops", "y": 90}`), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v.X != 0 || v.Y != 90 || v.Z != 0 {
		t.Errorf("expected (0, 90, 0), got (%v, %v, %v)", v.X, v.Y, v.Z)
	}
}

func TestPrettyJSON(t *testing.T) {
	got := PrettyJSON(`{"a":1}`)
	want := "{\n  \"a\": 1\n}"
	if got != want {
		t.Errorf("PrettyJSON: expected %q, got %q", want, got)
	}
	if got := PrettyJSON("not json"); got != "not json" {
		t.Errorf("PrettyJSON should return invalid input unchanged, got %q", got)
	}
}

func TestCompactJSON(t *testing.T) {
	if got := CompactJSON("{ \"a\" : [1, 2] }"); got != `{"a":[1,2]}` {
		t.Errorf("CompactJSON: got %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, c := range cases {
		if got := TruncateString(c.in, c.max); got != c.want {
			t.Errorf("TruncateString(%q, %d): expected %q, got %q", c.in, c.max, c.want, got)
		}
	}
}
