package vmap

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValueMarshalJSON(t *testing.T) {
	v := NewInt32("age", -5)
	var obj map[string]any
	ensure(json.Unmarshal(must(json.Marshal(v)), &obj))
	deepEqual(t, obj["name"], any("age"))
	deepEqual(t, obj["kind"], any("int32"))
	deepEqual(t, obj["value"], any(float64(-5)))
}

func TestContainerToJSON(t *testing.T) {
	c := NewContainer()
	c.SetSource("src", "")
	c.SetString("k", "v")
	c.SetNested("sub", nil)

	s := must(c.ToJSON())
	var obj map[string]any
	ensure(json.Unmarshal([]byte(s), &obj))

	header, ok := obj["header"].(map[string]any)
	if !ok {
		t.Fatalf("header missing: %s", s)
	}
	deepEqual(t, header["source_id"], any("src"))

	values, ok := obj["values"].([]any)
	if !ok || len(values) != 2 {
		t.Fatalf("values = %v", obj["values"])
	}
}

func TestContainerToJSONDefaultHeaderOmitted(t *testing.T) {
	c := NewContainer()
	c.SetString("k", "v")
	s := must(c.ToJSON())
	if strings.Contains(s, "header") {
		t.Errorf("** default header rendered: %s", s)
	}
}

func TestContainerToJSONCycleRendersNull(t *testing.T) {
	c := NewContainer()
	c.SetNested("self", c)
	s := must(c.ToJSON())
	var obj map[string]any
	ensure(json.Unmarshal([]byte(s), &obj))
	values := obj["values"].([]any)
	self := values[0].(map[string]any)
	deepEqual(t, self["value"], any(nil))
}

func TestArrayJSON(t *testing.T) {
	v := NewArray("arr", NewString("e", "x"), nil)
	var obj map[string]any
	ensure(json.Unmarshal(must(json.Marshal(v)), &obj))
	arr, ok := obj["value"].([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("value = %v", obj["value"])
	}
	deepEqual(t, arr[1], any(nil))
}
