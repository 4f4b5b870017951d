package jsonx

import "testing"

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecode_Bytes(t *testing.T) {
	var s sample
	if err := Decode([]byte(`{"name":"a","count":2}`), &s); err != nil {
		t.Fatalf("decode bytes: %v", err)
	}
	if s.Name != "a" || s.Count != 2 {
		t.Fatalf("unexpected result: %+v", s)
	}
}

func TestDecode_String(t *testing.T) {
	var s sample
	if err := Decode(`{"name":"b"}`, &s); err != nil {
		t.Fatalf("decode string: %v", err)
	}
	if s.Name != "b" {
		t.Fatalf("unexpected result: %+v", s)
	}
}

func TestDecode_Map(t *testing.T) {
	var s sample
	if err := Decode(map[string]any{"name": "c", "count": 3}, &s); err != nil {
		t.Fatalf("decode map: %v", err)
	}
	if s.Name != "c" || s.Count != 3 {
		t.Fatalf("unexpected result: %+v", s)
	}
}

func TestDecode_Nil(t *testing.T) {
	var s sample
	if err := Decode(nil, &s); err == nil {
		t.Fatal("expected error for nil payload")
	}
}

func TestDecode_Garbage(t *testing.T) {
	var s sample
	if err := Decode([]byte(`{not json`), &s); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
