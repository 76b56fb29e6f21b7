package chat

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewUserMessage(t *testing.T) {
	m := NewUserMessage("hello")

	if m.Role != RoleUser {
		t.Errorf("expected user role, got %s", m.Role)
	}
	if m.Code != nil {
		t.Error("user messages never carry a code block")
	}
	if m.ID == "" {
		t.Error("expected a generated id")
	}
	if m.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestNewAssistantMessage(t *testing.T) {
	withCode := NewAssistantMessage("see below", &CodeBlock{Code: "x := 1", Language: "go"})
	if withCode.Code == nil || withCode.Code.Language != "go" {
		t.Errorf("expected code block preserved, got %+v", withCode.Code)
	}

	plain := NewAssistantMessage("no code here", nil)
	if plain.Code != nil {
		t.Errorf("expected nil code block, got %+v", plain.Code)
	}
	if withCode.ID == plain.ID {
		t.Error("expected distinct ids")
	}
}

func TestStateClone(t *testing.T) {
	s := State{Messages: []Message{NewUserMessage("a"), NewUserMessage("b")}}

	c := s.Clone()
	c.Messages[0].Content = "mutated"

	if s.Messages[0].Content != "a" {
		t.Error("expected clone to be independent of the original")
	}
}

func TestExportMessages(t *testing.T) {
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	msgs := []Message{
		{Role: RoleUser, Content: "show me fizzbuzz", Timestamp: ts},
		{
			Role:      RoleAssistant,
			Content:   "Here you go",
			Code:      &CodeBlock{Code: "print(1)", Language: "python"},
			Timestamp: ts.Add(time.Minute),
		},
	}

	data, err := ExportMessages(msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out []map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0]["role"] != "user" || out[0]["content"] != "show me fizzbuzz" {
		t.Errorf("unexpected first entry: %+v", out[0])
	}
	if _, present := out[0]["code"]; present {
		t.Error("user entries must omit the code field")
	}
	if out[0]["timestamp"] != "2025-03-01T09:30:00Z" {
		t.Errorf("expected ISO-8601 timestamp, got %q", out[0]["timestamp"])
	}
	if out[1]["code"] != "print(1)" {
		t.Errorf("expected code carried through, got %q", out[1]["code"])
	}
}

func TestExportMessages_Empty(t *testing.T) {
	data, err := ExportMessages(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out []any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty array, got %d entries", len(out))
	}
}
