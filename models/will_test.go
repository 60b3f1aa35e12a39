package models

import (
	"encoding/json"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/wills_backend/utils"
)

func TestWillStatusTransitions(t *testing.T) {
	cases := []struct {
		status      WillStatus
		editable    bool
		finalizable bool
	}{
		{WillStatusDraft, true, true},
		{WillStatusPaid, false, true},
		{WillStatusCompleted, false, false},
	}
	for _, tc := range cases {
		if got := tc.status.Editable(); got != tc.editable {
			t.Errorf("%s: Editable() = %v, want %v", tc.status, got, tc.editable)
		}
		if got := tc.status.Finalizable(); got != tc.finalizable {
			t.Errorf("%s: Finalizable() = %v, want %v", tc.status, got, tc.finalizable)
		}
	}
}

func TestWillGuards(t *testing.T) {
	draft := &Will{Status: WillStatusDraft}
	if err := draft.EnsureEditable(); err != nil {
		t.Errorf("draft should be editable: %v", err)
	}
	if err := draft.EnsureDeletable(); err != nil {
		t.Errorf("draft should be deletable: %v", err)
	}
	if err := draft.EnsureFinalizable(); err != nil {
		t.Errorf("draft should be finalizable: %v", err)
	}

	paid := &Will{Status: WillStatusPaid}
	if err := paid.EnsureEditable(); !errors.Is(err, utils.ErrorFinalized) {
		t.Errorf("paid edit: got %v, want finalized conflict", err)
	}
	if err := paid.EnsureDeletable(); !errors.Is(err, utils.ErrorFinalized) {
		t.Errorf("paid delete: got %v, want finalized conflict", err)
	}
	if err := paid.EnsureFinalizable(); err != nil {
		t.Errorf("paid should still be finalizable: %v", err)
	}

	completed := &Will{Status: WillStatusCompleted}
	if err := completed.EnsureEditable(); !errors.Is(err, utils.ErrorFinalized) {
		t.Errorf("completed edit: got %v, want finalized conflict", err)
	}
	if err := completed.EnsureDeletable(); !errors.Is(err, utils.ErrorFinalized) {
		t.Errorf("completed delete: got %v, want finalized conflict", err)
	}
	if err := completed.EnsureFinalizable(); !errors.Is(err, utils.ErrorFinalized) {
		t.Errorf("completed finalize again: got %v, want finalized conflict", err)
	}
}

func TestWillStatusUnmarshal(t *testing.T) {
	var s WillStatus
	if err := json.Unmarshal([]byte(`"Paid"`), &s); err != nil || s != WillStatusPaid {
		t.Fatalf("got %v / %v", s, err)
	}
	if err := json.Unmarshal([]byte(`"paid"`), &s); err == nil {
		t.Fatal("lowercase status should be rejected")
	}
	if err := json.Unmarshal([]byte(`3`), &s); err == nil {
		t.Fatal("numeric status should be rejected")
	}
}

func TestWillDisplayName(t *testing.T) {
	name := "Family estate"
	if got := (&Will{Name: &name}).DisplayName(); got != "Family estate" {
		t.Errorf("got %q", got)
	}
	if got := (&Will{}).DisplayName(); got != "Untitled will" {
		t.Errorf("nil name: got %q", got)
	}
	empty := ""
	if got := (&Will{Name: &empty}).DisplayName(); got != "Untitled will" {
		t.Errorf("empty name: got %q", got)
	}
}

func TestWillDecodedData(t *testing.T) {
	w := &Will{Data: json.RawMessage(`{"fullName":"Aung Kyaw"}`)}
	data, err := w.DecodedData()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.FullName != "Aung Kyaw" {
		t.Errorf("got %q", data.FullName)
	}

	w = &Will{}
	if data, err = w.DecodedData(); err != nil || data == nil {
		t.Fatalf("empty data column should decode to empty document: %v", err)
	}
}
