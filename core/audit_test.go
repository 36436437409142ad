package core

import (
	"context"
	"testing"
	"time"
)

func seedAuditSink(t *testing.T) *MemoryAuditSink {
	t.Helper()
	sink := NewMemoryAuditSink()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	sink.Now = func() time.Time { return clock }

	profileOne := int64(1)
	profileTwo := int64(2)
	events := []AuditEvent{
		{Action: AuditActionExecuteSuccess, ProfileID: &profileOne, Group: "Auth", Name: "login"},
		{Action: AuditActionAccessDenied, ProfileID: &profileTwo, Group: "Auth", Name: "login"},
		{Action: AuditActionExecuteSuccess, ProfileID: &profileOne, Group: "Accounts", Name: "balance"},
		{Action: AuditActionExecuteError, ProfileID: &profileOne, Group: "Accounts", Name: "transfer"},
	}
	for _, event := range events {
		if err := sink.Log(context.Background(), event); err != nil {
			t.Fatalf("Log returned error: %v", err)
		}
		clock = clock.Add(time.Minute)
	}
	return sink
}

func TestMemoryAuditSink_AssignsIDAndTimestamp(t *testing.T) {
	sink := NewMemoryAuditSink()
	one := int64(1)
	if err := sink.Log(context.Background(), AuditEvent{Action: AuditActionExecuteSuccess, ProfileID: &one}); err != nil {
		t.Fatalf("Log returned error: %v", err)
	}

	page, err := sink.ListAuditTrail(context.Background(), AuditTrailFilter{})
	if err != nil {
		t.Fatalf("ListAuditTrail returned error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 event, got %d", len(page.Items))
	}
	if page.Items[0].ID == "" {
		t.Fatal("expected generated event ID")
	}
	if page.Items[0].CreatedAt.IsZero() {
		t.Fatal("expected assigned timestamp")
	}
}

func TestMemoryAuditSink_RejectsMissingAction(t *testing.T) {
	sink := NewMemoryAuditSink()
	if err := sink.Log(context.Background(), AuditEvent{}); err == nil {
		t.Fatal("expected error for empty action")
	}
}

func TestMemoryAuditSink_NewestFirst(t *testing.T) {
	sink := seedAuditSink(t)

	page, err := sink.ListAuditTrail(context.Background(), AuditTrailFilter{})
	if err != nil {
		t.Fatalf("ListAuditTrail returned error: %v", err)
	}
	if len(page.Items) != 4 {
		t.Fatalf("expected 4 events, got %d", len(page.Items))
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i].CreatedAt.After(page.Items[i-1].CreatedAt) {
			t.Fatal("expected newest-first ordering")
		}
	}
}

func TestMemoryAuditSink_Filters(t *testing.T) {
	sink := seedAuditSink(t)
	one := int64(1)

	page, err := sink.ListAuditTrail(context.Background(), AuditTrailFilter{ProfileID: &one})
	if err != nil {
		t.Fatalf("ListAuditTrail returned error: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("expected 3 events for profile 1, got %d", page.Total)
	}

	page, err = sink.ListAuditTrail(context.Background(), AuditTrailFilter{Action: AuditActionAccessDenied})
	if err != nil {
		t.Fatalf("ListAuditTrail returned error: %v", err)
	}
	if page.Total != 1 || page.Items[0].Group != "Auth" {
		t.Fatalf("unexpected ACCESS_DENIED page: %+v", page)
	}

	page, err = sink.ListAuditTrail(context.Background(), AuditTrailFilter{Group: "Accounts"})
	if err != nil {
		t.Fatalf("ListAuditTrail returned error: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 Accounts events, got %d", page.Total)
	}
}

func TestMemoryAuditSink_Pagination(t *testing.T) {
	sink := seedAuditSink(t)

	first, err := sink.ListAuditTrail(context.Background(), AuditTrailFilter{Page: 1, PerPage: 3})
	if err != nil {
		t.Fatalf("ListAuditTrail returned error: %v", err)
	}
	if len(first.Items) != 3 || !first.HasNext || first.Total != 4 {
		t.Fatalf("unexpected first page: %+v", first)
	}

	second, err := sink.ListAuditTrail(context.Background(), AuditTrailFilter{Page: 2, PerPage: 3})
	if err != nil {
		t.Fatalf("ListAuditTrail returned error: %v", err)
	}
	if len(second.Items) != 1 || second.HasNext {
		t.Fatalf("unexpected second page: %+v", second)
	}

	beyond, err := sink.ListAuditTrail(context.Background(), AuditTrailFilter{Page: 9, PerPage: 3})
	if err != nil {
		t.Fatalf("ListAuditTrail returned error: %v", err)
	}
	if len(beyond.Items) != 0 || beyond.HasNext {
		t.Fatalf("unexpected page beyond end: %+v", beyond)
	}
}
