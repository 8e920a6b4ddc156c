package payment

import (
	"context"
	"errors"
	"testing"
)

func TestReferenceRoundTrip(t *testing.T) {
	ref := Reference{SteamID: "76561198012102485", DiscordID: "123", PackageID: 4}
	encoded := ref.Encode()
	if encoded != "76561198012102485#123#4" {
		t.Errorf("unexpected encoding %s", encoded)
	}
	got, err := ParseReference(encoded)
	if err != nil {
		t.Fatalf("ParseReference: %v", err)
	}
	if got != ref {
		t.Errorf("expected %+v, got %+v", ref, got)
	}
}

func TestParseReferenceWithoutDiscord(t *testing.T) {
	got, err := ParseReference("7656##1")
	if err != nil {
		t.Fatalf("ParseReference: %v", err)
	}
	if got.DiscordID != "" || got.PackageID != 1 {
		t.Errorf("unexpected reference %+v", got)
	}
}

func TestParseReferenceRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "7656#1", "7656#1#x", "a#b#1#2"} {
		if _, err := ParseReference(s); !errors.Is(err, ErrMalformedReference) {
			t.Errorf("%q: expected ErrMalformedReference, got %v", s, err)
		}
	}
}

func TestFakeProviderCapture(t *testing.T) {
	f := NewFakeProvider()
	created, err := f.CreateOrder(context.Background(), OrderRequest{Reference: Reference{SteamID: "7656", PackageID: 1}, Amount: "5.00", Currency: "EUR"})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	capture, err := f.CaptureOrder(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("CaptureOrder: %v", err)
	}
	if !capture.Completed() || capture.CustomID != "7656##1" {
		t.Errorf("unexpected capture %+v", capture)
	}

	if _, err := f.CaptureOrder(context.Background(), "nope"); !errors.Is(err, ErrUnknownOrder) {
		t.Errorf("expected ErrUnknownOrder, got %v", err)
	}
}
