package httpapi

import "testing"

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB on zero, got %d", maxBodyBytes)
	}
}

func TestSetMaxBodyBytes_PositiveSetsValue(t *testing.T) {
	defer SetMaxBodyBytes(0)
	SetMaxBodyBytes(1234)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
}

func TestSetTranslateTimeoutSeconds_NormalizesNegativeToZero(t *testing.T) {
	defer SetTranslateTimeoutSeconds(0)
	SetTranslateTimeoutSeconds(-5)
	if translateTimeout != 0 {
		t.Fatalf("expected 0, got %d", translateTimeout)
	}
	SetTranslateTimeoutSeconds(3)
	if translateTimeout != 3 {
		t.Fatalf("expected 3, got %d", translateTimeout)
	}
}

func TestSetAPIKey_TrimsWhitespace(t *testing.T) {
	defer SetAPIKey("")
	SetAPIKey("  tok \n")
	if apiKey != "tok" {
		t.Fatalf("apiKey=%q", apiKey)
	}
}
