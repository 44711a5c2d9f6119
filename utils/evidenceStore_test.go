package utils

import "testing"

func TestContentAddressIsDeterministic(t *testing.T) {
	a := ContentAddress([]byte("hello"))
	b := ContentAddress([]byte("hello"))
	if a != b {
		t.Fatalf("same bytes produced different addresses: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("address length = %d, want 64 hex chars", len(a))
	}
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if a != want {
		t.Fatalf("address = %s, want %s", a, want)
	}
}

func TestContentAddressDiffersPerContent(t *testing.T) {
	if ContentAddress([]byte("a")) == ContentAddress([]byte("b")) {
		t.Fatal("different bytes should produce different addresses")
	}
}

func TestGetStorageProviderDefaultsToGCS(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "")
	if got := GetStorageProvider(); got != StorageProviderGCS {
		t.Fatalf("provider = %q, want %q", got, StorageProviderGCS)
	}
	t.Setenv("STORAGE_PROVIDER", "GCS")
	if got := GetStorageProvider(); got != StorageProviderGCS {
		t.Fatalf("provider = %q, want %q", got, StorageProviderGCS)
	}
}

func TestNewEvidenceStoreRejectsUnknownProvider(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "ftp")
	if _, err := NewEvidenceStore(); err == nil {
		t.Fatal("unknown provider should fail")
	}
}
