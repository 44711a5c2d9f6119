package utils

import "testing"

func TestJwtRoundTrip(t *testing.T) {
	token, err := JwtGenerate(7, "admin", "ST-1001")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	parsed, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatal("claims have unexpected type")
	}
	if claims.ID != 7 || claims.Role != "admin" || claims.StudentId != "ST-1001" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJwtValidateRejectsGarbage(t *testing.T) {
	if _, err := JwtValidate("not-a-token"); err == nil {
		t.Fatal("garbage token should fail validation")
	}
}

func TestValidationErrorSentinel(t *testing.T) {
	err := NewValidationError("invalid status transition from %q to %q", "Resolved", "Acknowledged")
	if !IsValidationError(err) {
		t.Fatal("IsValidationError should report true")
	}
	if IsValidationError(ErrLedgerUnavailable) {
		t.Fatal("IsValidationError should report false for unrelated errors")
	}
}
