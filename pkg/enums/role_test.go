package enums

import "testing"

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"buyer", "seller"} {
		role, err := ParseRole(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if !role.IsValid() {
			t.Fatalf("parsed role %q should be valid", role)
		}
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestRoleOther(t *testing.T) {
	if RoleBuyer.Other() != RoleSeller || RoleSeller.Other() != RoleBuyer {
		t.Fatal("Other must flip between buyer and seller")
	}
}

func TestLineStateBusy(t *testing.T) {
	if LineStatePresent.Busy() {
		t.Fatal("present lines are not busy")
	}
	if !LineStateRemoving.Busy() || !LineStateUpdating.Busy() {
		t.Fatal("in-flight lines are busy")
	}
}
