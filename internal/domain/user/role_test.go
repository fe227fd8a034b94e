package user

import "testing"

func TestRoleCapabilityTable(t *testing.T) {
	cases := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapManageUsers, true},
		{RoleTeacher, CapManageUsers, false},
		{RoleTeacher, CapInstruct, true},
		{RoleTeacher, CapDeleteDocuments, true},
		{RoleStudent, CapView, true},
		{RoleStudent, CapInstruct, false},
		{RoleStudent, CapSubmitCode, true},
		{RoleUser, CapView, false},
		{RolePending, CapAccessWorkspace, false},
	}
	for _, tc := range cases {
		if got := tc.role.Can(tc.cap); got != tc.want {
			t.Fatalf("%s.Can(%s): want=%v got=%v", tc.role, tc.cap, tc.want, got)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, name := range []string{"admin", "Teacher", " student ", "user", "pending"} {
		r, err := ParseRole(name)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", name, err)
		}
		back, _ := ParseRole(r.String())
		if back != r {
			t.Fatalf("round trip %q: got=%s", name, back)
		}
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Fatalf("ParseRole(owner): expected error")
	}
}

func TestRoleScan(t *testing.T) {
	var r Role
	if err := r.Scan([]byte("teacher")); err != nil || r != RoleTeacher {
		t.Fatalf("Scan bytes: role=%s err=%v", r, err)
	}
	if err := r.Scan(nil); err != nil || r != RolePending {
		t.Fatalf("Scan nil: role=%s err=%v", r, err)
	}
	if err := r.Scan(42); err == nil {
		t.Fatalf("Scan int: expected error")
	}
}
