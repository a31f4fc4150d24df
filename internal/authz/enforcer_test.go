// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package authz

import (
	"testing"

	"github.com/tomtom215/donationledger/internal/models"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	return e
}

func TestEnforcePolicy(t *testing.T) {
	t.Parallel()
	e := newTestEnforcer(t)

	tests := []struct {
		role   models.Role
		object string
		action string
		want   bool
	}{
		{models.RoleAdmin, ObjectDonations, ActionRead, true},
		{models.RoleAdmin, ObjectDonations, ActionWrite, true},
		{models.RoleAdmin, ObjectAccounts, ActionDelete, true},
		{models.RoleAdmin, ObjectOwnDonations, ActionRead, true},

		{models.RoleSupervisor, ObjectDonations, ActionRead, true},
		{models.RoleSupervisor, ObjectDonations, ActionWrite, false},
		{models.RoleSupervisor, ObjectAccounts, ActionDelete, false},
		{models.RoleSupervisor, ObjectOwnDonations, ActionRead, true},

		{models.RoleCommon, ObjectDonations, ActionRead, false},
		{models.RoleCommon, ObjectAccounts, ActionDelete, false},
		{models.RoleCommon, ObjectOwnDonations, ActionRead, true},

		{"Root", ObjectDonations, ActionRead, false},
		{"", ObjectOwnDonations, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.object+"/"+tt.action, func(t *testing.T) {
			t.Parallel()
			got, err := e.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestLoadPolicyRejectsMalformedLines(t *testing.T) {
	t.Parallel()
	e := newTestEnforcer(t)
	if err := loadPolicy(e.enforcer, "p, Admin, donations"); err == nil {
		t.Error("loadPolicy() should reject a short p line")
	}
	if err := loadPolicy(e.enforcer, "# only a comment\n\n"); err != nil {
		t.Errorf("loadPolicy() on comments = %v", err)
	}
}
