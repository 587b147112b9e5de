package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCompany_IsActive(t *testing.T) {
	tests := []struct {
		status CompanyStatus
		want   bool
	}{
		{CompanyStatusPending, false},
		{CompanyStatusActive, true},
		{CompanyStatusRejected, false},
		{CompanyStatusSuspended, false},
	}

	for _, tt := range tests {
		c := &Company{Status: tt.status}
		if got := c.IsActive(); got != tt.want {
			t.Errorf("IsActive() with status %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestCompany_Approve(t *testing.T) {
	staff := uuid.New()
	c := &Company{
		Status:          CompanyStatusRejected,
		RejectionReason: "incomplete paperwork",
	}

	c.Approve(staff)

	if c.Status != CompanyStatusActive {
		t.Errorf("Status = %s, want %s", c.Status, CompanyStatusActive)
	}
	if c.ApprovedBy == nil || *c.ApprovedBy != staff {
		t.Error("ApprovedBy not recorded")
	}
	if c.ApprovedAt == nil {
		t.Error("ApprovedAt not recorded")
	}
	if c.RejectionReason != "incomplete paperwork" {
		t.Errorf("RejectionReason = %q, want kept for the audit trail", c.RejectionReason)
	}
}

// Transitions are deliberately permissive: approve works from any state,
// including suspended (reinstatement) and rejected (reconsideration).
func TestCompany_Approve_FromAnyState(t *testing.T) {
	staff := uuid.New()
	for _, status := range []CompanyStatus{CompanyStatusPending, CompanyStatusActive, CompanyStatusRejected, CompanyStatusSuspended} {
		c := &Company{Status: status}
		c.Approve(staff)
		if c.Status != CompanyStatusActive {
			t.Errorf("Approve from %s: Status = %s, want %s", status, c.Status, CompanyStatusActive)
		}
	}
}

func TestCompany_Reject(t *testing.T) {
	staff := uuid.New()
	before := time.Now()
	c := &Company{Status: CompanyStatusPending}

	c.Reject(staff, "bad documents")

	if c.Status != CompanyStatusRejected {
		t.Errorf("Status = %s, want %s", c.Status, CompanyStatusRejected)
	}
	if c.RejectionReason != "bad documents" {
		t.Errorf("RejectionReason = %q", c.RejectionReason)
	}
	if c.ApprovedBy == nil || *c.ApprovedBy != staff {
		t.Error("ApprovedBy not recorded")
	}
	if c.ApprovedAt == nil || c.ApprovedAt.Before(before) {
		t.Error("ApprovedAt should record when the rejection was decided")
	}
}

func TestCompany_Suspend(t *testing.T) {
	c := &Company{Status: CompanyStatusActive}
	c.Suspend()
	if c.Status != CompanyStatusSuspended {
		t.Errorf("Status = %s, want %s", c.Status, CompanyStatusSuspended)
	}
}

func TestCompanyNotActiveError_Messages(t *testing.T) {
	tests := []struct {
		status CompanyStatus
		want   string
	}{
		{CompanyStatusPending, "Your company is pending approval. Please wait for admin approval before creating resources."},
		{CompanyStatusRejected, "Your company application was rejected. Please contact support."},
		{CompanyStatusSuspended, "Your company is suspended. Please contact support."},
		{CompanyStatus("weird"), "Your company is not active."},
	}

	for _, tt := range tests {
		err := &CompanyNotActiveError{CompanyID: uuid.New(), Status: tt.status}
		if got := err.Error(); got != tt.want {
			t.Errorf("status %s: Error() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestDuplicateOwnershipError(t *testing.T) {
	err := &DuplicateOwnershipError{CompanyID: uuid.New(), CompanyName: "Autohaus Mitte"}
	if !strings.Contains(err.Error(), "Autohaus Mitte") {
		t.Errorf("Error() = %q, want company name included", err.Error())
	}
}
