package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boardgameshare/server/internal/model"
)

func TestCanTransition(t *testing.T) {
	owner := model.Account{ID: 1, Role: model.RoleGameOwner}
	borrower := model.Account{ID: 2, Role: model.RoleUser}
	stranger := model.Account{ID: 3, Role: model.RoleUser}
	ownerRoleOnly := model.Account{ID: 4, Role: model.RoleGameOwner}

	target := Target{OwnerID: owner.ID, PartyID: borrower.ID}

	cases := []struct {
		name      string
		principal model.Account
		action    Action
		want      bool
	}{
		{"owner approves", owner, ActionApproveRequest, true},
		{"borrower cannot approve", borrower, ActionApproveRequest, false},
		{"other game owner cannot approve", ownerRoleOnly, ActionApproveRequest, false},
		{"owner declines", owner, ActionDeclineRequest, true},
		{"stranger cannot decline", stranger, ActionDeclineRequest, false},
		{"requester withdraws own request", borrower, ActionDeleteRequest, true},
		{"owner cannot withdraw request", owner, ActionDeleteRequest, false},
		{"borrower marks returned", borrower, ActionMarkReturned, true},
		{"owner cannot mark returned", owner, ActionMarkReturned, false},
		{"owner disputes", owner, ActionDisputeReturn, true},
		{"borrower disputes", borrower, ActionDisputeReturn, true},
		{"stranger cannot dispute", stranger, ActionDisputeReturn, false},
		{"owner closes", owner, ActionCloseRecord, true},
		{"borrower cannot close", borrower, ActionCloseRecord, false},
		{"host updates event", owner, ActionUpdateEvent, true},
		{"non-host cannot update event", borrower, ActionUpdateEvent, false},
		{"host deletes event", owner, ActionDeleteEvent, true},
		{"attendee deletes own registration", borrower, ActionDeleteRegistration, true},
		{"host cannot delete registration", owner, ActionDeleteRegistration, false},
		{"unknown action denied", owner, Action("bogus"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.principal, target, tc.action))
		})
	}
}

func TestCanTransitionOwnerRoleRequired(t *testing.T) {
	// An account that owns the resource but carries the plain USER role
	// still cannot approve or close; the gate checks role and identity.
	demoted := model.Account{ID: 7, Role: model.RoleUser}
	target := Target{OwnerID: 7, PartyID: 8}
	assert.False(t, CanTransition(demoted, target, ActionApproveRequest))
	assert.False(t, CanTransition(demoted, target, ActionCloseRecord))
	// The host rule for events does not require the owner role.
	assert.True(t, CanTransition(demoted, target, ActionUpdateEvent))
}
