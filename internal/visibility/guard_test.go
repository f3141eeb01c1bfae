package visibility

import (
	"testing"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/types"
)

// TestAuthorizeRead tests the direct-read gate
func TestAuthorizeRead(t *testing.T) {
	resolver, ids := newTestResolver()
	guard := NewGuard(resolver)

	officer := &auth.Actor{ID: types.NewID(), Role: auth.RoleOfficer, Teams: ids[:1]}
	manager := &auth.Actor{ID: types.NewID(), Role: auth.RoleManager}
	teamless := &auth.Actor{ID: types.NewID(), Role: auth.RoleOfficer}

	tests := []struct {
		name     string
		actor    *auth.Actor
		caseType domain.CaseType
		wantDeny bool
	}{
		{"Manager sees anything", manager, domain.CaseTypeHighHedges, false},
		{"Officer sees team case type", officer, domain.CaseTypeFlyTipping, false},
		{"Officer denied outside scope", officer, domain.CaseTypeHighHedges, true},
		{"Teamless officer denied everything", teamless, domain.CaseTypeFlyTipping, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.AuthorizeRead(tt.actor, tt.caseType)
			if tt.wantDeny {
				if err == nil {
					t.Fatal("Expected denial, got nil")
				}
				appErr, ok := err.(*errors.AppError)
				if !ok {
					t.Fatalf("Expected AppError, got %T", err)
				}
				if appErr.HTTPStatus != 403 {
					t.Errorf("Expected 403, got %d", appErr.HTTPStatus)
				}
				if appErr.Message != "not authorized to view this case type" {
					t.Errorf("Unexpected denial message: %s", appErr.Message)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

// TestAuthorizeMutation tests the composed mutation gate
func TestAuthorizeMutation(t *testing.T) {
	resolver, ids := newTestResolver()
	guard := NewGuard(resolver)

	officer := &auth.Actor{ID: types.NewID(), Role: auth.RoleOfficer, Teams: ids[:1]}
	if err := guard.AuthorizeMutation(officer, domain.CaseTypeFlyTipping); err != nil {
		t.Errorf("Expected officer to mutate visible case, got %v", err)
	}
	if err := guard.AuthorizeMutation(officer, domain.CaseTypeHighHedges); err == nil {
		t.Error("Expected denial mutating invisible case")
	}

	unknown := &auth.Actor{ID: types.NewID(), Role: auth.Role("contractor"), Teams: ids}
	if err := guard.AuthorizeMutation(unknown, domain.CaseTypeFlyTipping); err == nil {
		t.Error("Expected denial for unknown role")
	}
}

// TestScopeForList tests the list scope
func TestScopeForList(t *testing.T) {
	resolver, ids := newTestResolver()
	guard := NewGuard(resolver)

	allVisible, scope := guard.ScopeForList(&auth.Actor{ID: types.NewID(), Role: auth.RoleSupervisor})
	if !allVisible || scope != nil {
		t.Errorf("Expected supervisor scope to be everything, got %v %v", allVisible, scope)
	}

	allVisible, scope = guard.ScopeForList(&auth.Actor{ID: types.NewID(), Role: auth.RoleOfficer, Teams: ids[1:]})
	if allVisible {
		t.Error("Expected officer to have bounded scope")
	}
	if len(scope) != 2 {
		t.Errorf("Expected 2 case types in scope, got %v", scope)
	}

	allVisible, scope = guard.ScopeForList(&auth.Actor{ID: types.NewID(), Role: auth.RoleOfficer})
	if allVisible || len(scope) != 0 {
		t.Errorf("Expected teamless officer scope to be empty, got %v %v", allVisible, scope)
	}
}
