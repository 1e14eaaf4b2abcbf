package model

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidandcat/bugracer/internal/apperr"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    BugStatus
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"In_Progress", StatusInProgress, false},
		{"in-progress", StatusInProgress, false},
		{"open", StatusPending, false},
		{"resolved", StatusFixed, false},
		{"rejected", StatusRejected, false},
		{"archived", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.True(t, apperr.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleTitleAndParse(t *testing.T) {
	assert.Equal(t, "Developer", RoleDeveloper.Title())
	r, err := ParseRole(" Administrator ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)
	_, err = ParseRole("guest")
	assert.True(t, apperr.IsValidation(err))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "In Progress", StatusInProgress.Label())
	assert.Equal(t, "bug_fixed", StatusActivity(StatusFixed))
}

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name string
		v    interface{ Validate() error }
		ok   bool
	}{
		{"bug ok", BugInput{Name: "Crash", ProjectID: "proj-1"}, true},
		{"bug without name", BugInput{ProjectID: "proj-1"}, false},
		{"bug without project", BugInput{Name: "Crash"}, false},
		{"bug bad priority", BugInput{Name: "Crash", ProjectID: "p", Priority: "urgent"}, false},
		{"patch bad status", BugPatch{Status: Ptr(BugStatus("done"))}, false},
		{"patch empty name", BugPatch{Name: Ptr("  ")}, false},
		{"project ok", ProjectInput{Name: "CRM"}, true},
		{"user bad email", UserInput{Name: "A", Email: "nope", Role: RoleTester}, false},
		{"user bad role", UserInput{Name: "A", Email: "a@b.co", Role: "root"}, false},
		{"registration short password", Registration{Name: "A", Email: "a@b.co", Password: "123"}, false},
		{"registration ok", Registration{Name: "A", Email: "a@b.co", Password: "123456"}, true},
		{"credentials empty", Credentials{Identifier: " ", Secret: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
}

func TestBugPatchApply(t *testing.T) {
	b := Bug{Name: "old", Status: StatusPending, Priority: PriorityLow}
	BugPatch{Status: Ptr(StatusFixed), AssigneeID: Ptr("demo-user-3")}.Apply(&b)
	assert.Equal(t, "old", b.Name)
	assert.Equal(t, StatusFixed, b.Status)
	assert.Equal(t, "demo-user-3", b.AssigneeID)
	assert.Equal(t, PriorityLow, b.Priority)
}

func TestAvatarURL(t *testing.T) {
	u := User{Name: "Demo Admin", Role: RoleAdmin}.WithAvatar()
	assert.True(t, strings.HasPrefix(u.Avatar, "https://ui-avatars.com/api/?"))
	assert.Contains(t, u.Avatar, "background=3b82f6")
	assert.Contains(t, AvatarURL("X", "guest"), "background=6b7280")
}

func TestUserContext(t *testing.T) {
	assert.Nil(t, UserFrom(context.Background()))
	u := &User{ID: "demo-user-1"}
	assert.Same(t, u, UserFrom(WithUser(context.Background(), u)))
}
