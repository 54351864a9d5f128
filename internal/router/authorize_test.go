package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name       string
		user       RoleSet
		required   []string
		requireAll bool
		want       bool
	}{
		{name: "no requirement", user: nil, required: nil, want: true},
		{name: "no requirement, require all", user: Roles("GM"), required: []string{}, requireAll: true, want: true},
		{name: "any of, match", user: Roles("GM", "Player"), required: []string{"GM", "Admin"}, want: true},
		{name: "any of, no match", user: Roles("Player"), required: []string{"GM"}, want: false},
		{name: "any of, unresolved roles", user: nil, required: []string{"GM"}, want: false},
		{name: "all of, subset", user: Roles("GM", "Admin", "Player"), required: []string{"GM", "Admin"}, requireAll: true, want: true},
		{name: "all of, missing one", user: Roles("GM"), required: []string{"GM", "Admin"}, requireAll: true, want: false},
		{name: "case sensitive", user: Roles("gm"), required: []string{"GM"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.user, tt.required, tt.requireAll))
		})
	}
}

func TestNewRoleSetMatchesIDAndName(t *testing.T) {
	set := NewRoleSet(Role{ID: "111", Name: "GM"}, Role{ID: "222"})

	assert.True(t, set.Has("111"))
	assert.True(t, set.Has("GM"))
	assert.True(t, set.Has("222"))
	assert.False(t, set.Has(""))
	assert.True(t, Authorize(set, []string{"GM"}, false))
	assert.True(t, Authorize(set, []string{"111", "222"}, true))
}
