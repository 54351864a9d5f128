package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/keshon/dispatchbot/internal/router"
)

type memberFetcher func(ctx context.Context, guildID, userID string) (router.RoleSet, error)

// RoleDirectory resolves member roles from the gateway state or the REST API,
// keeping answers for a short while.
type RoleDirectory struct {
	fetch memberFetcher
	cache *expirable.LRU[string, router.RoleSet]
}

// NewRoleDirectory returns a directory backed by s.
func NewRoleDirectory(s *discordgo.Session, size int, ttl time.Duration) *RoleDirectory {
	return newRoleDirectory(sessionMemberRoles(s), size, ttl)
}

func newRoleDirectory(fetch memberFetcher, size int, ttl time.Duration) *RoleDirectory {
	if size <= 0 {
		size = 1024
	}
	return &RoleDirectory{
		fetch: fetch,
		cache: expirable.NewLRU[string, router.RoleSet](size, nil, ttl),
	}
}

func (d *RoleDirectory) MemberRoles(ctx context.Context, guildID, userID string) (router.RoleSet, error) {
	key := guildID + ":" + userID
	if roles, ok := d.cache.Get(key); ok {
		return roles, nil
	}
	roles, err := d.fetch(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	d.cache.Add(key, roles)
	return roles, nil
}

func sessionMemberRoles(s *discordgo.Session) memberFetcher {
	return func(ctx context.Context, guildID, userID string) (router.RoleSet, error) {
		member, err := s.State.Member(guildID, userID)
		if err != nil || member == nil {
			member, err = s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
			if err != nil {
				return nil, fmt.Errorf("fetch member %s in guild %s: %w", userID, guildID, err)
			}
		}
		return memberRoles(guildID, member.Roles, stateRoleName(s)), nil
	}
}

// stateRoleName looks role names up in the gateway cache only.
func stateRoleName(s *discordgo.Session) roleNamer {
	return func(guildID, roleID string) string {
		if s == nil || s.State == nil {
			return ""
		}
		role, err := s.State.Role(guildID, roleID)
		if err != nil || role == nil {
			return ""
		}
		return role.Name
	}
}
