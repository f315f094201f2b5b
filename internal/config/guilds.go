package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GuildConfig describes where the bot operates inside one guild.
type GuildConfig struct {
	GuildID          string   `yaml:"guild_id"`
	AnchorChannelID  string   `yaml:"anchor_channel_id"`
	ParentCategoryID string   `yaml:"parent_category_id"`
	RequiredRoleID   string   `yaml:"required_role_id"`
	ResponderRoleID  string   `yaml:"responder_role_id"`
	AuditChannelID   string   `yaml:"audit_channel_id"`
	WhitelistRoleIDs []string `yaml:"whitelist_role_ids"`
}

type guildsFile struct {
	Guilds []GuildConfig `yaml:"guilds"`
}

// LoadGuilds parses the per-guild YAML file at path.
func LoadGuilds(path string) ([]GuildConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read guilds file: %w", err)
	}
	return ParseGuilds(raw)
}

// ParseGuilds decodes and validates per-guild configuration.
func ParseGuilds(raw []byte) ([]GuildConfig, error) {
	var file guildsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode guilds file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Guilds))
	for i := range file.Guilds {
		g := &file.Guilds[i]
		g.GuildID = strings.TrimSpace(g.GuildID)
		if g.GuildID == "" {
			return nil, fmt.Errorf("guild #%d: guild_id required", i)
		}
		if strings.TrimSpace(g.AnchorChannelID) == "" {
			return nil, fmt.Errorf("guild %s: anchor_channel_id required", g.GuildID)
		}
		if _, dup := seen[g.GuildID]; dup {
			return nil, fmt.Errorf("guild %s: configured twice", g.GuildID)
		}
		seen[g.GuildID] = struct{}{}
	}
	return file.Guilds, nil
}
