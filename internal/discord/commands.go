package discord

import (
	"context"
	"maps"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rainymusic/internal/command"
	"github.com/rs/zerolog/log"
)

const globalScope = "global"

// HashStore remembers what was last registered so restarts skip the
// Discord API when nothing changed.
type HashStore interface {
	CommandHashes(scope string) (map[string]string, error)
	SetCommandHashes(scope string, hashes map[string]string) error
}

// definitions collects the slash definitions of every registered command.
func definitions(registry *command.Registry) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, cmd := range registry.All() {
		slash, ok := cmd.(command.SlashProvider)
		if !ok {
			continue
		}
		def := slash.SlashDefinition()
		if def == nil {
			continue
		}
		if def.Type == 0 {
			def.Type = discordgo.ChatApplicationCommand
		}
		defs = append(defs, def)
	}
	return defs
}

// changedCommands reports whether defs differ from the stored hashes and
// returns the new hashes.
func changedCommands(defs []*discordgo.ApplicationCommand, stored map[string]string) (bool, map[string]string) {
	wanted := make(map[string]string, len(defs))
	for _, def := range defs {
		wanted[def.Name] = hashCommand(def)
	}
	return !maps.Equal(wanted, stored), wanted
}

// syncCommands registers the slash commands, per guild when guildID is set
// and globally otherwise, overwriting whatever Discord had before.
func (b *Bot) syncCommands(ctx context.Context, appID, guildID string) error {
	scope := guildID
	if scope == "" {
		scope = globalScope
	}
	logger := log.With().Str("component", "commands").Str("scope", scope).Logger()

	defs := definitions(b.commands)
	stored, err := b.hashes.CommandHashes(scope)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read command hashes")
	}

	changed, wanted := changedCommands(defs, stored)
	if !changed {
		logger.Info().Int("commands", len(defs)).Msg("slash commands up to date")
		return nil
	}

	if _, err := b.dg.ApplicationCommandBulkOverwrite(appID, guildID, defs, discordgo.WithContext(ctx)); err != nil {
		return err
	}
	if err := b.hashes.SetCommandHashes(scope, wanted); err != nil {
		logger.Warn().Err(err).Msg("failed to store command hashes")
	}
	logger.Info().Int("commands", len(defs)).Msg("slash commands registered")
	return nil
}
