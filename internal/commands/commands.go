// Package commands holds the commands every bot ships with.
package commands

import (
	"time"

	"github.com/keshon/dispatchbot/internal/discovery"
	"github.com/keshon/dispatchbot/internal/router"
	"github.com/rs/zerolog"
)

const categoryInformation = "Information"

// Options feeds the built-in commands.
type Options struct {
	Prefix         string
	TalkingToMe    string
	TalkingAboutMe string
	// Latency reports the gateway round trip; nil leaves it out of ping.
	Latency func() time.Duration
	// Catalog lists the registered commands for help. It is read at call time,
	// after the registry exists.
	Catalog func() []*router.Command
}

// Builtins returns ping, help and greet.
func Builtins(opts Options) []*router.Command {
	return []*router.Command{
		Ping(opts.Latency),
		Help(opts.Catalog, opts.Prefix),
		Greet(opts.TalkingToMe, opts.TalkingAboutMe),
	}
}

// NewRegistry builds the registry from the built-ins and the manifests in dir.
// Manifest files that cannot be read are logged and skipped.
func NewRegistry(log zerolog.Logger, opts Options, dir string) *router.Registry {
	var reg *router.Registry
	if opts.Catalog == nil {
		opts.Catalog = func() []*router.Command { return reg.Commands() }
	}
	cmds := Builtins(opts)

	found, err := discovery.LoadDir(dir)
	if err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("Some command manifests were skipped")
	}
	if dir != "" {
		log.Info().Str("dir", dir).Int("count", len(found)).Msg("Command manifests loaded")
	}

	reg = router.NewRegistry(log, append(cmds, found...)...)
	return reg
}
