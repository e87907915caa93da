package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/velvetcove/amora/internal/character"
	"github.com/velvetcove/amora/internal/config"
	"github.com/velvetcove/amora/internal/core"
	"github.com/velvetcove/amora/internal/service/roleplay"
	"github.com/velvetcove/amora/pkg/log"
)

const localUserID = "cli-local"

// Chat is the line-based local transport. One user, one character at a time,
// switched with /persona.
type Chat struct {
	cfg      *config.AppConfig
	pipeline *roleplay.Pipeline
	registry *character.Registry
	char     core.Character
	in       io.Reader
	out      io.Writer
}

func NewChat(cfg *config.AppConfig, pipeline *roleplay.Pipeline, registry *character.Registry) (*Chat, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	return &Chat{
		cfg:      cfg,
		pipeline: pipeline,
		registry: registry,
		char:     registry.FromName(cfg.DefaultCharacter),
		in:       os.Stdin,
		out:      os.Stdout,
	}, nil
}

func (c *Chat) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("character", c.char.Slug()).Msg("cli chat started")

	fmt.Fprintf(c.out, "Talking to %s. Type 'exit' to quit, /persona <name> to switch.\n", c.char.DisplayName())

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(c.out, ">>> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return nil // EOF
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/persona") {
			c.switchPersona(strings.TrimSpace(strings.TrimPrefix(line, "/persona")))
			continue
		}

		reply, err := c.pipeline.Generate(ctx, localUserID, c.char, line, c.cfg.Model)
		if err != nil {
			logger.Error().Err(err).Msg("generation failed")
			if reply == "" {
				fmt.Fprintf(c.out, "Error: %v\n", err)
				continue
			}
		}
		fmt.Fprintf(c.out, "\n%s\n\n", reply)
	}
}

func (c *Chat) Shutdown(ctx context.Context) error {
	return nil
}

func (c *Chat) switchPersona(name string) {
	if name == "" {
		var names []string
		for _, ch := range c.registry.All() {
			names = append(names, ch.DisplayName())
		}
		fmt.Fprintf(c.out, "Characters: %s\n", strings.Join(names, ", "))
		return
	}
	c.char = c.registry.FromName(name)
	fmt.Fprintf(c.out, "Now talking to %s.\n", c.char.DisplayName())
}
