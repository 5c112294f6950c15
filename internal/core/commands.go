package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/keepmind9/mpbot/internal/bot"
	"github.com/keepmind9/mpbot/internal/logger"
	"github.com/keepmind9/mpbot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// specialCommands are matched exactly (case-sensitive) after trimming spaces.
// Only "echo" takes arguments.
var specialCommands = map[string]struct{}{
	"help":   {},
	"ping":   {},
	"whoami": {},
	"menu":   {},
	"echo":   {},
}

// isSpecialCommand checks if input is a special command.
// Returns: (commandName, isCommand, remainingText)
func isSpecialCommand(input string) (string, bool, string) {
	if len(input) > constants.MaxCommandInputLength {
		return "", false, ""
	}

	input = strings.TrimSpace(input)
	if _, exists := specialCommands[input]; exists {
		return input, true, ""
	}

	if rest, ok := strings.CutPrefix(input, "echo "); ok {
		return "echo", true, strings.TrimSpace(rest)
	}

	return "", false, ""
}

// CommandHandler answers a small set of commands and echoes everything else
type CommandHandler struct {
	config *Config
}

// NewCommandHandler creates the built-in handler
func NewCommandHandler(config *Config) *CommandHandler {
	return &CommandHandler{config: config}
}

// Handle implements Handler
func (h *CommandHandler) Handle(ctx context.Context, msg bot.IncomingMessage, user bot.RemoteUser) ([]Reply, error) {
	cmd, ok, rest := isSpecialCommand(msg.Text)
	if !ok {
		if strings.TrimSpace(msg.Text) == "" {
			return nil, nil
		}
		return []Reply{{Message: bot.Text(msg.Text)}}, nil
	}

	logger.WithFields(logrus.Fields{
		"command": cmd,
		"sender":  msg.Sender,
	}).Info("handle-special-command")

	switch cmd {
	case "help":
		return []Reply{{Message: bot.Text(helpText)}}, nil
	case "ping":
		return []Reply{{Message: bot.Text("pong")}}, nil
	case "whoami":
		return []Reply{{Message: bot.Text(h.whoami(msg, user))}}, nil
	case "menu":
		// Buttons are not rendered by the platform driver; the text lists the choices.
		return []Reply{{Message: bot.NewQuestion(
			"What do you need?\n1. help\n2. whoami\n3. ping",
			bot.Button{Text: "help", Value: "help"},
			bot.Button{Text: "whoami", Value: "whoami"},
			bot.Button{Text: "ping", Value: "ping"},
		)}}, nil
	case "echo":
		if rest == "" {
			return []Reply{{Message: bot.Text("Usage: echo <text>")}}, nil
		}
		return []Reply{{Message: bot.Text(rest)}}, nil
	}

	return nil, fmt.Errorf("unhandled command %q", cmd)
}

func (h *CommandHandler) whoami(msg bot.IncomingMessage, user bot.RemoteUser) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sender: %s\n", msg.Sender)
	if user.ID != "" {
		fmt.Fprintf(&b, "User ID: %s\n", user.ID)
	}
	if user.DisplayName != "" {
		fmt.Fprintf(&b, "Name: %s\n", user.DisplayName)
	}
	if h.config != nil && h.config.IsAdmin(msg.Sender) {
		b.WriteString("Role: admin")
	} else {
		b.WriteString("Role: user")
	}
	return b.String()
}

const helpText = `Available commands:
help   - show this message
ping   - check the bot is alive
whoami - show what the bot knows about you
menu   - show the command menu
echo <text> - repeat text

Anything else is echoed back.`
