// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Argument parsing for the innerbook CLI.
//
// Commands:
//   chat (default)    Interactive questionnaire chat
//   reports           List reports for the current user
//   view ID           Show one report
//   unlock ID CODE    Redeem an invite code for a report
//   login USERNAME    Record the local login identity
//   logout            Clear the local login identity
//   seed-code CODE    Store an invite code (operator use)
//   version           Print version information
//   help              Print usage

package cli

import (
	"strings"
)

// Command identifies the requested top-level command.
type Command int

const (
	CmdChat Command = iota
	CmdReports
	CmdView
	CmdUnlock
	CmdLogin
	CmdLogout
	CmdSeedCode
	CmdVersion
	CmdHelp
)

// Args holds the parsed flags and positional arguments.
type Args struct {
	// Mode selects the questionnaire scenario for chat.
	Mode string

	// ConfigPath overrides the default config file location.
	ConfigPath string

	// Mock forces the offline scripted streamer.
	Mock bool

	// Quiet suppresses banners and per-round hints.
	Quiet bool

	// Positional carries the command's positional arguments, without
	// the command word itself.
	Positional []string
}

// commandWords maps command names and aliases to commands.
var commandWords = map[string]Command{
	"chat":      CmdChat,
	"reports":   CmdReports,
	"list":      CmdReports,
	"view":      CmdView,
	"show":      CmdView,
	"unlock":    CmdUnlock,
	"login":     CmdLogin,
	"logout":    CmdLogout,
	"seed-code": CmdSeedCode,
	"version":   CmdVersion,
	"help":      CmdHelp,
}

// Parse splits raw arguments (without the program name) into a command
// and its flags. An unknown first word falls back to the chat command
// with everything treated as flags/positionals.
func Parse(raw []string) (Command, Args) {
	cmd := CmdChat
	var args Args

	rest := raw
	if len(raw) > 0 && !strings.HasPrefix(raw[0], "-") {
		if c, ok := commandWords[strings.ToLower(raw[0])]; ok {
			cmd = c
			rest = raw[1:]
		}
	}

	i := 0
	for i < len(rest) {
		arg := rest[i]

		if !strings.HasPrefix(arg, "-") {
			args.Positional = append(args.Positional, arg)
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		value := ""
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name, value = name[:eq], name[eq+1:]
		}

		switch name {
		case "mode", "m":
			if value == "" && i+1 < len(rest) {
				value = rest[i+1]
				i++
			}
			args.Mode = value
		case "config", "c":
			if value == "" && i+1 < len(rest) {
				value = rest[i+1]
				i++
			}
			args.ConfigPath = value
		case "mock":
			args.Mock = value != "false"
		case "quiet", "q":
			args.Quiet = value != "false"
		case "help", "h":
			cmd = CmdHelp
		case "version", "v":
			cmd = CmdVersion
		}
		i++
	}

	return cmd, args
}
