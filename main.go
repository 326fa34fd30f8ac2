// innerbook - A questionnaire chat that ends in a locked talent report.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/innerbook/internal/cli"
	"github.com/jeranaias/innerbook/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	var err error
	switch cmd {
	case cli.CmdChat:
		err = cli.RunChat(args)
	case cli.CmdReports:
		err = cli.RunReports(args)
	case cli.CmdView:
		err = cli.RunView(args)
	case cli.CmdUnlock:
		err = cli.RunUnlock(args)
	case cli.CmdLogin:
		err = cli.RunLogin(args)
	case cli.CmdLogout:
		err = cli.RunLogout(args)
	case cli.CmdSeedCode:
		err = cli.RunSeedCode(args)
	case cli.CmdVersion:
		cli.RunVersion()
	case cli.CmdHelp:
		cli.RunHelp()
	default:
		err = cli.RunChat(args)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, styles.RenderError(err.Error()))
		os.Exit(1)
	}
}
