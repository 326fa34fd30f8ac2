// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"
)

func TestParseDefaultsToChat(t *testing.T) {
	cmd, args := Parse(nil)
	if cmd != CmdChat {
		t.Errorf("cmd = %v, want CmdChat", cmd)
	}
	if args.Mode != "" || args.Mock || args.Quiet {
		t.Errorf("args = %+v, want zero value", args)
	}
}

func TestParseCommandWords(t *testing.T) {
	cases := []struct {
		raw  []string
		want Command
	}{
		{[]string{"chat"}, CmdChat},
		{[]string{"reports"}, CmdReports},
		{[]string{"list"}, CmdReports},
		{[]string{"view", "r_1"}, CmdView},
		{[]string{"unlock", "r_1", "CODE"}, CmdUnlock},
		{[]string{"login", "dora"}, CmdLogin},
		{[]string{"logout"}, CmdLogout},
		{[]string{"seed-code", "CODE"}, CmdSeedCode},
		{[]string{"version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
	}
	for _, c := range cases {
		cmd, _ := Parse(c.raw)
		if cmd != c.want {
			t.Errorf("Parse(%v) = %v, want %v", c.raw, cmd, c.want)
		}
	}
}

func TestParseFlags(t *testing.T) {
	cmd, args := Parse([]string{"chat", "--mode", "understand-others", "--mock", "-q", "--config=/tmp/c.toml"})
	if cmd != CmdChat {
		t.Fatalf("cmd = %v", cmd)
	}
	if args.Mode != "understand-others" {
		t.Errorf("mode = %q", args.Mode)
	}
	if !args.Mock || !args.Quiet {
		t.Errorf("mock=%v quiet=%v, want both true", args.Mock, args.Quiet)
	}
	if args.ConfigPath != "/tmp/c.toml" {
		t.Errorf("config = %q", args.ConfigPath)
	}
}

func TestParsePositionalsFollowCommand(t *testing.T) {
	cmd, args := Parse([]string{"unlock", "r_42", "INVITE-1"})
	if cmd != CmdUnlock {
		t.Fatalf("cmd = %v", cmd)
	}
	if len(args.Positional) != 2 || args.Positional[0] != "r_42" || args.Positional[1] != "INVITE-1" {
		t.Errorf("positional = %v", args.Positional)
	}
}

func TestParseHelpAndVersionFlags(t *testing.T) {
	if cmd, _ := Parse([]string{"--help"}); cmd != CmdHelp {
		t.Errorf("--help → %v, want CmdHelp", cmd)
	}
	if cmd, _ := Parse([]string{"-v"}); cmd != CmdVersion {
		t.Errorf("-v → %v, want CmdVersion", cmd)
	}
}

func TestCouldBeMarker(t *testing.T) {
	for _, s := range []string{"", "[", "[Rep", "[repor"} {
		if !couldBeMarker(s) {
			t.Errorf("couldBeMarker(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"[Report]", "[Report]#", "你好", "[Rx"} {
		if couldBeMarker(s) {
			t.Errorf("couldBeMarker(%q) = true, want false", s)
		}
	}
}
