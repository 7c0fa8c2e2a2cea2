package cmd

import (
	"bytes"
	"testing"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"serve", "ask", "ingest", "sessions", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSessionsSubcommands(t *testing.T) {
	for _, name := range []string{"stats", "clear"} {
		found := false
		for _, c := range sessionsCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("sessions subcommand %q not registered", name)
		}
	}
}

func TestHelpOutput(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--help"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute(--help) error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("serve")) {
		t.Error("help output does not mention serve command")
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"ask"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("ask with no arguments succeeded, want error")
	}
}
