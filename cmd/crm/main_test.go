package main

import (
	"testing"
)

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	want := map[string]bool{"serve": false, "migrate": false, "user": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestUserCreate_RequiredFlags(t *testing.T) {
	for _, name := range []string{"username", "email", "password"} {
		f := userCreateCmd.Flags().Lookup(name)
		if f == nil {
			t.Fatalf("flag %q missing", name)
		}
		if _, ok := f.Annotations["cobra_annotation_bash_completion_one_required_flag"]; !ok {
			t.Errorf("flag %q should be required", name)
		}
	}
	if def := userCreateCmd.Flags().Lookup("role").DefValue; def != "admin" {
		t.Errorf("expected admin default role, got %q", def)
	}
}
