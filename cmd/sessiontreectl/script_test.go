package main

import (
	"context"
	"io"
	"os"
	"testing"

	"rsc.io/script"
	"rsc.io/script/scripttest"
)

// sessiontreectlCmd runs the CLI in-process, capturing what it prints to
// stdout for the script's stdout checks, so script tests don't need a built
// binary on PATH. Commands run in the test process's working directory, so
// scripts pass absolute paths such as $WORK.
func sessiontreectlCmd() script.Cmd {
	return script.Command(
		script.CmdUsage{
			Summary: "run sessiontreectl",
			Args:    "args...",
		},
		func(s *script.State, args ...string) (script.WaitFunc, error) {
			r, w, err := os.Pipe()
			if err != nil {
				return nil, err
			}
			stdout := os.Stdout
			os.Stdout = w
			rootCmd.SetArgs(args)
			execErr := rootCmd.Execute()
			os.Stdout = stdout
			w.Close()
			out, _ := io.ReadAll(r)
			r.Close()
			return func(*script.State) (string, string, error) { return string(out), "", execErr }, nil
		},
	)
}

func TestScripts(t *testing.T) {
	cmds := script.DefaultCmds()
	cmds["sessiontreectl"] = sessiontreectlCmd()

	engine := &script.Engine{
		Cmds:  cmds,
		Conds: script.DefaultConds(),
	}
	scripttest.Test(t, context.Background(), engine, os.Environ(), "testdata/script/*.txt")
}
