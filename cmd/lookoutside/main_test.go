package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kjstillabower/lookoutside/internal/bot"
	"github.com/kjstillabower/lookoutside/internal/validation"
)

type recordingDispatcher struct {
	got  bot.Request
	msgs []bot.Message
	err  error
}

func (d *recordingDispatcher) Handle(ctx context.Context, req bot.Request) ([]bot.Message, error) {
	d.got = req
	return d.msgs, d.err
}

func TestRunCommand_PrintsReplies(t *testing.T) {
	d := &recordingDispatcher{msgs: []bot.Message{
		{Target: bot.TargetChannel, Text: "Seattle, Washington, US: 12°C (54°F)"},
		{Target: bot.TargetUser, Text: "hint"},
	}}
	var out bytes.Buffer

	if err := runCommand(context.Background(), &out, d, " alice ", false, "weather seattle"); err != nil {
		t.Fatalf("runCommand() error = %v", err)
	}
	want := bot.Request{User: "alice", Text: "weather seattle"}
	if diff := cmp.Diff(want, d.got); diff != "" {
		t.Errorf("request (-want +got):\n%s", diff)
	}
	wantOut := "[channel] Seattle, Washington, US: 12°C (54°F)\n[user] hint\n"
	if out.String() != wantOut {
		t.Errorf("output = %q, want %q", out.String(), wantOut)
	}
}

func TestRunCommand_InvalidUser(t *testing.T) {
	d := &recordingDispatcher{}
	err := runCommand(context.Background(), &bytes.Buffer{}, d, "   ", true, "wset units metric")
	if !errors.Is(err, validation.ErrUserEmpty) {
		t.Fatalf("runCommand() error = %v, want ErrUserEmpty", err)
	}
}

func TestRunCommand_UnknownCommand(t *testing.T) {
	d := &recordingDispatcher{err: bot.ErrUnknownCommand}
	err := runCommand(context.Background(), &bytes.Buffer{}, d, "alice", false, "dance")
	if !errors.Is(err, bot.ErrUnknownCommand) {
		t.Fatalf("runCommand() error = %v, want ErrUnknownCommand", err)
	}
}

func TestRootCmd_RunRequiresUser(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "weather", "seattle"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "user") {
		t.Fatalf("Execute() error = %v, want required --user flag error", err)
	}
}

func TestRootCmd_Providers(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"providers"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{
		"geocoding:   google, locationiq",
		"weather:     openweathermap",
		"air_quality: airnow",
		"store:       memory, sqlite, postgres, memcached",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("providers output missing %q:\n%s", want, out.String())
		}
	}
}
