package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/primatebot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/predict", commands.Command{
		Handler:     noop,
		Description: "классификация изображения",
		Aliases:     []string{"classify"},
	})

	if _, _, ok := reg.LookupCommand("/predict"); !ok {
		t.Fatalf("expected /predict to resolve")
	}
	if _, _, ok := reg.LookupCommand("predict"); !ok {
		t.Fatalf("expected bare name to resolve")
	}
	key, _, ok := reg.LookupCommand("/classify")
	if !ok || key != "/predict" {
		t.Fatalf("expected alias to resolve to /predict, got %q ok=%v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("/missing"); ok {
		t.Fatalf("unexpected resolution for unknown command")
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	reg := NewRegistry()

	reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "x"})
	reg.RegisterCommand("/nohandler", commands.Command{Description: "x"})
	reg.RegisterCommand("/nodesc", commands.Command{Handler: noop})

	if n := len(reg.Commands()); n != 0 {
		t.Fatalf("expected no registered commands, got %d", n)
	}
}

func TestRegistryDuplicateKeepsFirst(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "first"})
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "second"})

	_, cmd, ok := reg.LookupCommand("/start")
	if !ok || cmd.Description != "first" {
		t.Fatalf("expected first registration to win, got %+v ok=%v", cmd, ok)
	}
}

func TestListCommandsHidesAdmin(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "a"})
	reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "b", AdminOnly: true, Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("expected only /start visible, got %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 2 {
		t.Fatalf("expected 2 commands total, got %d", len(all))
	}
}
