package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"todoapp/internal/client"
	"todoapp/internal/todo"
	"todoapp/internal/tui"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
)

func ok(msg string) {
	fmt.Println(successStyle.Render("✔ " + msg))
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✖ "+msg))
}

type commands struct {
	flags *flags

	listJSON bool
}

func (cmd *commands) api() *client.API {
	return client.NewAPI(cmd.flags.Server, nil)
}

func (cmd *commands) all() []*cli.Command {
	return []*cli.Command{
		cmd.listCmd(),
		cmd.addCmd(),
		cmd.toggleCmd(),
		cmd.editCmd(),
		cmd.rmCmd(),
		cmd.tuiCmd(),
	}
}

func (cmd *commands) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List items",
		UsageText: "todo list [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print items as JSON lines",
				Destination: &cmd.listJSON,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *commands) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Create an item",
		UsageText: "todo add <text>",
		Action:    cmd.runAdd,
	}
}

func (cmd *commands) toggleCmd() *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Flip the completed flag of an item",
		UsageText: "todo toggle <id>",
		Action:    cmd.runToggle,
	}
}

func (cmd *commands) editCmd() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change the text of an item",
		UsageText: "todo edit <id> <text>",
		Action:    cmd.runEdit,
	}
}

func (cmd *commands) rmCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Aliases:   []string{"delete"},
		Usage:     "Delete an item",
		UsageText: "todo rm <id>",
		Action:    cmd.runRemove,
	}
}

func (cmd *commands) tuiCmd() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Open the interactive list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "rollback",
				Usage:       "what a failed change restores (item, list)",
				Value:       "item",
				Destination: &cmd.flags.Rollback,
			},
		},
		Action: cmd.runTUI,
	}
}

func (cmd *commands) runList(ctx context.Context, c *cli.Command) error {
	items, err := cmd.api().List(ctx)
	if err != nil {
		return err
	}

	if cmd.listJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	}

	if len(items) == 0 {
		fmt.Println(mutedStyle.Render("no items"))
		return nil
	}
	for _, item := range items {
		box, text := "☐", item.Text
		if item.Completed {
			box, text = successStyle.Render("☑"), doneStyle.Render(item.Text)
		}
		fmt.Printf("%s %s %s\n", box, mutedStyle.Render(fmt.Sprintf("%3d", item.ID)), text)
	}
	return nil
}

func (cmd *commands) runAdd(ctx context.Context, c *cli.Command) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("usage: %s", c.UsageText)
	}
	created, err := cmd.api().Create(ctx, text)
	if err != nil {
		return err
	}
	ok(fmt.Sprintf("added %d: %s", created.ID, created.Text))
	return nil
}

func (cmd *commands) runToggle(ctx context.Context, c *cli.Command) error {
	id, err := idArg(c)
	if err != nil {
		return err
	}
	api := cmd.api()
	current, err := api.Get(ctx, id)
	if err != nil {
		return err
	}
	updated, err := api.Patch(ctx, id, todo.Patch{todo.ReplaceCompleted(!current.Completed)})
	if err != nil {
		return err
	}
	state := "open"
	if updated.Completed {
		state = "completed"
	}
	ok(fmt.Sprintf("%d is %s", updated.ID, state))
	return nil
}

func (cmd *commands) runEdit(ctx context.Context, c *cli.Command) error {
	id, err := idArg(c)
	if err != nil {
		return err
	}
	text := strings.Join(c.Args().Tail(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("usage: %s", c.UsageText)
	}
	updated, err := cmd.api().Patch(ctx, id, todo.Patch{todo.ReplaceText(text)})
	if err != nil {
		return err
	}
	ok(fmt.Sprintf("updated %d: %s", updated.ID, updated.Text))
	return nil
}

func (cmd *commands) runRemove(ctx context.Context, c *cli.Command) error {
	id, err := idArg(c)
	if err != nil {
		return err
	}
	if err := cmd.api().Delete(ctx, id); err != nil {
		return err
	}
	ok(fmt.Sprintf("deleted %d", id))
	return nil
}

func (cmd *commands) runTUI(ctx context.Context, c *cli.Command) error {
	policy := client.RollbackItem
	switch cmd.flags.Rollback {
	case "item":
	case "list":
		policy = client.RollbackList
	default:
		return fmt.Errorf("unknown rollback policy %q (want item or list)", cmd.flags.Rollback)
	}
	return tui.Run(ctx, cmd.api(), client.WithRollback(policy))
}

func idArg(c *cli.Command) (int, error) {
	raw := c.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("usage: %s", c.UsageText)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
