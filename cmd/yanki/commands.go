package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"

	"yanki-connect/internal/adapter/tui/deckview"
	"yanki-connect/internal/domain"
	"yanki-connect/internal/infra/config"
	"yanki-connect/internal/usecase/scheduling"
	"yanki-connect/pkg/ankiconnect"
)

func runInvoke(ctx context.Context, args []string, stdin io.Reader, out io.Writer) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	return invoke(ctx, rt.client, args, stdin, out)
}

// invoke sends one raw action and prints the envelope. An in-band error is
// printed too and then returned so the exit status reflects it.
func invoke(ctx context.Context, client *ankiconnect.Client, args []string, stdin io.Reader, out io.Writer) error {
	if len(args) == 0 || len(args) > 2 {
		return domain.NewDomainError("invoke", domain.ErrInvalidInput, "usage: yanki invoke ACTION [JSON|-]")
	}
	action := args[0]

	var params any
	if len(args) == 2 {
		raw := []byte(args[1])
		if args[1] == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return fmt.Errorf("read params: %w", err)
			}
			raw = bytes.TrimSpace(data)
		}
		if !json.Valid(raw) {
			return domain.NewDomainError("invoke", domain.ErrInvalidInput, "params are not valid JSON")
		}
		params = json.RawMessage(raw)
	} else if !ankiconnect.IsParameterless(action) && ankiconnect.IsKnown(action) {
		// Actions whose params are all optional, such as apiReflect.
		params = json.RawMessage("{}")
	}

	env, err := client.Invoke(ctx, action, params)
	if err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	fmt.Fprintln(out, string(pretty))

	if env.Failed() {
		return &ankiconnect.ActionError{Action: action, Message: *env.Error}
	}
	return nil
}

func runActions(args []string, out io.Writer) error {
	groups := ankiconnect.Groups()
	if len(args) > 0 {
		g := ankiconnect.Group(strings.ToLower(args[0]))
		if len(ankiconnect.ActionsIn(g)) == 0 {
			return domain.NewDomainError("actions", domain.ErrInvalidInput,
				fmt.Sprintf("unknown group %q (want one of %s)", args[0], groupList()))
		}
		groups = []ankiconnect.Group{g}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tGROUP\tPARAMS")
	for _, g := range groups {
		for _, name := range ankiconnect.ActionsIn(g) {
			params := "yes"
			if ankiconnect.IsParameterless(name) {
				params = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, g, params)
		}
	}
	return w.Flush()
}

func groupList() string {
	names := make([]string, 0, len(ankiconnect.Groups()))
	for _, g := range ankiconnect.Groups() {
		names = append(names, string(g))
	}
	return strings.Join(names, ", ")
}

func runDecks(ctx context.Context, out io.Writer) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	return printDecks(ctx, rt.client.Deck, out)
}

func printDecks(ctx context.Context, src deckview.Source, out io.Writer) error {
	rows, err := deckview.LoadRows(ctx, src)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "The collection has no decks.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DECK\tNEW\tLEARN\tDUE\tTOTAL")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", r.Name, r.New, r.Learn, r.Review, r.Total)
	}
	return w.Flush()
}

func runBrowse(ctx context.Context) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	model := deckview.New(rt.client.Deck, rt.client.Endpoint())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func runLaunch(ctx context.Context, out io.Writer) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	th := rt.client.Throttle()
	if !th.Supported() {
		return domain.NewDomainError("launch", domain.ErrLaunchUnavailable, "this platform cannot start Anki")
	}
	before := th.Attempts()
	if err := rt.client.Launch(ctx); err != nil {
		return err
	}
	if th.Attempts() == before {
		fmt.Fprintln(out, "Launch skipped: a recent attempt is still cooling down.")
		return nil
	}
	fmt.Fprintf(out, "Launch requested (%d attempts left this session).\n", th.Remaining())
	return nil
}

func runSchedule(ctx context.Context) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if !rt.cfg.Scheduler.Enabled || len(rt.cfg.Scheduler.Tasks) == 0 {
		return domain.NewDomainError("schedule", domain.ErrInvalidInput,
			"no scheduled tasks; set scheduler.enabled and scheduler.tasks in the config")
	}

	s, err := newScheduler(rt.client, rt.cfg.Scheduler, rt.log)
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	rt.log.Info("scheduler running", "tasks", len(rt.cfg.Scheduler.Tasks))

	<-ctx.Done()
	rt.log.Info("shutting down scheduler")
	return s.Stop()
}

func newScheduler(inv scheduling.Invoker, cfg config.SchedulerConfig, log *slog.Logger) (*scheduling.Scheduler, error) {
	s := scheduling.NewScheduler(inv, log)
	for _, t := range cfg.Tasks {
		err := s.AddTask(scheduling.Task{
			Name:     t.Name,
			Schedule: t.Schedule,
			Action:   t.Action,
			Params:   t.Params,
			OneShot:  t.OneShot,
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func runEncrypt(args []string, out io.Writer) error {
	if len(args) != 1 {
		return domain.NewDomainError("encrypt", domain.ErrInvalidInput, "usage: yanki encrypt VALUE")
	}
	passphrase := os.Getenv("YANKI_CONFIG_KEY")
	if passphrase == "" {
		return domain.NewDomainError("encrypt", domain.ErrInvalidInput, "YANKI_CONFIG_KEY is not set")
	}
	enc, err := config.EncryptValue(args[0], passphrase)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "enc:%s\n", enc)
	return nil
}
