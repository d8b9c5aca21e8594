package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chatline/authflow"
	"github.com/chatline/authflow/shell"
)

// view renders flow events on a terminal and follows the navigations they
// request.
type view struct {
	client *authflow.Client
	out    io.Writer
	router *shell.Router
	routes chan string
}

func newView(client *authflow.Client, out io.Writer) *view {
	v := &view{
		client: client,
		out:    out,
		routes: make(chan string, 4),
	}
	v.router = shell.NewRouter(shell.NavigatorFunc(func(route string) {
		select {
		case v.routes <- route:
		default:
		}
	}))
	return v
}

func (v *view) render(ev authflow.Event) {
	switch ev.Status.Phase {
	case authflow.PhaseSubmitting:
		fmt.Fprintln(v.out, "Submitting...")
	case authflow.PhaseSucceeded, authflow.PhaseFailed:
		if ev.Status.Message != "" {
			fmt.Fprintln(v.out, ev.Status.Message)
		}
	}
	v.router.Handle(ev)
}

// await blocks until the router navigates.
func (v *view) await(ctx context.Context) (string, error) {
	select {
	case route := <-v.routes:
		fmt.Fprintf(v.out, "Navigating to %s\n", route)
		return route, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (v *view) close() {
	v.router.Stop()
}

// follow takes the link to route and waits for the shell to get there.
func (v *view) follow(ctx context.Context, route string) (string, error) {
	v.router.Go(route)
	return v.await(ctx)
}

// login shows the login view and returns the route the shell moved to.
// Answering a prompt with :register follows the link to the registration view.
func (v *view) login(ctx context.Context, p *prompter, preset loginForm) (string, error) {
	nav := v.client.Config().Navigation
	flow := v.client.NewLoginFlow(authflow.OnEvent(v.render))
	defer flow.Close()

	if preset.Username == "" {
		fmt.Fprintf(v.out, "No account? Enter %s to create one.\n", linkRegister)
	}
	p.links = map[string]string{linkRegister: nav.RegisterRoute}
	creds, err := p.collectLogin(preset)
	p.links = nil

	var link *linkError
	if errors.As(err, &link) {
		flow.Close()
		route, err := v.follow(ctx, link.route)
		if err != nil || route != nav.RegisterRoute {
			return route, err
		}
		return v.register(ctx, p, registerForm{}, true)
	}
	if err != nil {
		return "", err
	}
	if err := flow.Submit(ctx, creds); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return v.await(ctx)
}

// register shows the registration view. With thenLogin, a successful
// registration continues to the login view with the username filled in.
// Answering a prompt with :login follows the link to the login view.
func (v *view) register(ctx context.Context, p *prompter, preset registerForm, thenLogin bool) (string, error) {
	nav := v.client.Config().Navigation
	flow := v.client.NewRegistrationFlow(authflow.OnEvent(v.render))
	defer flow.Close()

	if preset.Username == "" {
		fmt.Fprintf(v.out, "Already registered? Enter %s to log in.\n", linkLogin)
	}
	p.links = map[string]string{linkLogin: nav.LoginRoute}
	creds, err := p.collectRegistration(preset)
	p.links = nil

	var link *linkError
	if errors.As(err, &link) {
		flow.Close()
		route, err := v.follow(ctx, link.route)
		if err != nil || route != nav.LoginRoute {
			return route, err
		}
		return v.login(ctx, p, loginForm{})
	}
	if err != nil {
		return "", err
	}
	if err := flow.Submit(ctx, creds); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	route, err := v.await(ctx)
	if err != nil || !thenLogin || route != nav.LoginRoute {
		return route, err
	}
	return v.login(ctx, p, loginForm{Username: creds.Username})
}
