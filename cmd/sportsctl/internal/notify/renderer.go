// Package notify renders SDK notifications and navigations on the terminal.
package notify

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/pterm/pterm"
)

// Next-step hints printed when a flow navigates.
var routeHints = map[string]string{
	sdk.RouteLogin:                 "sportsctl auth login",
	sdk.RouteLogout:                "sportsctl auth login (your session has ended)",
	sdk.RouteSendVerificationEmail: "sportsctl auth resend-verification",
	sdk.RouteResetPassword:         "sportsctl auth reset-password",
}

// Renderer is both the notification subscriber and the Navigator of the CLI.
type Renderer struct {
	lang  string
	quiet bool

	success pterm.PrefixPrinter
	info    pterm.PrefixPrinter
	failure pterm.PrefixPrinter
	hint    pterm.PrefixPrinter

	mu      sync.Mutex
	visible *sdk.Notification
	route   string
}

var _ sdk.Navigator = (*Renderer)(nil)

// NewRenderer writes to out (os.Stderr when nil). quiet drops info notifications.
func NewRenderer(out io.Writer, lang string, quiet bool) *Renderer {
	if out == nil {
		out = os.Stderr
	}
	return &Renderer{
		lang:    lang,
		quiet:   quiet,
		success: *pterm.Success.WithWriter(out),
		info:    *pterm.Info.WithWriter(out),
		failure: *pterm.Error.WithWriter(out),
		hint:    *pterm.Description.WithWriter(out),
	}
}

// Handle is the sdk.Subscriber.
func (r *Renderer) Handle(n sdk.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.Kind == sdk.NotificationHide {
		r.visible = nil
		return
	}
	r.visible = &n

	text := Translate(r.lang, n.MessageKey)
	switch n.Type {
	case sdk.AlertSuccess:
		r.success.Println(text)
	case sdk.AlertError:
		r.failure.Println(text)
	default:
		if !r.quiet {
			r.info.Println(text)
		}
	}
}

// Navigate records route and prints the matching next step.
func (r *Renderer) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.route = route
	if hint, ok := routeHints[route]; ok {
		r.hint.Println("next: " + hint)
	}
}

// Route returns the latest navigation target.
func (r *Renderer) Route() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.route
}

// Err returns an error when the visible notification is an error.
func (r *Renderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.visible == nil || r.visible.Type != sdk.AlertError {
		return nil
	}
	return errors.New(Translate(r.lang, r.visible.MessageKey))
}
