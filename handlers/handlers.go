// Package handlers exposes the read-only status surface of the daemon.
package handlers

import (
	"sort"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"github.com/mailwatch/mailwatch/pkg/base"
)

// MailboxLister reports the current state of the watched mailboxes.
type MailboxLister interface {
	GetMailboxes() map[string]base.MailboxState
}

// NewApp builds the fiber application serving the status pages.
func NewApp(lister MailboxLister) *fiber.App {
	engine := html.New("./views", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(otelfiber.Middleware())

	app.Get("/", Home)
	app.Get("/mailboxes", Mailboxes(lister))
	app.Get("/api/mailboxes", MailboxesJSON(lister))
	app.Use(NotFound)

	return app
}

// Home renders the home view
func Home(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Title": "mailwatch",
	})
}

// NotFound renders the 404 view
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("404", nil)
}

// Mailboxes renders the mailbox watermark table
func Mailboxes(lister MailboxLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Render("mailboxes/index", fiber.Map{
			"Title":     "Watched mailboxes",
			"Mailboxes": sortedStates(lister.GetMailboxes()),
		})
	}
}

// MailboxesJSON returns the mailbox watermark table as JSON
func MailboxesJSON(lister MailboxLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(sortedStates(lister.GetMailboxes()))
	}
}

func sortedStates(states map[string]base.MailboxState) []base.MailboxState {
	out := make([]base.MailboxState, 0, len(states))
	for _, state := range states {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
