package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Flash message keys stored in the session. Values are read once on the next
// render and then discarded.
const (
	flashMessageKey = "flash_message"
	flashErrorKey   = "flash_error"
)

// setFlash stores a one-shot message in the session. Session failures are
// logged and swallowed: losing a flash message must never fail the request.
func setFlash(store *session.Store, c *fiber.Ctx, key, value string) {
	sess, err := store.Get(c)
	if err != nil {
		log.Printf("Failed to open session for flash message: %v", err)
		return
	}
	sess.Set(key, value)
	if err := sess.Save(); err != nil {
		log.Printf("Failed to save flash message: %v", err)
	}
}

// popFlashes reads and clears the success and error flash messages.
func popFlashes(store *session.Store, c *fiber.Ctx) (message, errMsg string) {
	sess, err := store.Get(c)
	if err != nil {
		log.Printf("Failed to open session for flash messages: %v", err)
		return "", ""
	}
	if v, ok := sess.Get(flashMessageKey).(string); ok {
		message = v
		sess.Delete(flashMessageKey)
	}
	if v, ok := sess.Get(flashErrorKey).(string); ok {
		errMsg = v
		sess.Delete(flashErrorKey)
	}
	if message != "" || errMsg != "" {
		if err := sess.Save(); err != nil {
			log.Printf("Failed to clear flash messages: %v", err)
		}
	}
	return message, errMsg
}
