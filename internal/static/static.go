package static

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed index.html
var index []byte

func HandleIndex(c *fiber.Ctx) error {
	c.Response().Header.Add("Cache-control", "max-age=3600, public")
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(index)
}
