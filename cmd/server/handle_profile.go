package main

import (
	"github.com/labstack/echo/v4"
)

func (s *Server) handleHome(e echo.Context) error {
	sess, err := getSession(e)
	if err != nil {
		return err
	}

	if id, ok := sess.AccountID(); ok {
		return e.JSON(200, map[string]any{"logged_in": true, "user_id": id})
	}

	return e.JSON(200, map[string]any{"logged_in": false})
}

func (s *Server) handleLoginPage(e echo.Context) error {
	return e.HTML(200, `<p id="discord-login-button"><a href="/oauth/discord">Log in with Discord</a></p>`)
}

func (s *Server) handleMe(e echo.Context) error {
	sess, err := getSession(e)
	if err != nil {
		return err
	}

	id, ok := sess.AccountID()
	if !ok {
		return e.Redirect(302, "/login")
	}

	user, err := s.store.GetUser(e.Request().Context(), id)
	if err != nil {
		return err
	}

	discordID, linked, err := s.store.GetLink(e.Request().Context(), id)
	if err != nil {
		return err
	}

	return e.JSON(200, map[string]any{
		"username":       user.Username,
		"email":          user.Email,
		"discord_linked": linked,
		"discord_id":     discordID,
	})
}
