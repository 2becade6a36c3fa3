package main

import (
	"errors"
	"log/slog"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	oauth "github.com/xershade/discord-oauth-golang"
)

const sessionName = "session"

// echoSession adapts a gorilla cookie session to the engine's Session
// capability.
type echoSession struct {
	e    echo.Context
	sess *sessions.Session
}

func getSession(e echo.Context) (*echoSession, error) {
	sess, err := session.Get(sessionName, e)
	if err != nil {
		return nil, err
	}

	return &echoSession{e: e, sess: sess}, nil
}

func (s *echoSession) AccountID() (int64, bool) {
	v, ok := s.sess.Values["user_id"]
	if !ok {
		return 0, false
	}

	id, ok := v.(int64)

	return id, ok
}

func (s *echoSession) Establish(accountID int64) error {
	s.sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}

	// make sure the session is empty
	s.sess.Values = map[interface{}]interface{}{}
	s.sess.Values["user_id"] = accountID

	return s.sess.Save(s.e.Request(), s.e.Response())
}

func (s *Server) handleLoginStart(e echo.Context) error {
	u, err := s.engine.AuthorizationURL()
	if err != nil {
		return err
	}

	return e.Redirect(302, u)
}

func (s *Server) handleCallback(e echo.Context) error {
	sess, err := getSession(e)
	if err != nil {
		return err
	}

	params := oauth.CallbackParams{
		Code:       e.QueryParam("code"),
		State:      e.QueryParam("state"),
		RedirectTo: e.QueryParam("redirect_to"),
	}

	outcome, err := s.engine.HandleCallback(e.Request().Context(), params, sess)
	if err != nil {
		slog.Warn("discord oauth callback rejected", "err", err)

		switch {
		case errors.Is(err, oauth.ErrInvalidState):
			return e.Redirect(302, "/login?e=invalid-state")
		case errors.Is(err, oauth.ErrAlreadyLinked):
			return e.Redirect(302, "/me?e=already-linked")
		case errors.Is(err, oauth.ErrTokenExchange),
			errors.Is(err, oauth.ErrProfileFetch),
			errors.Is(err, oauth.ErrProvisioning):
			return e.Redirect(302, "/login?e=auth-failed")
		default:
			return err
		}
	}

	return e.Redirect(302, outcome.Redirect)
}

func (s *Server) handleUnlink(e echo.Context) error {
	sess, err := getSession(e)
	if err != nil {
		return err
	}

	if _, err := s.engine.Unlink(e.Request().Context(), sess); err != nil {
		if errors.Is(err, oauth.ErrNotAuthenticated) {
			return e.Redirect(302, "/login")
		}
		return err
	}

	return e.Redirect(302, "/me")
}

func (s *Server) handleLogout(e echo.Context) error {
	sess, err := session.Get(sessionName, e)
	if err != nil {
		return err
	}

	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}

	if err := sess.Save(e.Request(), e.Response()); err != nil {
		return err
	}

	return e.Redirect(302, "/")
}
