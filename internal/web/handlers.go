package web

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	"github.com/zephyrtronium/arith/internal/auth"
	"github.com/zephyrtronium/arith/internal/calc"
	"github.com/zephyrtronium/arith/internal/store"
)

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.render(w, r, "register", pageData{Title: "Register"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	u, err := s.auth.Register(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	switch {
	case err == nil:
		s.log.InfoContext(r.Context(), "registered", "user", u.ID)
		s.flash(w, r, "Registration successful. Please log in.", "/login")
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrEmptyPassword):
		s.flash(w, r, capitalize(err.Error()), "/register")
	case errors.Is(err, store.ErrDuplicateEmail):
		s.flash(w, r, "That email is already registered.", "/register")
	default:
		s.fail(w, r, err)
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.render(w, r, "login", pageData{Title: "Login"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	u, err := s.auth.Login(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	switch {
	case err == nil:
		if err := s.sessions.Save(w, u.ID); err != nil {
			s.fail(w, r, err)
			return
		}
		s.log.InfoContext(r.Context(), "logged in", "user", u.ID)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	case errors.Is(err, auth.ErrBadCredentials):
		s.flash(w, r, "Invalid email or password", "/login")
	default:
		s.fail(w, r, err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	u := userFrom(r.Context())
	h, err := s.calc.History(r.Context(), u.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "dashboard", pageData{
		Title:   "Dashboard",
		Email:   u.Email,
		History: h,
		MaxLen:  s.maxLen,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	u := userFrom(r.Context())
	_, err := s.calc.Submit(r.Context(), u.ID, r.PostFormValue("expression"))
	switch {
	case err == nil:
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	case calc.IsInputError(err):
		s.flash(w, r, capitalize(err.Error()), "/dashboard")
	default:
		s.fail(w, r, err)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.sessions.Clear(w)
	s.log.InfoContext(r.Context(), "logged out", "user", userFrom(r.Context()).ID)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// capitalize upper-cases the first letter of an ASCII message.
func capitalize(msg string) string {
	if msg == "" || msg[0] < 'a' || msg[0] > 'z' {
		return msg
	}
	return string(msg[0]-'a'+'A') + msg[1:]
}
