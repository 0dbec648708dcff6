package store

import "github.com/dmitrijs2005/nutrikeeper/internal/client/models"

// AuthState is the client-side session. The zero value is the signed-out
// state.
type AuthState struct {
	User            *models.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Reduce computes the state that follows action. It never mutates s or the
// payload and reports whether the result differs from s.
func Reduce(s AuthState, a Action) (AuthState, bool) {
	next := reduce(s, a)
	return next, !equal(s, next)
}

func reduce(s AuthState, a Action) AuthState {
	switch a.Type {
	case TypeLifecycle:
		return reduceLifecycle(s, a)

	case TypeSetUser:
		u, _ := a.Payload.(*models.User)
		if len(models.DiffUser(s.User, u)) == 0 {
			return s
		}
		s.User = u.Clone()
		return s

	case TypeUpdateUser:
		p, ok := a.Payload.(models.UserPatch)
		if !ok {
			return s
		}
		if u, changed := p.Apply(s.User); changed {
			s.User = u
		}
		return s

	case TypeLogout:
		return AuthState{}

	case TypeClearError:
		s.Error = ""
		return s
	}
	return s
}

func reduceLifecycle(s AuthState, a Action) AuthState {
	if a.Phase == Pending {
		s.IsLoading = true
		s.Error = ""
		return s
	}

	switch a.Op {
	case OpSignUp:
		if a.Phase == Rejected {
			s.IsLoading = false
			s.Error = a.Err
			return s
		}
		res, _ := a.Payload.(*models.AuthResult)
		s.IsLoading = false
		if res == nil {
			return s
		}
		s.User = res.User.Clone()
		if res.Token != "" {
			s.Token = res.Token
			s.IsAuthenticated = true
		}
		return s

	case OpSignIn, OpVerifyEmail:
		if a.Phase == Rejected {
			return AuthState{Error: a.Err}
		}
		res, _ := a.Payload.(*models.AuthResult)
		if res == nil || res.Token == "" {
			return AuthState{}
		}
		return AuthState{User: res.User.Clone(), Token: res.Token, IsAuthenticated: true}

	case OpLoadStoredAuth:
		if a.Phase == Rejected {
			return AuthState{Error: a.Err}
		}
		sa, _ := a.Payload.(StoredAuth)
		if sa.Token == "" {
			return AuthState{}
		}
		// a token without a user is the "profile not fetched yet" state
		return AuthState{User: sa.User.Clone(), Token: sa.Token, IsAuthenticated: true}

	case OpSignOut:
		if a.Phase == Rejected {
			return AuthState{Error: a.Err}
		}
		return AuthState{}
	}
	return s
}

func equal(a, b AuthState) bool {
	return a.Token == b.Token &&
		a.IsAuthenticated == b.IsAuthenticated &&
		a.IsLoading == b.IsLoading &&
		a.Error == b.Error &&
		len(models.DiffUser(a.User, b.User)) == 0
}
