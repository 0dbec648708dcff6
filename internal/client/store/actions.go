package store

import "github.com/dmitrijs2005/nutrikeeper/internal/client/models"

// ActionType names either a lifecycle action (Op plus Phase) or one of the
// direct actions.
type ActionType string

const (
	TypeLifecycle  ActionType = "lifecycle"
	TypeSetUser    ActionType = "auth/setUser"
	TypeUpdateUser ActionType = "auth/updateUser"
	TypeLogout     ActionType = "auth/logout"
	TypeClearError ActionType = "auth/clearError"
)

// Op is an asynchronous auth operation.
type Op string

const (
	OpSignUp         Op = "signUp"
	OpSignIn         Op = "signIn"
	OpVerifyEmail    Op = "verifyEmail"
	OpSignOut        Op = "signOut"
	OpLoadStoredAuth Op = "loadStoredAuth"
)

type Phase string

const (
	Pending   Phase = "pending"
	Fulfilled Phase = "fulfilled"
	Rejected  Phase = "rejected"
)

// Action is the only way to change an AuthState.
//
// Payload depends on the action: *models.AuthResult for fulfilled signUp,
// signIn and verifyEmail; StoredAuth for fulfilled loadStoredAuth;
// *models.User for SetUser; models.UserPatch for UpdateUser. Err carries the
// user-facing message of a rejected lifecycle action.
type Action struct {
	Type    ActionType
	Op      Op
	Phase   Phase
	Payload any
	Err     string
}

func (a Action) String() string {
	if a.Type == TypeLifecycle {
		return "auth/" + string(a.Op) + "/" + string(a.Phase)
	}
	return string(a.Type)
}

// StoredAuth is what loadStoredAuth resolves with. User may be nil when the
// token was found but the profile has not been fetched yet.
type StoredAuth struct {
	Token string
	User  *models.User
}

func PendingAction(op Op) Action {
	return Action{Type: TypeLifecycle, Op: op, Phase: Pending}
}

func FulfilledAction(op Op, payload any) Action {
	return Action{Type: TypeLifecycle, Op: op, Phase: Fulfilled, Payload: payload}
}

func RejectedAction(op Op, msg string) Action {
	return Action{Type: TypeLifecycle, Op: op, Phase: Rejected, Err: msg}
}

func SetUser(u *models.User) Action {
	return Action{Type: TypeSetUser, Payload: u}
}

func UpdateUser(p models.UserPatch) Action {
	return Action{Type: TypeUpdateUser, Payload: p}
}

func Logout() Action { return Action{Type: TypeLogout} }

func ClearError() Action { return Action{Type: TypeClearError} }
