// Package models defines the payloads exchanged with the backend and held
// in client state.
package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// User is the backend profile. Fields the client reads are typed; anything
// else the backend sends is kept verbatim in Extra and written back on
// marshal.
type User struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	FirstName           string `json:"firstName,omitempty"`
	LastName            string `json:"lastName,omitempty"`
	EmailVerified       bool   `json:"emailVerified"`
	OnboardingCompleted bool   `json:"onboardingCompleted"`
	CreatedAt           string `json:"createdAt,omitempty"`
	UpdatedAt           string `json:"updatedAt,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type userFields User

// userField pairs a JSON name with an accessor used for diffing.
type userField struct {
	name string
	get  func(u *User) any
}

var userKnownFields = []userField{
	{"id", func(u *User) any { return u.ID }},
	{"email", func(u *User) any { return u.Email }},
	{"firstName", func(u *User) any { return u.FirstName }},
	{"lastName", func(u *User) any { return u.LastName }},
	{"emailVerified", func(u *User) any { return u.EmailVerified }},
	{"onboardingCompleted", func(u *User) any { return u.OnboardingCompleted }},
	{"createdAt", func(u *User) any { return u.CreatedAt }},
	{"updatedAt", func(u *User) any { return u.UpdatedAt }},
}

func (u *User) UnmarshalJSON(b []byte) error {
	var f userFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, kf := range userKnownFields {
		delete(raw, kf.name)
	}
	if len(raw) > 0 {
		f.Extra = raw
	}

	*u = User(f)
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(userFields(u))
	if err != nil || len(u.Extra) == 0 {
		return b, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range u.Extra {
		if _, typed := merged[k]; !typed {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(u.Extra))
		for k, v := range u.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

// DiffUser lists the JSON names of fields that differ between a and b, in
// a stable order. A nil on exactly one side reports "user".
func DiffUser(a, b *User) []string {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil || b == nil:
		return []string{"user"}
	}

	var changed []string
	for _, f := range userKnownFields {
		if f.get(a) != f.get(b) {
			changed = append(changed, f.name)
		}
	}

	var extra []string
	for k, av := range a.Extra {
		if bv, ok := b.Extra[k]; !ok || !bytes.Equal(av, bv) {
			extra = append(extra, k)
		}
	}
	for k := range b.Extra {
		if _, ok := a.Extra[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	return append(changed, extra...)
}

// UserPatch is a partial profile update; nil fields are left alone.
type UserPatch struct {
	Email               *string
	FirstName           *string
	LastName            *string
	EmailVerified       *bool
	OnboardingCompleted *bool
	Extra               map[string]json.RawMessage
}

// Apply returns a copy of u with the patch applied and whether anything
// actually changed.
func (p UserPatch) Apply(u *User) (*User, bool) {
	if u == nil {
		return nil, false
	}
	next := u.Clone()
	if p.Email != nil {
		next.Email = *p.Email
	}
	if p.FirstName != nil {
		next.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		next.LastName = *p.LastName
	}
	if p.EmailVerified != nil {
		next.EmailVerified = *p.EmailVerified
	}
	if p.OnboardingCompleted != nil {
		next.OnboardingCompleted = *p.OnboardingCompleted
	}
	if len(p.Extra) > 0 && next.Extra == nil {
		next.Extra = make(map[string]json.RawMessage, len(p.Extra))
	}
	for k, v := range p.Extra {
		next.Extra[k] = v
	}

	if len(DiffUser(u, next)) == 0 {
		return u, false
	}
	return next, true
}
