// Package platform identifies the runtime the client pretends to be
// running on. It decides which storage backend holds the session token.
package platform

import (
	"fmt"
	"strings"
)

type Platform string

const (
	Web     Platform = "web"
	IOS     Platform = "ios"
	Android Platform = "android"
)

func (p Platform) IsWeb() bool { return p == Web }

// IsNative reports whether an OS-backed secure store is available.
func (p Platform) IsNative() bool { return p == IOS || p == Android }

func Parse(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Web, IOS, Android:
		return p, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}
