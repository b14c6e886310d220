package server

import "errors"

var (
	errInvalidLoginState = errors.New("invalid sign-in state")
	errExpiredLoginState = errors.New("sign-in state expired")
)
