package cookie

import "errors"

var (
	ErrNoSecret         = errors.New("cookie: no signing secret")
	ErrSecretTooShort   = errors.New("cookie: secret shorter than 32 bytes")
	ErrInvalidFormat    = errors.New("cookie: malformed signed value")
	ErrInvalidSignature = errors.New("cookie: signature mismatch")
)
