package core

import "errors"

var (
	// ErrInvalidChallenge is returned for a missing, expired, consumed or
	// wrongly bound nonce. The cases are deliberately indistinguishable.
	ErrInvalidChallenge = errors.New("invalid or expired nonce")

	// ErrInvalidSignature is returned when a wallet signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidToken is returned when a session token fails to parse or verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized is returned when a request lacks a valid session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoCredential is returned by credential stores when nothing is persisted.
	ErrNoCredential = errors.New("no stored credential")

	// ErrWalletNotConnected is returned when signing is requested before the
	// wallet authorized this app.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrUploadBusy is returned when an upload is begun while another one is
	// still in a non-terminal stage.
	ErrUploadBusy = errors.New("upload already in progress")
)
