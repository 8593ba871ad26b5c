package service

import "github.com/darmiel/customtoken/internal/core"

type BatchOptions struct {
	// MustExist requires every user to exist before a token is minted for it.
	MustExist bool
}

type BatchResult struct {
	// Tokens are the minted tokens, in request order. Skipped entries are absent.
	Tokens []core.TokenResult

	// Skipped holds the indexes of entries without a usable uid.
	Skipped []int
}
