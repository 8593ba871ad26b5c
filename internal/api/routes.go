package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/about"

	// both paths create custom tokens
	RootRoute         = "/{$}"
	CreateTokensRoute = "/api"
)

// SkippedItemsHeader lists the indexes of batch items without uid, when enabled.
const SkippedItemsHeader = "X-Skipped-Items"

// UserMustExistParam is the query parameter that toggles the user existence check.
const UserMustExistParam = "user_must_exist"
