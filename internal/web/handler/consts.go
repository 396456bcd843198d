package handler

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// AdminPathPrefix is the path prefix of the authenticated admin area. The
	// session cookie is scoped to it.
	AdminPathPrefix = "/admin"

	// ErrNilACDFatalLogMsg is used if the app, cfg or db pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
