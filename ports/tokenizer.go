package ports

// OperatorTokenizer issues and verifies the bearer tokens that guard
// session-control endpoints. Operator tokens are unrelated to presence
// tokens; they only authenticate the console driving a generator session.
type OperatorTokenizer interface {
	// IssueOperatorToken mints a token bound to a generator session id.
	IssueOperatorToken(sessionID string) (string, error)

	// VerifyOperatorToken validates a token and returns the session id
	// it is bound to.
	VerifyOperatorToken(token string) (string, error)
}
