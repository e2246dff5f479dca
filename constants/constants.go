package constants

const (
	ROLE_ADMIN   = "ADMIN"
	ROLE_MANAGER = "MANAGER"
	ROLE_WAITER  = "WAITER"
)

const (
	ERROR_INPUT                = "INVALID_INPUT"
	ERROR_INTERNAL_ERROR       = "INTERNAL_ERROR"
	ERROR_PARSE_DATA_TO_LOCALS = "PARSE_DATA_TO_LOCALS_FAIL"
	DATA_INPUT_IS_NOT_NUMBER   = "DATA_INPUT_IS_NOT_NUMBER"
	MISSING_LOGIN_INPUT        = "MISSING_LOGIN_INPUT"
	INVALID_USERNAME           = "INVALID_USERNAME"
	INVALID_PASSWORD           = "INVALID_PASSWORD"
	ACCOUNT_NOT_ACTIVE         = "ACCOUNT_NOT_ACTIVE"
	NOT_ADMIN                  = "NOT_ADMIN"
	NOT_STAFF                  = "NOT_STAFF"
)
