package issue

import "errors"

var (
	ErrIssueNotFound          = errors.New("attendance issue not found")
	ErrIssueAlreadyExists     = errors.New("attendance issue already exists for daily fact")
	ErrIssueAlreadyApplied    = errors.New("attendance issue has already been applied")
	ErrInvalidIssueTransition = errors.New("invalid attendance issue status transition")
	ErrIssueForbidden         = errors.New("attendance issue belongs to another employee")
)
