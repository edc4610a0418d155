package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/snapshot"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, jwt.ErrMissingUserID):
		Unauthorized(w, "Token has no user_id")
	case errors.Is(err, issue.ErrIssueForbidden):
		Forbidden(w, "Attendance issue belongs to another employee")

	// Not found
	case errors.Is(err, attendance.ErrDailyFactNotFound):
		NotFound(w, "Daily attendance fact not found")
	case errors.Is(err, attendance.ErrMonthlySummaryNotFound):
		NotFound(w, "Monthly attendance summary not found")
	case errors.Is(err, issue.ErrIssueNotFound):
		NotFound(w, "Attendance issue not found")
	case errors.Is(err, snapshot.ErrSnapshotNotFound):
		NotFound(w, "Snapshot not found")
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrDepartmentNotFound):
		NotFound(w, "Department not found")
	case errors.Is(err, worktime.ErrOverrideNotFound):
		NotFound(w, "Work time override not found")

	// Conflict
	case errors.Is(err, issue.ErrIssueAlreadyApplied):
		Conflict(w, "Attendance issue has already been applied")
	case errors.Is(err, issue.ErrInvalidIssueTransition):
		Conflict(w, err.Error())
	case errors.Is(err, issue.ErrIssueAlreadyExists):
		Conflict(w, "Attendance issue already exists")
	case errors.Is(err, snapshot.ErrSnapshotVersionExhausted):
		Conflict(w, "No snapshot versions left for this scope and month")
	case errors.Is(err, lock.ErrScopeLocked):
		Conflict(w, "Another run is in progress for this month")
	case errors.Is(err, worktime.ErrHolidayExists):
		Conflict(w, "Holiday already exists")
	case errors.Is(err, attendance.ErrFutureMonth):
		BadRequest(w, "Month has not started yet", nil)

	// Integrity
	case errors.Is(err, snapshot.ErrSnapshotEmpty):
		IntegrityError(w, "Snapshot has no employee data")
	case errors.Is(err, snapshot.ErrSnapshotPayloadMalformed):
		IntegrityError(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
