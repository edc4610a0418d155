package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// queryInt returns 0 for a missing or malformed value so that request
// validation reports it.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func queryPtr(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func queryYearMonth(r *http.Request) (calendar.YearMonth, error) {
	ym, err := calendar.NewYearMonth(queryInt(r, "year"), queryInt(r, "month"))
	if err != nil {
		var errs validator.ValidationErrors
		return ym, errs.Add("month", err.Error()).Err()
	}
	return ym, nil
}

// decodeBody writes a 400 and returns false when the body is not valid JSON.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// performedBy writes a 401 and returns false when the token carries no user.
func performedBy(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := jwt.PerformedBy(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return "", false
	}
	return userID, true
}

func isAdmin(r *http.Request) bool {
	role, ok := jwt.RoleFrom(r.Context())
	return ok && role == jwt.RoleAdmin
}
