package snapshot

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"golang.org/x/crypto/blake2b"
)

type ScopeType string

const (
	ScopeCompany    ScopeType = "COMPANY"
	ScopeDepartment ScopeType = "DEPARTMENT"
)

// Scope is the organizational breadth a snapshot covers.
type Scope struct {
	Type         ScopeType `json:"type"`
	DepartmentID *string   `json:"department_id,omitempty"`
}

func (s Scope) IsCompany() bool { return s.Type == ScopeCompany }

func (s Scope) String() string {
	if s.DepartmentID != nil {
		return string(s.Type) + ":" + *s.DepartmentID
	}
	return string(s.Type)
}

// MaxVersions is the number of version letters available per scope and month.
const MaxVersions = 26

// VersionLetter maps the count of existing snapshots to the next letter.
func VersionLetter(existing int) (string, error) {
	if existing < 0 || existing >= MaxVersions {
		return "", ErrSnapshotVersionExhausted
	}
	return string(rune('A' + existing)), nil
}

// Snapshot is immutable once created.
type Snapshot struct {
	ID         string    `json:"id"`
	Scope      Scope     `json:"scope"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Version    string    `json:"version"`
	ApprovedBy string    `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	Children   []Child   `json:"children,omitempty"`
}

func (s Snapshot) YearMonth() calendar.YearMonth {
	return calendar.YearMonth{Year: s.Year, Month: time.Month(s.Month)}
}

// Child holds one employee's encoded Payload and its digest.
type Child struct {
	ID         string          `json:"id"`
	SnapshotID string          `json:"snapshot_id"`
	EmployeeID string          `json:"employee_id"`
	Payload    json.RawMessage `json:"payload"`
	Digest     string          `json:"digest"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PayloadDigest is the hex BLAKE2b-256 of the encoded payload bytes.
func PayloadDigest(raw []byte) string {
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Verify checks the stored payload against the digest taken at capture.
func (c Child) Verify() error {
	if c.Digest == "" {
		return fmt.Errorf("%w: missing digest", ErrSnapshotPayloadMalformed)
	}
	if PayloadDigest(c.Payload) != c.Digest {
		return fmt.Errorf("%w: digest mismatch", ErrSnapshotPayloadMalformed)
	}
	return nil
}

// UnassignedEmployeeID keys the child that holds a company snapshot's raw
// rows whose employee is missing from the directory.
const UnassignedEmployeeID = "00000000-0000-0000-0000-000000000000"

// PayloadSchemaVersion is bumped whenever Payload changes incompatibly.
const PayloadSchemaVersion = 1

// Payload is a self-sufficient copy of one employee's month: the raw signals,
// the reference data they need and the derived state at capture time.
type Payload struct {
	SchemaVersion   int                        `json:"schema_version"`
	Month           calendar.YearMonth         `json:"yyyymm"`
	Employee        employee.Employee          `json:"employee"`
	Events          []rawdata.Event            `json:"events"`
	LeaveUsages     []rawdata.LeaveUsage       `json:"leave_usages"`
	TimeCorrections []rawdata.TimeCorrection   `json:"time_corrections"`
	LeaveTypes      []leave.LeaveType          `json:"leave_types"`
	Overrides       []worktime.Override        `json:"work_time_overrides"`
	Holidays        []worktime.Holiday         `json:"holidays"`
	DailyFacts      []attendance.DailyFact     `json:"daily_facts"`
	MonthlySummary  *attendance.MonthlySummary `json:"monthly_summary"`
	// Unassigned marks the payload of rows no directory employee owns.
	Unassigned bool `json:"unassigned,omitempty"`
}

func (p Payload) Encode() (json.RawMessage, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot payload: %w", err)
	}
	return b, nil
}

// DecodePayload rejects payloads that cannot serve as a restore source.
func DecodePayload(raw json.RawMessage) (Payload, error) {
	var p Payload
	if len(raw) == 0 {
		return p, fmt.Errorf("%w: empty payload", ErrSnapshotPayloadMalformed)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrSnapshotPayloadMalformed, err)
	}
	if p.SchemaVersion != PayloadSchemaVersion {
		return p, fmt.Errorf("%w: unsupported schema version %d", ErrSnapshotPayloadMalformed, p.SchemaVersion)
	}
	if p.Employee.ID == "" {
		return p, fmt.Errorf("%w: missing employee", ErrSnapshotPayloadMalformed)
	}
	if p.Unassigned != (p.Employee.ID == UnassignedEmployeeID) {
		return p, fmt.Errorf("%w: unassigned payload must use the unassigned employee id", ErrSnapshotPayloadMalformed)
	}
	return p, nil
}
