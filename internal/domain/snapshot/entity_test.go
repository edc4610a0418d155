package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionLetter(t *testing.T) {
	v, err := VersionLetter(0)
	require.NoError(t, err)
	assert.Equal(t, "A", v)

	v, err = VersionLetter(25)
	require.NoError(t, err)
	assert.Equal(t, "Z", v)

	_, err = VersionLetter(26)
	assert.ErrorIs(t, err, ErrSnapshotVersionExhausted)
}

func TestDecodePayload(t *testing.T) {
	good, err := Payload{
		SchemaVersion: PayloadSchemaVersion,
		Employee:      employee.Employee{ID: "emp-1", EmployeeNumber: "E001"},
	}.Encode()
	require.NoError(t, err)

	p, err := DecodePayload(good)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", p.Employee.ID)

	bad := []json.RawMessage{
		nil,
		json.RawMessage(`{"schema_version":`),
		json.RawMessage(`{"schema_version":99,"employee":{"id":"emp-1"}}`),
		json.RawMessage(`{"schema_version":1,"employee":{}}`),
	}
	for _, raw := range bad {
		_, err := DecodePayload(raw)
		assert.ErrorIs(t, err, ErrSnapshotPayloadMalformed, string(raw))
	}
}

func TestCreateRequest_Validate(t *testing.T) {
	dept := "dept-1"
	ok := CreateRequest{Scope: "DEPARTMENT", DepartmentID: &dept, Year: 2024, Month: 3, PerformedBy: "admin"}
	assert.NoError(t, ok.Validate())

	missingDept := CreateRequest{Scope: "DEPARTMENT", Year: 2024, Month: 3, PerformedBy: "admin"}
	assert.Error(t, missingDept.Validate())

	badScope := CreateRequest{Scope: "TEAM", Year: 2024, Month: 3, PerformedBy: "admin"}
	assert.Error(t, badScope.Validate())
}

func TestChild_Verify(t *testing.T) {
	raw := json.RawMessage(`{"schema_version":1}`)
	c := Child{ID: "child-1", Payload: raw, Digest: PayloadDigest(raw)}
	assert.NoError(t, c.Verify())
	assert.Len(t, c.Digest, 64)

	c.Payload = json.RawMessage(`{"schema_version":2}`)
	assert.ErrorIs(t, c.Verify(), ErrSnapshotPayloadMalformed)

	c.Digest = ""
	assert.ErrorIs(t, c.Verify(), ErrSnapshotPayloadMalformed)
}
