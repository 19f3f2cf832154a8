package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Fallback values spoken back to the caller when a lookup misses.
const (
	GuestCustomerName       = "Guest"
	NoCallHistorySummary    = "No previous call history available."
	EmptySummaryPlaceholder = "No summary available."
	UnknownEmployeeName     = "Unknown"

	// PrecallDateLayout renders a calendar date such as "Fri Jan 05 2024".
	PrecallDateLayout = "Mon Jan 02 2006"
)

// PrecallRequest is the body OpenMic sends before a call starts.
// The call object is opaque; only the correlation key is used.
type PrecallRequest struct {
	Call json.RawMessage `json:"call,omitempty"`
}

// DynamicVariables are injected into the agent prompt at call start
type DynamicVariables struct {
	CustomerName    string `json:"customer_name"`
	LastCallSummary string `json:"last_call_summary"`
}

// PrecallCall wraps the dynamic variables of the precall reply
type PrecallCall struct {
	DynamicVariables DynamicVariables `json:"dynamic_variables"`
}

// PrecallResponse is the envelope OpenMic expects from the precall hook
type PrecallResponse struct {
	Call PrecallCall `json:"call"`
}

// EmployeeLookupRequest is the in-call function payload.
type EmployeeLookupRequest struct {
	EmployeeID EmployeeID `json:"employee_id"`
}

// EmployeeSummary is the speakable employee projection returned mid-call
type EmployeeSummary struct {
	EmployeeName       string `json:"employee_name"`
	EmployeeLocation   string `json:"employee_location"`
	EmployeeDepartment string `json:"employee_department"`
}

// EmployeeLookupResponse is the envelope OpenMic expects from the getData hook
type EmployeeLookupResponse struct {
	Result EmployeeSummary `json:"result"`
}

// PostcallRequest carries the summary of a finished call.
// CreatedAt is the caller's view of when the call arrived; it is stored as the arrival time.
type PostcallRequest struct {
	Summary   string        `json:"summary"`
	CreatedAt *FlexibleTime `json:"createdAt,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
}

// ErrorResponse is the JSON error body used by every endpoint
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// EmployeeID accepts a JSON number or a numeric string.
// Anything that is not a positive integer that fits a signed 64-bit key decodes to zero, which never matches a row.
type EmployeeID uint

func (e *EmployeeID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*e = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	// Keys are BIGINT in the store, so anything above MaxInt64 cannot exist
	id, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		// Accept integral floats like 3.0
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f <= 0 || f >= math.MaxInt64 || f != float64(uint64(f)) {
			*e = 0
			return nil
		}
		id = uint64(f)
	}
	*e = EmployeeID(id)
	return nil
}

// FlexibleTime decodes RFC3339 strings, date-only strings, or epoch milliseconds.
type FlexibleTime struct {
	time.Time
}

var flexibleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *FlexibleTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", string(data), err)
		}
		f.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range flexibleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (f FlexibleTime) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Time.Format(time.RFC3339Nano))
}

// Ptr returns nil for a missing or zero time.
func (f *FlexibleTime) Ptr() *time.Time {
	if f == nil || f.IsZero() {
		return nil
	}
	t := f.Time
	return &t
}
