package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RecordID is a server-assigned identifier. The record store returns it either as a
// JSON string or as a number; both decode to the same textual form.
type RecordID string

func (id RecordID) String() string {
	return string(id)
}

func (id RecordID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// Quantity is a line-item count. Order forms keep it as text while it is being edited,
// so it is written as a JSON string and read from either a string or a number.
type Quantity int

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(q)))
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			// unparseable quantities normalize like an untouched picker entry
			*q = 0
			return nil
		}
		raw = n.String()
	}
	*q = Quantity(wholePart(strings.TrimSpace(raw)))
	return nil
}

// wholePart reads raw as a number and drops any fraction. Non-numeric text is 0.
func wholePart(raw string) int {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(math.Trunc(f))
}
