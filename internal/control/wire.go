// Package control is the evaluation engine's external interface: a
// bidirectional streaming endpoint that accepts challenge submissions and
// streams back incremental task reports, grounded on the original's
// single-persistent-connection-per-backend protocol (a tornado WebSocket
// handler in the original, reimplemented here over gorilla/websocket with
// the same JSON wire shape — see DESIGN.md for why no gRPC service is used).
package control

import (
	"encoding/json"

	"github.com/swarmguard/judge-engine/internal/model"
)

// reportMessage is the wire shape of one streamed report, mirroring the
// original's Encoder output field-for-field: decimal.Decimal already
// marshals as a quoted string and Status/enum types already marshal as
// plain JSON numbers, so no custom MarshalJSON is needed anywhere in this
// tree — encoding/json on these tagged structs reproduces the original
// Encoder's behavior without having to special-case anything.
type reportMessage struct {
	ChalID         int64           `json:"chal_id"`
	Task           string          `json:"task"`
	TestDataResult *testDataResult `json:"testdata_result,omitempty"`
	Result         *result         `json:"result,omitempty"`
}

type testDataResult struct {
	ID          int             `json:"id"`
	Score       string          `json:"score"`
	Time        int64           `json:"time"`
	Memory      int64           `json:"memory"`
	Message     string          `json:"message"`
	MessageType int             `json:"message_type"`
	Status      *int            `json:"status"`
}

type subtaskResult struct {
	Time   int64  `json:"time"`
	Memory int64  `json:"memory"`
	Score  string `json:"score"`
	Status *int   `json:"status"`
}

type totalResult struct {
	Time        int64  `json:"time"`
	Memory      int64  `json:"memory"`
	Score       string `json:"score"`
	Status      *int   `json:"status"`
	CEMessage   string `json:"ce_message"`
	IEMessage   string `json:"ie_message"`
	MessageType int    `json:"message_type"`
}

type result struct {
	ChalID          int64                   `json:"chal_id"`
	Total           totalResult             `json:"total_result"`
	SubtaskResults  map[int]subtaskResult   `json:"subtask_results"`
	TestDataResults map[int]testDataResult  `json:"testdata_results"`
}

func statusPtr(s *model.Status) *int {
	if s == nil {
		return nil
	}
	v := int(*s)
	return &v
}

func toTestDataResult(tr *model.TestDataResult) *testDataResult {
	if tr == nil {
		return nil
	}
	return &testDataResult{
		ID:          tr.ID,
		Score:       tr.Score.String(),
		Time:        tr.Time,
		Memory:      tr.Memory,
		Message:     tr.Message,
		MessageType: int(tr.MessageType),
		Status:      statusPtr(tr.Status),
	}
}

func toResult(r *model.Result) *result {
	if r == nil {
		return nil
	}
	subtaskResults := make(map[int]subtaskResult, len(r.SubtaskResults))
	for id, sr := range r.SubtaskResults {
		subtaskResults[id] = subtaskResult{
			Time:   sr.Time,
			Memory: sr.Memory,
			Score:  sr.Score.String(),
			Status: statusPtr(sr.Status),
		}
	}
	testDataResults := make(map[int]testDataResult, len(r.TestDataResults))
	for id, tr := range r.TestDataResults {
		testDataResults[id] = *toTestDataResult(tr)
	}
	return &result{
		ChalID: r.ChalID,
		Total: totalResult{
			Time:        r.Total.Time,
			Memory:      r.Total.Memory,
			Score:       r.Total.Score.String(),
			Status:      statusPtr(r.Total.Status),
			CEMessage:   r.Total.CEMessage,
			IEMessage:   r.Total.IEMessage,
			MessageType: int(r.Total.MessageType),
		},
		SubtaskResults:  subtaskResults,
		TestDataResults: testDataResults,
	}
}

// marshalReport renders one task's contribution to a challenge's report
// stream as the JSON payload a backend consumer expects.
func marshalReport(chalID int64, task string, tr *model.TestDataResult, res *model.Result) ([]byte, error) {
	msg := reportMessage{
		ChalID:         chalID,
		Task:           task,
		TestDataResult: toTestDataResult(tr),
		Result:         toResult(res),
	}
	return json.Marshal(msg)
}
