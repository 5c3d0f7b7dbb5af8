package dto_test

import (
	"encoding/json"
	"testing"
	"time"

	"projectTracker/internal/handlers/dto"
	"projectTracker/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDate_UnmarshalJSON тестирует разбор дат
func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *time.Time
		wantErr bool
	}{
		{"rfc3339", `"2025-02-03T04:05:06Z"`, ptr(time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)), false},
		{"with offset", `"2025-02-03T07:05:06+03:00"`, ptr(time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)), false},
		{"plain date", `"2025-02-03"`, ptr(time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)), false},
		{"empty string", `""`, nil, false},
		{"null", `null`, nil, false},
		{"garbage", `"tomorrow"`, nil, true},
		{"number", `12`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d dto.Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, d.Time)
				return
			}
			require.NotNil(t, d.Time)
			assert.True(t, tt.want.Equal(*d.Time))
		})
	}
}

// TestOptional тестирует различие отсутствующего поля и null
func TestOptional(t *testing.T) {
	var body struct {
		A dto.Optional[string] `json:"a"`
		B dto.Optional[string] `json:"b"`
		C dto.Optional[string] `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":null}`), &body))

	assert.True(t, body.A.Set)
	assert.Equal(t, "x", body.A.Value)

	assert.True(t, body.B.Set)
	assert.True(t, body.B.Null)

	assert.False(t, body.C.Set)
}

// TestUpdateTaskRequest_Input тестирует преобразование в параметры сервиса
func TestUpdateTaskRequest_Input(t *testing.T) {
	var req dto.UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","assignedTo":"","tags":null,"dueDate":""}`), &req))

	in := req.Input()
	require.NotNil(t, in.Title)
	assert.Equal(t, "T", *in.Title)
	assert.True(t, in.AssignedTo.Set)
	assert.Empty(t, in.AssignedTo.Value)
	assert.True(t, in.Tags.Set)
	assert.Nil(t, in.Tags.Value)
	assert.True(t, in.DueDate.Set)
	assert.Nil(t, in.DueDate.Value)
	assert.Nil(t, in.Status)
	assert.False(t, in.Attachments.Set)
}

// TestTaskRequest_Attachments тестирует разбор вложений задачи
func TestTaskRequest_Attachments(t *testing.T) {
	var create dto.CreateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","attachments":[
		{"name":"spec.pdf","url":"https://files/spec.pdf","uploadedAt":"2024-03-01"},
		{"name":"logo","url":"https://files/logo.png"}]}`), &create))

	in := create.Input()
	require.Len(t, in.Attachments, 2)
	assert.Equal(t, task.Attachment{
		Name:       "spec.pdf",
		URL:        "https://files/spec.pdf",
		UploadedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, in.Attachments[0])
	assert.True(t, in.Attachments[1].UploadedAt.IsZero())

	var update dto.UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"attachments":null}`), &update))
	upd := update.Input()
	assert.True(t, upd.Attachments.Set)
	assert.Empty(t, upd.Attachments.Value)
}

func ptr(t time.Time) *time.Time {
	return &t
}
