package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-admission-api/internal/models"
	"github.com/noah-isme/uni-admission-api/internal/service"
)

func TestSnapshotHandlerProgramBoard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	snapshots := &stubSnapshotRepo{
		snapshot: &models.Snapshot{ID: 3, Day: "2025-08-01"},
		rows: []models.ApplicationRow{
			{ApplicantID: 1001, ProgramCode: "PM", Priority: 1, Total: 230},
		},
		total: 41,
	}
	programs := &stubProgramRepo{byCode: map[string]models.Program{
		"PM": {ID: 1, Code: "PM", Name: "Applied Math", Seats: 1},
	}}
	handler := NewSnapshotHandler(newAdmissionService(snapshots, programs))

	c, w := newGinContext(http.MethodGet, "/snapshots/2025-08-01/programs/PM?page=2&pageSize=20")
	c.Params = gin.Params{{Key: "day", Value: "2025-08-01"}, {Key: "code", Value: "PM"}}

	handler.ProgramBoard(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data       service.ProgramBoard `json:"data"`
		Pagination models.Pagination    `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Rows, 1)
	assert.Equal(t, 41, envelope.Pagination.TotalCount)
	assert.Equal(t, 2, envelope.Pagination.Page)
}

func TestSnapshotHandlerProgramBoardUnknownProgram(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSnapshotHandler(newAdmissionService(&stubSnapshotRepo{}, &stubProgramRepo{}))

	c, w := newGinContext(http.MethodGet, "/snapshots/2025-08-01/programs/XX")
	c.Params = gin.Params{{Key: "day", Value: "2025-08-01"}, {Key: "code", Value: "XX"}}

	handler.ProgramBoard(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshotHandlerPriorityChains(t *testing.T) {
	gin.SetMode(gin.TestMode)
	snapshots := &stubSnapshotRepo{
		snapshot: &models.Snapshot{ID: 3, Day: "2025-08-01"},
		allRows: []models.ApplicationRow{
			{ApplicantID: 1001, ProgramCode: "PM", Priority: 1},
			{ApplicantID: 1001, ProgramCode: "IVT", Priority: 2},
		},
	}
	handler := NewSnapshotHandler(newAdmissionService(snapshots, &stubProgramRepo{}))

	c, w := newGinContext(http.MethodGet, "/snapshots/2025-08-01/applicants")
	c.Params = gin.Params{{Key: "day", Value: "2025-08-01"}}

	handler.PriorityChains(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.PriorityChain `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Len(t, envelope.Data[0].Entries, 2)
}
