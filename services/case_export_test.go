package services

import (
	"context"
	"law_case_engine/models"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func TestExportCases(t *testing.T) {
	database := setupCaseDB(t)
	service := newTestCaseService(database)
	ctx := context.Background()
	client := seedClient(t, database, scopeA, "Acme Corp")
	lawyer := seedUser(t, database, "Jane Lawyer", "jane@firm.test")

	_, err := service.Create(ctx, scopeA, "user-1", CreateCaseInput{Title: "Acme v. Beta", CaseType: models.CaseTypeCorporate, ClientID: client.ID, AssignedToID: &lawyer.ID, FilingDate: timePtr(day(4))})
	assert.NoError(t, err)
	_, err = service.Create(ctx, scopeA, "user-1", CreateCaseInput{Title: "Acme custody", CaseType: models.CaseTypeFamily, ClientID: client.ID})
	assert.NoError(t, err)

	// Paging is ignored; filters apply
	buf, count, err := service.ExportCases(ctx, scopeA, url.Values{"caseType": {"corporate"}, "limit": {"1"}, "page": {"9"}})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	f, err := excelize.OpenReader(buf)
	assert.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	assert.NoError(t, err)
	if assert.Len(t, rows, 2) {
		assert.Equal(t, exportHeaders, rows[0])
		assert.Equal(t, "Acme v. Beta", rows[1][1])
		assert.Equal(t, "corporate", rows[1][2])
		assert.Equal(t, "Acme Corp", rows[1][5])
		assert.Equal(t, "Jane Lawyer", rows[1][6])
		assert.Equal(t, "2026-01-04", rows[1][7])
	}

	_, count, err = service.ExportCases(ctx, scopeB, url.Values{})
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}
