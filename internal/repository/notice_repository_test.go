package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clab/student-portal-api/internal/models"
)

func TestNoticeListForGradeIncludesBroadcasts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNoticeRepository(db)

	now := time.Now()
	gradeID := "g1"
	rows := sqlmock.NewRows([]string{"id", "title", "body", "image", "image_public_id", "grade_id", "created_at", "updated_at"}).
		AddRow("n1", "Exam routine", "Starts Monday", "", "", gradeID, now, now).
		AddRow("n2", "Holiday", "Closed on Sunday", "", "", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, title, body, image, image_public_id, grade_id, created_at, updated_at FROM notices WHERE grade_id = $1 OR grade_id IS NULL ORDER BY updated_at DESC`)).
		WithArgs("g1").
		WillReturnRows(rows)

	notices, err := repo.ListForGrade(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, notices, 2)
	require.NotNil(t, notices[0].GradeID)
	assert.Equal(t, "g1", *notices[0].GradeID)
	assert.Nil(t, notices[1].GradeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeCreateBroadcastStoresNullGrade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNoticeRepository(db)

	mock.ExpectExec("INSERT INTO notices").WillReturnResult(sqlmock.NewResult(1, 1))

	notice := &models.Notice{Title: "Holiday", Body: "Closed on Sunday"}
	err := repo.Create(context.Background(), notice)
	require.NoError(t, err)
	assert.NotEmpty(t, notice.ID)
}
