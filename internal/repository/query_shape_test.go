package repository

import (
	"context"
	"regexp"
	"testing"

	"cadence/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_CountByPostsIsOneGroupedQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT post_id, COUNT(*) AS count FROM "likes" WHERE post_id IN ($1,$2,$3) GROUP BY "post_id"`)).
		WithArgs(1, 2, 3).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "count"}).AddRow(1, 4).AddRow(3, 1))

	counts, err := repo.CountByPosts(context.Background(), []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{1: 4, 3: 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_LikedPostIDsSkipsAnonymousViewer(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	liked, err := repo.LikedPostIDs(context.Background(), 0, []uint{1, 2})
	require.NoError(t, err)
	assert.Empty(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_CreateTranslatesUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Like{PostID: 1, UserID: 2})
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_CreateIgnoresExistingEdge(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "follows" ("follower_id","followee_id","created_at") VALUES ($1,$2,$3) ON CONFLICT DO NOTHING RETURNING "id"`)).
		WithArgs(1, 2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs(99, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetByID(context.Background(), 99)
	assert.Nil(t, user)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueConstraintError(assert.AnError))
	assert.False(t, isUniqueConstraintError(nil))
}
