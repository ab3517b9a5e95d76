package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mosaicboard/internal/config"
	"mosaicboard/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecretKey:        "test-secret",
		AccessTokenDuration: time.Hour,
		SesskeyDuration:     time.Hour,
		SiteRoot:            "https://lms.example.com",
	}
}

func newTestBoardService(store *MockStorage) (*repoMocks, *recordingEmitter, BoardService) {
	mocks, repo := newRepoMocks()
	emitter := &recordingEmitter{}
	cfg := testConfig()
	if store != nil {
		return mocks, emitter, NewBoardService(repo, testGrants(), NewAuthService(cfg), store, emitter, cfg)
	}
	return mocks, emitter, NewBoardService(repo, testGrants(), NewAuthService(cfg), nil, emitter, cfg)
}

func TestBoardService_GetBoard(t *testing.T) {
	t.Run("Cards carry reactions, counts and authors", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)

		named := *testCard()
		anonymous := *testCard()
		anonymous.ID = 11
		anonymous.UserID = otherUserID
		anonymous.Anonymous = true

		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)
		mocks.board.On("ListCards", mock.Anything, int64(1), true).Return([]models.Card{named, anonymous}, nil)
		mocks.reaction.On("ListByCards", mock.Anything, []int64{10, 11}).Return([]models.Reaction{
			{ID: 1, CardID: 10, UserID: otherUserID, Reaction: "like"},
			{ID: 2, CardID: 10, UserID: guestUserID, Reaction: "heart"},
		}, nil)
		mocks.comment.On("CountByCards", mock.Anything, []int64{10, 11}).Return(map[int64]int{11: 2}, nil)
		mocks.user.On("GetByIDs", mock.Anything, []int64{guestUserID, authorID}).Return([]models.User{
			{ID: authorID, FirstName: "Ada", LastName: "Lovelace"},
			{ID: guestUserID, FirstName: "Grace", LastName: "Hopper"},
		}, nil)
		mocks.board.On("ListSections", mock.Anything, int64(1)).Return([]models.Section{{ID: 3, BoardID: 1, Name: "Todo"}}, nil)

		data, err := svc.GetBoard(context.Background(), 1, guestUserID)

		require.NoError(t, err)
		require.Len(t, data.Cards, 2)

		assert.Len(t, data.Cards[0].Reactions, 2)
		assert.Equal(t, 0, data.Cards[0].CommentCount)
		require.NotNil(t, data.Cards[0].User)
		assert.Equal(t, "Ada Lovelace", data.Cards[0].User.FullName)

		assert.Empty(t, data.Cards[1].Reactions)
		assert.NotNil(t, data.Cards[1].Reactions)
		assert.Equal(t, 2, data.Cards[1].CommentCount)
		assert.Nil(t, data.Cards[1].User)

		assert.Equal(t, "{}", data.Board.Settings)
		assert.Equal(t, models.Permissions{CanView: true}, data.Permissions)
		assert.Equal(t, CurrentUser{ID: guestUserID, FullName: "Grace Hopper"}, data.CurrentUser)
		assert.Len(t, data.Sections, 1)
	})

	t.Run("Anonymous card serialises user as null", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)

		card := *testCard()
		card.Anonymous = true
		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)
		mocks.board.On("ListCards", mock.Anything, int64(1), true).Return([]models.Card{card}, nil)
		mocks.reaction.On("ListByCards", mock.Anything, mock.Anything).Return([]models.Reaction{}, nil)
		mocks.comment.On("CountByCards", mock.Anything, mock.Anything).Return(map[int64]int{}, nil)
		mocks.user.On("GetByIDs", mock.Anything, []int64{authorID}).Return([]models.User{{ID: authorID, FirstName: "Ada"}}, nil)
		mocks.board.On("ListSections", mock.Anything, int64(1)).Return([]models.Section{}, nil)

		data, err := svc.GetBoard(context.Background(), 1, authorID)
		require.NoError(t, err)

		encoded, err := json.Marshal(data)
		require.NoError(t, err)

		var decoded struct {
			Cards []map[string]json.RawMessage `json:"cards"`
		}
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		require.Len(t, decoded.Cards, 1)
		assert.Equal(t, "null", string(decoded.Cards[0]["user"]))
		assert.Equal(t, "10", string(decoded.Cards[0]["id"]))
	})

	t.Run("No view capability", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)
		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)

		_, err := svc.GetBoard(context.Background(), 1, 999)

		var permErr *models.PermissionError
		require.ErrorAs(t, err, &permErr)
		assert.Equal(t, "You do not have permission to view this board.", permErr.Message)
		mocks.board.AssertNotCalled(t, "ListCards", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown board", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)
		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(nil, models.NotFoundError("board", 1))

		_, err := svc.GetBoard(context.Background(), 1, 999)

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestBoardService_ViewBoard(t *testing.T) {
	mocks, emitter, svc := newTestBoardService(nil)
	mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)

	page, err := svc.ViewBoard(context.Background(), 1, authorID)

	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Config.BoardID)
	assert.Equal(t, int64(3), page.Config.CmID)
	assert.Equal(t, int64(30), page.Config.ContextID)
	assert.Equal(t, int64(2), page.Config.CourseID)
	assert.Equal(t, models.LayoutWall, page.Config.Layout)
	assert.Equal(t, "https://lms.example.com", page.Config.WWWRoot)
	assert.Equal(t, models.Permissions{CanView: true, CanPost: true}, page.Config.Permissions)
	assert.NoError(t, NewAuthService(testConfig()).VerifySesskey(page.Config.Sesskey, authorID))
	assert.Equal(t, []string{models.EventCourseModuleViewed}, emitter.names())
}

func TestBoardService_ViewConfigDoesNotEmit(t *testing.T) {
	mocks, emitter, svc := newTestBoardService(nil)
	mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)

	_, err := svc.ViewConfig(context.Background(), 1, authorID)

	require.NoError(t, err)
	assert.Empty(t, emitter.events)
}

func TestBoardService_UpdateSettings(t *testing.T) {
	tests := []struct {
		name      string
		userID    int64
		payload   string
		setup     func(m *repoMocks)
		expectErr func(t *testing.T, err error)
	}{
		{
			name:    "Manager replaces settings",
			userID:  moderatorID,
			payload: `{"allowcomments":true}`,
			setup: func(m *repoMocks) {
				m.board.On("UpdateSettings", mock.Anything, mock.Anything, `{"allowcomments":true}`).Return(nil)
			},
		},
		{
			name:    "Array is rejected",
			userID:  moderatorID,
			payload: `[1,2]`,
			expectErr: func(t *testing.T, err error) {
				var validationErr *models.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "settings", validationErr.Field)
			},
		},
		{
			name:    "Student cannot manage",
			userID:  authorID,
			payload: `{}`,
			expectErr: func(t *testing.T, err error) {
				var permErr *models.PermissionError
				require.ErrorAs(t, err, &permErr)
				assert.Equal(t, models.CapManage, permErr.Capability)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mocks, emitter, svc := newTestBoardService(nil)
			mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)
			if tc.setup != nil {
				tc.setup(mocks)
			}

			record, err := svc.UpdateSettings(context.Background(), 1, tc.userID, json.RawMessage(tc.payload))

			if tc.expectErr != nil {
				tc.expectErr(t, err)
				assert.Empty(t, emitter.events)
				mocks.board.AssertNotCalled(t, "UpdateSettings", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.payload, record.Settings)
			assert.Equal(t, []string{models.EventBoardUpdated}, emitter.names())
		})
	}
}

func TestBoardService_UpdateThemeConfig(t *testing.T) {
	mocks, emitter, svc := newTestBoardService(nil)
	mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)
	mocks.board.On("UpdateThemeConfig", mock.Anything, mock.Anything, `{"background":"#fff"}`).Return(nil)

	record, err := svc.UpdateThemeConfig(context.Background(), 1, moderatorID, json.RawMessage(` {"background":"#fff"} `))

	require.NoError(t, err)
	assert.Equal(t, `{"background":"#fff"}`, record.ThemeConfig)
	assert.Equal(t, "{}", record.Settings)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, "theme_config", emitter.events[0].Other["field"])
}

func TestBoardService_CreateSection(t *testing.T) {
	mocks, emitter, svc := newTestBoardService(nil)
	mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)
	mocks.section.On("Create", mock.Anything, mock.MatchedBy(func(s *models.Section) bool {
		return s.BoardID == 1 && s.Name == "Done" && s.Position == 2
	})).Return(nil)

	section, err := svc.CreateSection(context.Background(), moderatorID, CreateSectionRequest{BoardID: 1, Name: "Done", Position: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(7), section.ID)
	assert.Equal(t, []string{models.EventSectionCreated}, emitter.names())

	_, err = svc.CreateSection(context.Background(), authorID, CreateSectionRequest{BoardID: 1, Name: "Nope"})
	var permErr *models.PermissionError
	assert.ErrorAs(t, err, &permErr)
}

func TestBoardService_UserOutline(t *testing.T) {
	cards := []models.Card{
		{ID: 12, BoardID: 1, UserID: authorID, TimeCreated: 300},
		{ID: 10, BoardID: 1, UserID: authorID, TimeCreated: 100},
	}

	t.Run("Own outline", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)
		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)
		mocks.card.On("ListByAuthor", mock.Anything, int64(1), authorID).Return(cards, nil)

		outline, err := svc.UserOutline(context.Background(), 1, authorID, authorID)

		require.NoError(t, err)
		assert.Equal(t, 2, outline.PostCount)
		assert.Equal(t, int64(300), outline.LastPosted)
	})

	t.Run("Someone else's outline needs manage", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)
		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)

		_, err := svc.UserOutline(context.Background(), 1, authorID, otherUserID)

		var permErr *models.PermissionError
		require.ErrorAs(t, err, &permErr)
		assert.Equal(t, models.CapManage, permErr.Capability)
	})

	t.Run("No posts", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)
		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)
		mocks.card.On("ListByAuthor", mock.Anything, int64(1), otherUserID).Return([]models.Card{}, nil)

		outline, err := svc.UserOutline(context.Background(), 1, otherUserID, moderatorID)

		require.NoError(t, err)
		assert.Zero(t, outline.PostCount)
		assert.Zero(t, outline.LastPosted)
	})
}

func TestBoardService_CreateBoard(t *testing.T) {
	mocks, _, svc := newTestBoardService(nil)
	mocks.board.On("Create", mock.Anything, mock.Anything).Return(nil)

	board := &models.Board{Name: "Ideas", ContextID: 30}
	require.NoError(t, svc.CreateBoard(context.Background(), board))
	assert.Equal(t, models.LayoutWall, board.Layout)

	err := svc.CreateBoard(context.Background(), &models.Board{Name: "Bad", Layout: "spiral"})
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "layout", validationErr.Field)

	err = svc.CreateBoard(context.Background(), &models.Board{})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}

func TestBoardService_UpdateBoard(t *testing.T) {
	layoutPtr := func(l models.Layout) *models.Layout { return &l }

	t.Run("Only given fields change", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)
		original := testBoard()
		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(original, nil)
		mocks.board.On("Update", mock.Anything, mock.MatchedBy(func(b *models.Board) bool {
			return b.ID == 1 && b.Name == original.Name && b.Layout == models.LayoutTimeline
		})).Return(nil)

		board, err := svc.UpdateBoard(context.Background(), 1, models.BoardUpdate{Layout: layoutPtr(models.LayoutTimeline)})

		require.NoError(t, err)
		assert.Equal(t, models.LayoutTimeline, board.Layout)
		assert.Equal(t, original.Intro, board.Intro)
		assert.Greater(t, board.TimeModified, original.TimeModified)
		mocks.board.AssertExpectations(t)
	})

	t.Run("Unknown layout rejected", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)
		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)

		_, err := svc.UpdateBoard(context.Background(), 1, models.BoardUpdate{Layout: layoutPtr("spiral")})

		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "layout", validationErr.Field)
		mocks.board.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Empty name rejected", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)
		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(testBoard(), nil)

		_, err := svc.UpdateBoard(context.Background(), 1, models.BoardUpdate{Name: stringPtr("")})

		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "name", validationErr.Field)
	})

	t.Run("Missing board", func(t *testing.T) {
		mocks, _, svc := newTestBoardService(nil)
		mocks.board.On("GetByID", mock.Anything, int64(1)).Return(nil, models.NotFoundError("board", 1))

		_, err := svc.UpdateBoard(context.Background(), 1, models.BoardUpdate{Name: stringPtr("x")})

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestBoardService_DeleteBoard(t *testing.T) {
	t.Run("Media of every card is removed after the cascade", func(t *testing.T) {
		store := new(MockStorage)
		mocks, _, svc := newTestBoardService(store)

		withMedia := *testCard()
		withMedia.MediaData = stringPtr(`{"objectname":"cards/10/a.png"}`)
		deleted := *testCard()
		deleted.ID = 11
		deleted.Status = models.CardStatusDeleted
		deleted.MediaData = stringPtr(`{"objectname":"cards/11/b.png"}`)

		mocks.board.On("ListCards", mock.Anything, int64(1), false).Return([]models.Card{withMedia, deleted, *testCard()}, nil)
		mocks.board.On("Delete", mock.Anything, int64(1)).Return(nil)
		store.On("DeleteObject", mock.Anything, "cards/10/a.png").Return(nil)
		store.On("DeleteObject", mock.Anything, "cards/11/b.png").Return(errors.New("gone already"))

		require.NoError(t, svc.DeleteBoard(context.Background(), 1))
		store.AssertExpectations(t)
	})

	t.Run("Cascade failure keeps media", func(t *testing.T) {
		store := new(MockStorage)
		mocks, _, svc := newTestBoardService(store)

		mocks.board.On("ListCards", mock.Anything, int64(1), false).Return([]models.Card{}, nil)
		mocks.board.On("Delete", mock.Anything, int64(1)).Return(models.NotFoundError("board", 1))

		err := svc.DeleteBoard(context.Background(), 1)

		assert.ErrorIs(t, err, models.ErrNotFound)
		store.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
	})
}
