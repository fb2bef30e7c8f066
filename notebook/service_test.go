package notebook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkemata/reasonreport-backend/models"
)

func newTestService(store Store) *Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testUser(username string, role models.UserRole) *models.User {
	return &models.User{ID: uuid.New(), Username: username, Role: role, Status: models.StatusActive}
}

func docBytes(t *testing.T, title, author, date string) []byte {
	t.Helper()
	raw, err := json.Marshal(validDoc(title, author, date))
	require.NoError(t, err)
	return raw
}

func TestCreateScaffoldsEmptySlug(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)

	nb, err := svc.Create(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, nb.AuthorID)
	assert.Empty(t, nb.Slug)

	doc, err := svc.Document(nb)
	require.NoError(t, err)
	meta, err := ExtractMetadata(doc)
	require.NoError(t, err)
	assert.Equal(t, "alice", meta.Author)
}

// Kịch bản đầy đủ: tạo, lưu "My Page", fetch theo slug; notebook thứ hai
// cùng tiêu đề nhận slug my-page-1.
func TestSaveAndFetchScenario(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	bob := testUser("bob", models.RoleBasic)
	ctx := context.Background()

	first, err := svc.Create(ctx, alice)
	require.NoError(t, err)

	saved, err := svc.Save(ctx, first.ID, docBytes(t, "My Page", "alice", "2024-01-01"), alice)
	require.NoError(t, err)
	assert.Equal(t, "my-page", saved.Slug)
	assert.Equal(t, "My Page", saved.Title)
	assert.Equal(t, "alice", saved.Author)
	assert.Equal(t, "2024-01-01", saved.Date)

	fetched, err := svc.Fetch(ctx, "my-page", nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, fetched.ID)

	second, err := svc.Create(ctx, bob)
	require.NoError(t, err)
	saved2, err := svc.Save(ctx, second.ID, docBytes(t, "My Page", "bob", "2024-02-02"), bob)
	require.NoError(t, err)
	assert.Equal(t, "my-page-1", saved2.Slug)
}

func TestSaveForbiddenForNonAuthor(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	bob := testUser("bob", models.RoleBasic)
	ctx := context.Background()

	nb, err := svc.Create(ctx, alice)
	require.NoError(t, err)

	_, err = svc.Save(ctx, nb.ID, docBytes(t, "Hacked", "bob", "2024-01-01"), bob)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSaveAllowedForAdmin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	admin := testUser("root", models.RoleAdmin)
	ctx := context.Background()

	nb, err := svc.Create(ctx, alice)
	require.NoError(t, err)

	saved, err := svc.Save(ctx, nb.ID, docBytes(t, "Fixed By Admin", "alice", "2024-01-01"), admin)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, saved.AuthorID, "quyền sở hữu không được đổi")
}

func TestSaveNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)

	_, err := svc.Save(context.Background(), uuid.New(), docBytes(t, "My Page", "alice", "2024-01-01"), alice)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Save không hợp lệ phải giữ nguyên bản đã lưu trước đó.
func TestRejectedSavePreservesLastGoodVersion(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	ctx := context.Background()

	nb, err := svc.Create(ctx, alice)
	require.NoError(t, err)
	_, err = svc.Save(ctx, nb.ID, docBytes(t, "My Page", "alice", "2024-01-01"), alice)
	require.NoError(t, err)

	// title chỉ có khoảng trắng
	bad := validDoc("   ", "alice", "2024-01-01")
	rawBad, err := json.Marshal(bad)
	require.NoError(t, err)

	_, err = svc.Save(ctx, nb.ID, rawBad, alice)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{FieldTitle}, vErr.Missing)

	// bản cũ vẫn nguyên và vẫn fetch được theo slug cũ
	current, err := svc.Fetch(ctx, "my-page", nil)
	require.NoError(t, err)
	assert.Equal(t, "My Page", current.Title)
}

func TestSaveMalformedJSON(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	ctx := context.Background()

	nb, err := svc.Create(ctx, alice)
	require.NoError(t, err)

	_, err = svc.Save(ctx, nb.ID, []byte("{not json"), alice)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

// Lưu lại cùng tiêu đề không đổi slug, kể cả khi slug đang mang suffix.
func TestResaveKeepsSlug(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	bob := testUser("bob", models.RoleBasic)
	ctx := context.Background()

	nbA, err := svc.Create(ctx, alice)
	require.NoError(t, err)
	_, err = svc.Save(ctx, nbA.ID, docBytes(t, "My Page", "alice", "2024-01-01"), alice)
	require.NoError(t, err)

	nbB, err := svc.Create(ctx, bob)
	require.NoError(t, err)
	savedB, err := svc.Save(ctx, nbB.ID, docBytes(t, "My Page", "bob", "2024-01-01"), bob)
	require.NoError(t, err)
	require.Equal(t, "my-page-1", savedB.Slug)

	// re-save với cùng tiêu đề
	savedB2, err := svc.Save(ctx, nbB.ID, docBytes(t, "My Page", "bob", "2024-03-03"), bob)
	require.NoError(t, err)
	assert.Equal(t, "my-page-1", savedB2.Slug)
	assert.Equal(t, "2024-03-03", savedB2.Date)
}

func TestSaveChangedTitleChangesSlug(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	ctx := context.Background()

	nb, err := svc.Create(ctx, alice)
	require.NoError(t, err)
	_, err = svc.Save(ctx, nb.ID, docBytes(t, "My Page", "alice", "2024-01-01"), alice)
	require.NoError(t, err)

	saved, err := svc.Save(ctx, nb.ID, docBytes(t, "Renamed Page", "alice", "2024-01-01"), alice)
	require.NoError(t, err)
	assert.Equal(t, "renamed-page", saved.Slug)
}

// Một save khác chiếm mất slug giữa lúc quét và lúc ghi: Replace trả
// ErrSlugTaken, Save phải chạy lại vòng suffix và lấy my-page-1.
func TestSaveRetriesOnSlugRace(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	ctx := context.Background()

	nb, err := svc.Create(ctx, alice)
	require.NoError(t, err)

	raced := false
	store.replaceHook = func(candidate *models.Notebook) error {
		if raced {
			return nil
		}
		raced = true
		// đối thủ vừa ghi xong cùng slug
		rivalID := uuid.New()
		store.notebooks[rivalID] = &models.Notebook{
			ID:       rivalID,
			AuthorID: uuid.New(),
			Slug:     candidate.Slug,
		}
		return ErrSlugTaken
	}

	saved, err := svc.Save(ctx, nb.ID, docBytes(t, "My Page", "alice", "2024-01-01"), alice)
	require.NoError(t, err)
	assert.Equal(t, "my-page-1", saved.Slug)
}

func TestSaveConflictAfterRetryBudget(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	ctx := context.Background()

	nb, err := svc.Create(ctx, alice)
	require.NoError(t, err)

	store.replaceHook = func(candidate *models.Notebook) error {
		return ErrSlugTaken
	}

	_, err = svc.Save(ctx, nb.ID, docBytes(t, "My Page", "alice", "2024-01-01"), alice)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDeleteFreesSlugAndSecondDeleteNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	bob := testUser("bob", models.RoleBasic)
	ctx := context.Background()

	nbA, err := svc.Create(ctx, alice)
	require.NoError(t, err)
	_, err = svc.Save(ctx, nbA.ID, docBytes(t, "My Page", "alice", "2024-01-01"), alice)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, nbA.ID, alice))
	assert.ErrorIs(t, svc.Delete(ctx, nbA.ID, alice), ErrNotFound)

	// slug đã được giải phóng cho người khác
	nbB, err := svc.Create(ctx, bob)
	require.NoError(t, err)
	savedB, err := svc.Save(ctx, nbB.ID, docBytes(t, "My Page", "bob", "2024-01-01"), bob)
	require.NoError(t, err)
	assert.Equal(t, "my-page", savedB.Slug)
}

func TestDeleteForbiddenForNonAuthor(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	bob := testUser("bob", models.RoleBasic)
	ctx := context.Background()

	nb, err := svc.Create(ctx, alice)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, nb.ID, bob), ErrForbidden)

	// vẫn còn nguyên
	_, err = svc.Fetch(ctx, nb.ID.String(), nil)
	assert.NoError(t, err)
}

// Người không sở hữu hỏi document thô: trả not-found, không phải forbidden,
// để không lộ notebook nào tồn tại.
func TestFetchOwnedCollapsesForbiddenToNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	alice := testUser("alice", models.RoleBasic)
	bob := testUser("bob", models.RoleBasic)
	ctx := context.Background()

	nb, err := svc.Create(ctx, alice)
	require.NoError(t, err)

	_, err = svc.FetchOwned(ctx, nb.ID.String(), bob)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.FetchOwned(ctx, nb.ID.String(), alice)
	require.NoError(t, err)
	assert.Equal(t, nb.ID, got.ID)
}

// Document đã lưu theo schema cũ vẫn đọc và validate được sau Upgrade.
func TestDocumentUpgradesLegacyContent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	legacy := &models.Notebook{
		ID:       uuid.New(),
		AuthorID: uuid.New(),
		Content: `{"cells":[
			{"cell_type":"markdown","source":"<!-- title: Old Page -->"},
			{"cell_type":"markdown","source":"<!-- author: carol -->"},
			{"cell_type":"markdown","source":"<!-- date: 2022-12-12 -->"}
		]}`,
		SchemaVersion: 0,
	}
	store.putDirect(legacy)

	nb, err := store.FindByID(context.Background(), legacy.ID)
	require.NoError(t, err)
	doc, err := svc.Document(nb)
	require.NoError(t, err)

	meta, err := ExtractMetadata(doc)
	require.NoError(t, err)
	assert.Equal(t, "Old Page", meta.Title)
}
