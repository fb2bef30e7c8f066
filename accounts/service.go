package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/alkemata/reasonreport-backend/models"
	"github.com/alkemata/reasonreport-backend/notebook"
	"github.com/alkemata/reasonreport-backend/utils"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrResetInvalid       = errors.New("reset token invalid, used or expired")
)

const resetTokenTTL = time.Hour

// Service quản lý tài khoản: đăng ký (kèm scaffold notebook), đăng nhập,
// đổi mật khẩu, thao tác admin và reset mật khẩu qua email.
type Service struct {
	db        *gorm.DB
	notebooks *notebook.Service
	logger    *slog.Logger
}

func NewService(db *gorm.DB, notebooks *notebook.Service, logger *slog.Logger) *Service {
	return &Service{db: db, notebooks: notebooks, logger: logger}
}

// Register tạo user mới rồi scaffold luôn notebook cá nhân của họ.
// Username phân biệt hoa thường và không đổi được sau khi đặt.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, *models.Notebook, error) {
	var existing models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, nil, ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Password: string(hashed),
		Role:     models.RoleBasic,
		Status:   models.StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrUsernameTaken
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	nb, err := s.notebooks.Create(ctx, user)
	if err != nil {
		s.logger.Error("scaffold notebook failed",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
		return nil, nil, err
	}
	return user, nb, nil
}

// Authenticate kiểm tra username/password. Sai username hay sai mật khẩu
// đều trả cùng một lỗi.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ChangePassword đổi mật khẩu của chính user (đã xác thực qua middleware).
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", string(hashed))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AdminUpdateInput: trường nil thì giữ nguyên. Username không nằm trong
// danh sách, immutable.
type AdminUpdateInput struct {
	Role     *models.UserRole
	Status   *models.UserStatus
	Password *string
}

func (s *Service) AdminUpdate(ctx context.Context, id uuid.UUID, input AdminUpdateInput) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Role != nil {
		updates["role"] = *input.Role
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password"] = string(hashed)
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Delete xoá user và toàn bộ notebook của họ (slug được giải phóng theo).
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Notebook{}, "author_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// CreatePasswordReset sinh token một lần, hạn 1 giờ.
func (s *Service) CreatePasswordReset(ctx context.Context, username string) (*models.PasswordReset, *models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	token, err := utils.RandomString(48)
	if err != nil {
		return nil, nil, fmt.Errorf("generate reset token: %w", err)
	}

	reset := &models.PasswordReset{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.db.WithContext(ctx).Create(reset).Error; err != nil {
		return nil, nil, err
	}
	return reset, user, nil
}

// ConsumePasswordReset dùng token đúng một lần để đặt mật khẩu mới.
func (s *Service) ConsumePasswordReset(ctx context.Context, token, newPassword string) error {
	var reset models.PasswordReset
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&reset).Error
	if err != nil {
		return ErrResetInvalid
	}
	if reset.UsedAt != nil || time.Now().After(reset.ExpiresAt) {
		return ErrResetInvalid
	}

	if err := s.ChangePassword(ctx, reset.UserID, newPassword); err != nil {
		return err
	}

	now := time.Now()
	return s.db.WithContext(ctx).Model(&reset).Update("used_at", &now).Error
}
