package repository

import (
	"time"

	"github.com/jp973/groupnotify-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OtpTokenRepository struct {
	db *gorm.DB
}

func NewOtpTokenRepository(db *gorm.DB) *OtpTokenRepository {
	return &OtpTokenRepository{db: db}
}

// Upsert stores an OTP for the email, replacing any previous one.
func (r *OtpTokenRepository) Upsert(email, otp string, expiresAt time.Time) error {
	token := models.OtpToken{
		Email:     email,
		OTP:       otp,
		ExpiresAt: expiresAt,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"otp", "expires_at", "updated_at"}),
	}).Create(&token).Error
}

func (r *OtpTokenRepository) FindByEmailAndOTP(email, otp string) (*models.OtpToken, error) {
	var token models.OtpToken
	if err := r.db.Where("email = ? AND otp = ?", email, otp).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *OtpTokenRepository) DeleteByEmail(email string) error {
	return r.db.Where("email = ?", email).Delete(&models.OtpToken{}).Error
}
