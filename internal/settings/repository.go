package settings

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	stderrors "errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spectrumleads/formgate/internal/models"
	"github.com/spectrumleads/formgate/pkg/crypto"
	"github.com/spectrumleads/formgate/pkg/errors"
)

// RecordName is the row key for the settings blob.
const RecordName = "inquiry_form"

// GormRepository stores the settings blob as a JSON column. When an
// encryption key is provided the serialized blob is sealed at rest.
type GormRepository struct {
	db  *gorm.DB
	key []byte
}

// NewGormRepository creates a repository. encryptionKey may be empty, in
// which case the blob is stored as plain JSON. Non-empty keys are stretched
// to the AES-256 key size.
func NewGormRepository(db *gorm.DB, encryptionKey string) *GormRepository {
	repo := &GormRepository{db: db}
	if encryptionKey != "" {
		sum := sha256.Sum256([]byte(encryptionKey))
		repo.key = sum[:]
	}
	return repo
}

type sealedBlob struct {
	Sealed string `json:"sealed"`
}

// Load reads the settings blob, returning a zero Blob when none was saved.
func (r *GormRepository) Load(ctx context.Context) (Blob, error) {
	var record models.SettingsRecord
	err := r.db.WithContext(ctx).First(&record, "name = ?", RecordName).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return Blob{}, nil
		}
		return Blob{}, errors.ErrInternalServer.WithInternal(err)
	}

	raw := []byte(record.Value)
	if len(r.key) > 0 {
		var sealed sealedBlob
		if err := json.Unmarshal(raw, &sealed); err == nil && sealed.Sealed != "" {
			plain, err := crypto.Decrypt(sealed.Sealed, r.key)
			if err != nil {
				return Blob{}, errors.ErrInternalServer.WithInternal(err)
			}
			raw = plain
		}
	}

	var blob Blob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return Blob{}, errors.ErrInternalServer.WithInternal(err)
	}
	return blob, nil
}

// Save sanitizes and persists the blob, creating the row if needed.
func (r *GormRepository) Save(ctx context.Context, blob Blob) error {
	payload, err := json.Marshal(blob.Sanitized())
	if err != nil {
		return errors.ErrInternalServer.WithInternal(err)
	}

	if len(r.key) > 0 {
		sealed, err := crypto.Encrypt(payload, r.key)
		if err != nil {
			return errors.ErrInternalServer.WithInternal(err)
		}
		payload, err = json.Marshal(sealedBlob{Sealed: sealed})
		if err != nil {
			return errors.ErrInternalServer.WithInternal(err)
		}
	}

	record := models.SettingsRecord{
		Name:  RecordName,
		Value: datatypes.JSON(payload),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return errors.ErrInternalServer.WithInternal(err)
	}
	return nil
}
