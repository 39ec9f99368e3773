package repos

import (
	"time"

	"github.com/DeanWanghewei/mirror-git/internal/storage"
)

// recordModel is the stored form of a mirrored repository.
type recordModel struct {
	storage.BaseEntity

	Name      string `json:"name"`
	SourceURL string `json:"source_url"`
	Namespace string `json:"namespace,omitempty"`
	Enabled   bool   `json:"enabled"`

	LocalPath      string     `json:"local_path,omitempty"`
	SizeBytes      int64      `json:"size_bytes"`
	LastSyncStatus SyncStatus `json:"last_sync_status"`
	LastSyncTime   *time.Time `json:"last_sync_time,omitempty"`
	LastSyncError  string     `json:"last_sync_error,omitempty"`
}

func newRecordModel(draft *RecordDraft) *recordModel {
	if draft == nil {
		return nil
	}

	return &recordModel{
		BaseEntity: storage.NewBaseEntity(),

		Name:      draft.Name,
		SourceURL: draft.SourceURL,
		Namespace: draft.Namespace,
		Enabled:   draft.Enabled,

		LastSyncStatus: SyncStatusPending,
	}
}

func newRecordUpdateModel(old *recordModel, update *RecordUpdate) *recordModel {
	return &recordModel{
		BaseEntity: old.BaseEntity.Touched(),

		Name:      update.Name,
		SourceURL: update.SourceURL,
		Namespace: update.Namespace,
		Enabled:   update.Enabled,

		LocalPath:      update.LocalPath,
		SizeBytes:      update.SizeBytes,
		LastSyncStatus: update.LastSyncStatus,
		LastSyncTime:   update.LastSyncTime,
		LastSyncError:  update.LastSyncError,
	}
}

func newRecord(model *recordModel) *Record {
	if model == nil {
		return nil
	}

	return &Record{
		RecordUpdate: RecordUpdate{
			RecordDraft: RecordDraft{
				Name:      model.Name,
				SourceURL: model.SourceURL,
				Namespace: model.Namespace,
				Enabled:   model.Enabled,
			},
			LocalPath:      model.LocalPath,
			SizeBytes:      model.SizeBytes,
			LastSyncStatus: model.LastSyncStatus,
			LastSyncTime:   model.LastSyncTime,
			LastSyncError:  model.LastSyncError,
		},
		ID:        model.ID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
