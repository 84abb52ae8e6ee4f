package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
	"gorm.io/gorm"
)

// ManufacturingRepository handles the admin console collections: device
// registry, batches, inventory, purchase orders, firmware, QA reports and
// shipments.
type ManufacturingRepository struct {
	db *gorm.DB
}

func NewManufacturingRepository(db *gorm.DB) *ManufacturingRepository {
	return &ManufacturingRepository{db: db}
}

func create[T any](db *gorm.DB, rec *T) error {
	return db.Create(rec).Error
}

func findByID[T any](db *gorm.DB, id uuid.UUID) (*T, error) {
	var rec T
	if err := db.First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func listAll[T any](db *gorm.DB) ([]T, error) {
	var recs []T
	err := db.Order("created_at DESC").Find(&recs).Error
	return recs, err
}

func updateByID[T any](db *gorm.DB, id uuid.UUID, updates map[string]interface{}) (*T, error) {
	var rec T
	res := db.Model(&rec).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return findByID[T](db, id)
}

func deleteByID[T any](db *gorm.DB, id uuid.UUID) error {
	var rec T
	res := db.Where("id = ?", id).Delete(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ========== Device registry ==========

// CreateDevices mints count device records against a batch, serials
// derived from the batch code
func (r *ManufacturingRepository) CreateDevices(req model.CreateDevicesRequest) ([]model.Device, error) {
	batch, err := findByID[model.Batch](r.db, req.BatchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	var existing int64
	if err := r.db.Model(&model.Device{}).Where("batch_id = ?", batch.ID).Count(&existing).Error; err != nil {
		return nil, err
	}

	devices := make([]model.Device, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		devices = append(devices, model.Device{
			ID:       fmt.Sprintf("%s-%04d", batch.Code, int(existing)+i+1),
			Kind:     req.Kind,
			BatchID:  &batch.ID,
			Firmware: req.Firmware,
		})
	}
	if err := r.db.Create(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// EncodeDevice performs the one-time provisioning step that makes a
// device linkable. Encoding an encoded device keeps the original stamp.
func (r *ManufacturingRepository) EncodeDevice(deviceID string) (*model.Device, error) {
	var dev model.Device
	if err := r.db.First(&dev, "id = ?", deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrDeviceNotFound
		}
		return nil, err
	}
	if dev.Encoded {
		return &dev, nil
	}
	now := time.Now()
	if err := r.db.Model(&model.Device{}).Where("id = ?", deviceID).Updates(map[string]interface{}{
		"encoded":    true,
		"encoded_at": now,
	}).Error; err != nil {
		return nil, err
	}
	dev.Encoded = true
	dev.EncodedAt = &now
	return &dev, nil
}

// ListDevices returns the registry, optionally filtered by batch
func (r *ManufacturingRepository) ListDevices(batchID *uuid.UUID) ([]model.Device, error) {
	q := r.db.Order("created_at DESC")
	if batchID != nil {
		q = q.Where("batch_id = ?", *batchID)
	}
	var devices []model.Device
	err := q.Find(&devices).Error
	return devices, err
}

// DeleteDevice hard-deletes a registry entry (administrator only path)
func (r *ManufacturingRepository) DeleteDevice(deviceID string) error {
	res := r.db.Where("id = ?", deviceID).Delete(&model.Device{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrDeviceNotFound
	}
	return nil
}

// ========== Batches ==========

func (r *ManufacturingRepository) CreateBatch(b *model.Batch) error { return create(r.db, b) }
func (r *ManufacturingRepository) GetBatch(id uuid.UUID) (*model.Batch, error) {
	return findByID[model.Batch](r.db, id)
}
func (r *ManufacturingRepository) ListBatches() ([]model.Batch, error) {
	return listAll[model.Batch](r.db)
}
func (r *ManufacturingRepository) UpdateBatch(id uuid.UUID, updates map[string]interface{}) (*model.Batch, error) {
	return updateByID[model.Batch](r.db, id, updates)
}
func (r *ManufacturingRepository) DeleteBatch(id uuid.UUID) error {
	return deleteByID[model.Batch](r.db, id)
}

// ========== Inventory ==========

func (r *ManufacturingRepository) CreateInventoryItem(i *model.InventoryItem) error {
	return create(r.db, i)
}
func (r *ManufacturingRepository) ListInventory() ([]model.InventoryItem, error) {
	return listAll[model.InventoryItem](r.db)
}
func (r *ManufacturingRepository) UpdateInventoryItem(id uuid.UUID, updates map[string]interface{}) (*model.InventoryItem, error) {
	return updateByID[model.InventoryItem](r.db, id, updates)
}
func (r *ManufacturingRepository) DeleteInventoryItem(id uuid.UUID) error {
	return deleteByID[model.InventoryItem](r.db, id)
}

// ========== Purchase orders ==========

func (r *ManufacturingRepository) CreatePurchaseOrder(po *model.PurchaseOrder) error {
	return create(r.db, po)
}
func (r *ManufacturingRepository) ListPurchaseOrders() ([]model.PurchaseOrder, error) {
	return listAll[model.PurchaseOrder](r.db)
}
func (r *ManufacturingRepository) UpdatePurchaseOrder(id uuid.UUID, updates map[string]interface{}) (*model.PurchaseOrder, error) {
	return updateByID[model.PurchaseOrder](r.db, id, updates)
}
func (r *ManufacturingRepository) DeletePurchaseOrder(id uuid.UUID) error {
	return deleteByID[model.PurchaseOrder](r.db, id)
}

// ========== Firmware ==========

func (r *ManufacturingRepository) CreateFirmwareRelease(f *model.FirmwareRelease) error {
	return create(r.db, f)
}
func (r *ManufacturingRepository) ListFirmwareReleases() ([]model.FirmwareRelease, error) {
	return listAll[model.FirmwareRelease](r.db)
}
func (r *ManufacturingRepository) UpdateFirmwareRelease(id uuid.UUID, updates map[string]interface{}) (*model.FirmwareRelease, error) {
	return updateByID[model.FirmwareRelease](r.db, id, updates)
}
func (r *ManufacturingRepository) DeleteFirmwareRelease(id uuid.UUID) error {
	return deleteByID[model.FirmwareRelease](r.db, id)
}

// ========== QA reports ==========

func (r *ManufacturingRepository) CreateQAReport(q *model.QAReport) error { return create(r.db, q) }
func (r *ManufacturingRepository) ListQAReports(batchID *uuid.UUID) ([]model.QAReport, error) {
	q := r.db.Order("created_at DESC")
	if batchID != nil {
		q = q.Where("batch_id = ?", *batchID)
	}
	var reports []model.QAReport
	err := q.Find(&reports).Error
	return reports, err
}
func (r *ManufacturingRepository) DeleteQAReport(id uuid.UUID) error {
	return deleteByID[model.QAReport](r.db, id)
}

// ========== Shipments ==========

func (r *ManufacturingRepository) CreateShipment(sh *model.Shipment) error { return create(r.db, sh) }
func (r *ManufacturingRepository) ListShipments() ([]model.Shipment, error) {
	return listAll[model.Shipment](r.db)
}
func (r *ManufacturingRepository) UpdateShipment(id uuid.UUID, updates map[string]interface{}) (*model.Shipment, error) {
	return updateByID[model.Shipment](r.db, id, updates)
}
func (r *ManufacturingRepository) DeleteShipment(id uuid.UUID) error {
	return deleteByID[model.Shipment](r.db, id)
}
