package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/repository"
	"gorm.io/gorm"
)

// AdminHandler serves the manufacturing console: device registry,
// batches, inventory, purchase orders, firmware, QA reports and
// shipments. All routes sit behind AdminMiddleware.
type AdminHandler struct {
	mfg *repository.ManufacturingRepository
}

func NewAdminHandler(mfg *repository.ManufacturingRepository) *AdminHandler {
	return &AdminHandler{mfg: mfg}
}

// respondAdminError maps repository errors for the console endpoints
func respondAdminError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "not-found", Message: "Record not found."})
		return
	}
	respondError(c, err)
}

// bindUpdates reads a JSON body into an update map, keeping only the
// allowed columns
func bindUpdates(c *gin.Context, allowed ...string) (map[string]interface{}, bool) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return nil, false
	}

	updates := make(map[string]interface{})
	for _, col := range allowed {
		if v, ok := body[col]; ok {
			updates[col] = v
		}
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: "no updatable fields in body"})
		return nil, false
	}
	return updates, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

// optionalBatchFilter reads the ?batch_id= query filter
func optionalBatchFilter(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("batch_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid batch_id"})
		return nil, false
	}
	return &id, true
}

// ========== Device registry ==========

// CreateDevices godoc
// @Summary Mint device records for a batch
// @Description Creates count devices with serials derived from the batch code. Devices start unencoded and cannot be linked until encoded.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateDevicesRequest true "Batch, kind and count"
// @Success 201 {array} model.Device
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/devices [post]
func (h *AdminHandler) CreateDevices(c *gin.Context) {
	var req model.CreateDevicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	devices, err := h.mfg.CreateDevices(req)
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusCreated, devices)
}

// EncodeDevice godoc
// @Summary Encode (provision) a device
// @Description One-time provisioning step that makes a device linkable. Encoding an already-encoded device returns it unchanged.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Device serial"
// @Success 200 {object} model.Device
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/devices/{id}/encode [post]
func (h *AdminHandler) EncodeDevice(c *gin.Context) {
	dev, err := h.mfg.EncodeDevice(c.Param("id"))
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, dev)
}

// ListDevices godoc
// @Summary List the device registry
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param batch_id query string false "Filter by batch"
// @Success 200 {array} model.Device
// @Router /admin/devices [get]
func (h *AdminHandler) ListDevices(c *gin.Context) {
	batchID, ok := optionalBatchFilter(c)
	if !ok {
		return
	}

	devices, err := h.mfg.ListDevices(batchID)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// DeleteDevice godoc
// @Summary Delete a device registry entry
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Device serial"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/devices/{id} [delete]
func (h *AdminHandler) DeleteDevice(c *gin.Context) {
	if err := h.mfg.DeleteDevice(c.Param("id")); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Device deleted"})
}

// ========== Batches ==========

// CreateBatch godoc
// @Summary Create a production batch
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.Batch true "Batch"
// @Success 201 {object} model.Batch
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/batches [post]
func (h *AdminHandler) CreateBatch(c *gin.Context) {
	var b model.Batch
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	if b.Code == "" || b.Kind == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: "code and kind are required"})
		return
	}

	if err := h.mfg.CreateBatch(&b); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// ListBatches godoc
// @Summary List production batches
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Batch
// @Router /admin/batches [get]
func (h *AdminHandler) ListBatches(c *gin.Context) {
	batches, err := h.mfg.ListBatches()
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}

// GetBatch godoc
// @Summary Get a batch with its devices
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Batch ID"
// @Success 200 {object} model.Batch
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/batches/{id} [get]
func (h *AdminHandler) GetBatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.mfg.GetBatch(id)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// UpdateBatch godoc
// @Summary Update a batch
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Batch ID"
// @Success 200 {object} model.Batch
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/batches/{id} [patch]
func (h *AdminHandler) UpdateBatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	updates, ok := bindUpdates(c, "status", "quantity", "started_at", "finished_at", "notes")
	if !ok {
		return
	}

	b, err := h.mfg.UpdateBatch(id, updates)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBatch godoc
// @Summary Delete a batch
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Batch ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/batches/{id} [delete]
func (h *AdminHandler) DeleteBatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.mfg.DeleteBatch(id); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Batch deleted"})
}

// ========== Inventory ==========

// CreateInventoryItem godoc
// @Summary Create an inventory item
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.InventoryItem true "Inventory item"
// @Success 201 {object} model.InventoryItem
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/inventory [post]
func (h *AdminHandler) CreateInventoryItem(c *gin.Context) {
	var item model.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	if item.SKU == "" || item.Name == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: "sku and name are required"})
		return
	}

	if err := h.mfg.CreateInventoryItem(&item); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListInventory godoc
// @Summary List inventory items
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.InventoryItem
// @Router /admin/inventory [get]
func (h *AdminHandler) ListInventory(c *gin.Context) {
	items, err := h.mfg.ListInventory()
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// UpdateInventoryItem godoc
// @Summary Update an inventory item
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} model.InventoryItem
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/inventory/{id} [patch]
func (h *AdminHandler) UpdateInventoryItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	updates, ok := bindUpdates(c, "name", "category", "quantity", "reorder_at", "location")
	if !ok {
		return
	}

	item, err := h.mfg.UpdateInventoryItem(id, updates)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteInventoryItem godoc
// @Summary Delete an inventory item
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/inventory/{id} [delete]
func (h *AdminHandler) DeleteInventoryItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.mfg.DeleteInventoryItem(id); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Item deleted"})
}

// ========== Purchase orders ==========

// CreatePurchaseOrder godoc
// @Summary Create a purchase order
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.PurchaseOrder true "Purchase order"
// @Success 201 {object} model.PurchaseOrder
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/purchase-orders [post]
func (h *AdminHandler) CreatePurchaseOrder(c *gin.Context) {
	var po model.PurchaseOrder
	if err := c.ShouldBindJSON(&po); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	if po.Number == "" || po.Supplier == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: "number and supplier are required"})
		return
	}

	if err := h.mfg.CreatePurchaseOrder(&po); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

// ListPurchaseOrders godoc
// @Summary List purchase orders
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.PurchaseOrder
// @Router /admin/purchase-orders [get]
func (h *AdminHandler) ListPurchaseOrders(c *gin.Context) {
	orders, err := h.mfg.ListPurchaseOrders()
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// UpdatePurchaseOrder godoc
// @Summary Update a purchase order
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} model.PurchaseOrder
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/purchase-orders/{id} [patch]
func (h *AdminHandler) UpdatePurchaseOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	updates, ok := bindUpdates(c, "status", "supplier", "total_cents", "currency", "ordered_at", "received_at", "notes")
	if !ok {
		return
	}

	po, err := h.mfg.UpdatePurchaseOrder(id, updates)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

// DeletePurchaseOrder godoc
// @Summary Delete a purchase order
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/purchase-orders/{id} [delete]
func (h *AdminHandler) DeletePurchaseOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.mfg.DeletePurchaseOrder(id); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Purchase order deleted"})
}

// ========== Firmware ==========

// CreateFirmwareRelease godoc
// @Summary Publish a firmware release
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.FirmwareRelease true "Firmware release"
// @Success 201 {object} model.FirmwareRelease
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/firmware [post]
func (h *AdminHandler) CreateFirmwareRelease(c *gin.Context) {
	var fw model.FirmwareRelease
	if err := c.ShouldBindJSON(&fw); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	if fw.Version == "" || fw.Kind == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: "version and kind are required"})
		return
	}

	if err := h.mfg.CreateFirmwareRelease(&fw); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fw)
}

// ListFirmwareReleases godoc
// @Summary List firmware releases
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.FirmwareRelease
// @Router /admin/firmware [get]
func (h *AdminHandler) ListFirmwareReleases(c *gin.Context) {
	releases, err := h.mfg.ListFirmwareReleases()
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, releases)
}

// UpdateFirmwareRelease godoc
// @Summary Update a firmware release
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Release ID"
// @Success 200 {object} model.FirmwareRelease
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/firmware/{id} [patch]
func (h *AdminHandler) UpdateFirmwareRelease(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	updates, ok := bindUpdates(c, "url", "checksum", "changelog", "released_at")
	if !ok {
		return
	}

	fw, err := h.mfg.UpdateFirmwareRelease(id, updates)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, fw)
}

// DeleteFirmwareRelease godoc
// @Summary Delete a firmware release
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Release ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/firmware/{id} [delete]
func (h *AdminHandler) DeleteFirmwareRelease(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.mfg.DeleteFirmwareRelease(id); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Release deleted"})
}

// ========== QA reports ==========

// CreateQAReport godoc
// @Summary Record a QA report for a batch
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.QAReport true "QA report"
// @Success 201 {object} model.QAReport
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/qa-reports [post]
func (h *AdminHandler) CreateQAReport(c *gin.Context) {
	var report model.QAReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	if report.BatchID == uuid.Nil || report.Inspector == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: "batch_id and inspector are required"})
		return
	}

	if err := h.mfg.CreateQAReport(&report); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ListQAReports godoc
// @Summary List QA reports
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param batch_id query string false "Filter by batch"
// @Success 200 {array} model.QAReport
// @Router /admin/qa-reports [get]
func (h *AdminHandler) ListQAReports(c *gin.Context) {
	batchID, ok := optionalBatchFilter(c)
	if !ok {
		return
	}

	reports, err := h.mfg.ListQAReports(batchID)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// DeleteQAReport godoc
// @Summary Delete a QA report
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/qa-reports/{id} [delete]
func (h *AdminHandler) DeleteQAReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.mfg.DeleteQAReport(id); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Report deleted"})
}

// ========== Shipments ==========

// CreateShipment godoc
// @Summary Create a shipment
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.Shipment true "Shipment"
// @Success 201 {object} model.Shipment
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/shipments [post]
func (h *AdminHandler) CreateShipment(c *gin.Context) {
	var sh model.Shipment
	if err := c.ShouldBindJSON(&sh); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	if sh.Carrier == "" || sh.Destination == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: "carrier and destination are required"})
		return
	}

	if err := h.mfg.CreateShipment(&sh); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sh)
}

// ListShipments godoc
// @Summary List shipments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Shipment
// @Router /admin/shipments [get]
func (h *AdminHandler) ListShipments(c *gin.Context) {
	shipments, err := h.mfg.ListShipments()
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipments)
}

// UpdateShipment godoc
// @Summary Update a shipment
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Success 200 {object} model.Shipment
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/shipments/{id} [patch]
func (h *AdminHandler) UpdateShipment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	updates, ok := bindUpdates(c, "carrier", "tracking", "destination", "status", "shipped_at", "delivered_at")
	if !ok {
		return
	}

	sh, err := h.mfg.UpdateShipment(id, updates)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}

// DeleteShipment godoc
// @Summary Delete a shipment
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /admin/shipments/{id} [delete]
func (h *AdminHandler) DeleteShipment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.mfg.DeleteShipment(id); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Shipment deleted"})
}
