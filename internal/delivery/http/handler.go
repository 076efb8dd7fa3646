package http

import (
	"context"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cleservice/backend/internal/domain"
	"github.com/cleservice/backend/internal/usecase"
)

// HandlerConfig holds request-level limits for the HTTP handlers
type HandlerConfig struct {
	DefaultMatchLimit int
	MaxMatchLimit     int
	MaxUploadBytes    int64
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver *usecase.CatalogResolver
	catalog  *usecase.CatalogService
	orders   *usecase.OrderService
	config   HandlerConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver *usecase.CatalogResolver, catalog *usecase.CatalogService, orders *usecase.OrderService, config HandlerConfig) *Handler {
	if config.DefaultMatchLimit <= 0 {
		config.DefaultMatchLimit = 5
	}
	if config.MaxMatchLimit < config.DefaultMatchLimit {
		config.MaxMatchLimit = config.DefaultMatchLimit
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 10 << 20
	}

	return &Handler{
		resolver: resolver,
		catalog:  catalog,
		orders:   orders,
		config:   config,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cleservice-backend",
		"version": "1.0.0",
	})
}

type keyNameQuery struct {
	Name string `form:"nom" binding:"required"`
}

type exactNameQuery struct {
	Name     string `form:"nom" binding:"required"`
	Fallback string `form:"fallback" binding:"omitempty,oneof=best"`
}

type searchQuery struct {
	Name  string `form:"nom" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1"`
}

type brandQuery struct {
	Brand string `form:"marque" binding:"required"`
}

type pageQuery struct {
	Limit int `form:"limit"`
	Skip  int `form:"skip" binding:"omitempty,min=0"`
}

type indexURI struct {
	Brand string `uri:"brand"`
	Index int    `uri:"index" binding:"min=0"`
}

// ListByBrand returns every key of the requested brand
func (h *Handler) ListByBrand(c *gin.Context) {
	var q brandQuery
	if !bindQuery(c, &q) {
		return
	}

	entries, err := h.resolver.ListByBrand(c.Request.Context(), q.Brand)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetByName returns the key whose name matches exactly. With fallback=best a
// miss falls back to the closest key.
func (h *Handler) GetByName(c *gin.Context) {
	var q exactNameQuery
	if !bindQuery(c, &q) {
		return
	}

	ctx := c.Request.Context()
	entry, err := h.resolver.GetExact(ctx, q.Name)
	if errors.Is(err, domain.ErrKeyNotFound) && q.Fallback == "best" {
		entry, err = h.resolver.FindBestMatch(ctx, q.Name)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GetBestByName returns the key closest to the requested name
func (h *Handler) GetBestByName(c *gin.Context) {
	var q keyNameQuery
	if !bindQuery(c, &q) {
		return
	}

	entry, err := h.resolver.FindBestMatch(c.Request.Context(), q.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// SearchByName returns the keys closest to the requested name, best first
func (h *Handler) SearchByName(c *gin.Context) {
	var q searchQuery
	if !bindQuery(c, &q) {
		return
	}

	limit := q.Limit
	if limit == 0 {
		limit = h.config.DefaultMatchLimit
	}
	limit = min(limit, h.config.MaxMatchLimit)

	ranked, err := h.resolver.RankMatches(c.Request.Context(), q.Name, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranked)
}

// ListAll returns one page of the catalog
func (h *Handler) ListAll(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}

	entries, err := h.resolver.ListAll(c.Request.Context(), q.Limit, q.Skip)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Count returns the number of keys in the catalog
func (h *Handler) Count(c *gin.Context) {
	count, err := h.resolver.Count(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// CountByBrand returns the number of keys of one brand
func (h *Handler) CountByBrand(c *gin.Context) {
	count, err := h.resolver.CountByBrand(c.Request.Context(), c.Param("brand"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetByIndex returns the key at a zero-based position, optionally within a brand
func (h *Handler) GetByIndex(c *gin.Context) {
	var uri indexURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var (
		entry *domain.CatalogEntry
		err   error
	)
	if uri.Brand != "" {
		entry, err = h.resolver.GetByBrandAndIndex(ctx, uri.Brand, uri.Index)
	} else {
		entry, err = h.resolver.GetByIndex(ctx, uri.Index)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// AddKey creates one catalog key
func (h *Handler) AddKey(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.catalog.AddKey(c.Request.Context(), req.toEntry())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// AddKeys creates several catalog keys at once
func (h *Handler) AddKeys(c *gin.Context) {
	var req []keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries := make([]domain.CatalogEntry, len(req))
	for i, r := range req {
		entries[i] = r.toEntry()
	}

	added, err := h.catalog.AddKeys(c.Request.Context(), entries)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

// UpdateKey patches the key named by the nom query parameter
func (h *Handler) UpdateKey(c *gin.Context) {
	var q keyNameQuery
	if !bindQuery(c, &q) {
		return
	}

	var patch domain.CatalogEntryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.catalog.UpdateByName(c.Request.Context(), q.Name, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteKey removes the key named by the nom query parameter
func (h *Handler) DeleteKey(c *gin.Context) {
	var q keyNameQuery
	if !bindQuery(c, &q) {
		return
	}

	if err := h.catalog.DeleteByName(c.Request.Context(), q.Name); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// keyRequest is the JSON body accepted when creating catalog keys
type keyRequest struct {
	Name               string   `json:"nom" binding:"required"`
	Brand              string   `json:"marque" binding:"required"`
	Price              float64  `json:"prix" binding:"min=0"`
	WithPropertyCard   bool     `json:"cleAvecCartePropriete"`
	PriceWithoutCard   float64  `json:"prixSansCartePropriete" binding:"min=0"`
	ImageURL           string   `json:"imageUrl"`
	BlankReference     *string  `json:"referenceEbauche"`
	ReproductionType   string   `json:"typeReproduction" binding:"omitempty,oneof=copie numero ia"`
	NumberDescription  string   `json:"descriptionNumero"`
	ProductDescription string   `json:"descriptionProduit"`
	IsMasterKey        bool     `json:"estCleAPasse"`
	MasterKeyPrice     *float64 `json:"prixCleAPasse"`
	NeedsPhoto         bool     `json:"besoinPhoto"`
	NeedsKeyNumber     bool     `json:"besoinNumeroCle"`
	NeedsCardNumber    bool     `json:"besoinNumeroCarte"`
	FileFee            float64  `json:"fraisDeDossier" binding:"min=0"`
}

func (r keyRequest) toEntry() domain.CatalogEntry {
	return domain.CatalogEntry{
		Name:               r.Name,
		Brand:              r.Brand,
		Price:              r.Price,
		WithPropertyCard:   r.WithPropertyCard,
		PriceWithoutCard:   r.PriceWithoutCard,
		ImageURL:           r.ImageURL,
		BlankReference:     r.BlankReference,
		ReproductionType:   domain.ReproductionType(r.ReproductionType),
		NumberDescription:  r.NumberDescription,
		ProductDescription: r.ProductDescription,
		IsMasterKey:        r.IsMasterKey,
		MasterKeyPrice:     r.MasterKeyPrice,
		NeedsPhoto:         r.NeedsPhoto,
		NeedsKeyNumber:     r.NeedsKeyNumber,
		NeedsCardNumber:    r.NeedsCardNumber,
		FileFee:            r.FileFee,
	}
}

// createOrderForm is the multipart form of an order submission
type createOrderForm struct {
	CustomerName         string  `form:"nom" binding:"required"`
	Address              string  `form:"adresse"`
	PostalCode           string  `form:"codePostal"`
	City                 string  `form:"ville"`
	AdditionalInfo       string  `form:"additionalInfo"`
	Phone                string  `form:"telephone" binding:"required"`
	Email                string  `form:"adresseMail" binding:"required,email"`
	ArticleName          string  `form:"articleName"`
	KeyNumber            string  `form:"keyNumber"`
	PropertyCardNumber   string  `form:"propertyCardNumber"`
	ShippingMethod       string  `form:"shippingMethod"`
	DeliveryType         string  `form:"deliveryType"`
	Price                float64 `form:"prix" binding:"min=0"`
	Quantity             int     `form:"quantity" binding:"min=0"`
	IsMasterKey          *bool   `form:"isCleAPasse"`
	OwnershipAttestation *bool   `form:"attestationPropriete"`
	LostPropertyCard     bool    `form:"lostCartePropriete"`
	ProofOfAddressPath   string  `form:"domicileJustificatifPath"`
}

// CreateOrder accepts a multipart order submission with optional photos
func (h *Handler) CreateOrder(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxUploadBytes)

	var form createOrderForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := usecase.CreateOrderInput{
		CustomerName:         form.CustomerName,
		Address:              form.Address,
		PostalCode:           form.PostalCode,
		City:                 form.City,
		AdditionalInfo:       form.AdditionalInfo,
		Phone:                form.Phone,
		Email:                form.Email,
		ArticleName:          form.ArticleName,
		KeyNumber:            form.KeyNumber,
		PropertyCardNumber:   form.PropertyCardNumber,
		ShippingMethod:       form.ShippingMethod,
		DeliveryType:         form.DeliveryType,
		Price:                form.Price,
		Quantity:             form.Quantity,
		IsMasterKey:          form.IsMasterKey,
		OwnershipAttestation: form.OwnershipAttestation,
		LostPropertyCard:     form.LostPropertyCard,
		ProofOfAddressPath:   form.ProofOfAddressPath,
	}

	uploads := []struct {
		field string
		dst   *[]byte
	}{
		{"frontPhoto", &input.FrontPhoto},
		{"backPhoto", &input.BackPhoto},
		{"idCardFront", &input.IDCardFront},
		{"idCardBack", &input.IDCardBack},
	}
	for _, u := range uploads {
		data, err := readUpload(c, u.field)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		*u.dst = data
	}

	order, err := h.orders.Create(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"numeroCommande": order.Number,
		"dateCommande":   order.CreatedAt,
	})
}

// ValidateOrder marks an order as paid
func (h *Handler) ValidateOrder(c *gin.Context) {
	if _, err := h.orders.Validate(c.Request.Context(), c.Param("numero")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CancelOrder marks an order as cancelled
func (h *Handler) CancelOrder(c *gin.Context) {
	if _, err := h.orders.Cancel(c.Request.Context(), c.Param("numero")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type orderPageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// ListPaidOrders returns paid orders newest first
func (h *Handler) ListPaidOrders(c *gin.Context) {
	var q orderPageQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.orders.ListPaid(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetOrder returns one order by number
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("numero"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder patches one order by number
func (h *Handler) UpdateOrder(c *gin.Context) {
	var patch domain.OrderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.Update(c.Request.Context(), c.Param("numero"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// bindQuery binds query parameters into dst, answering 400 on failure
func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// readUpload returns the content of the named multipart file, or nil when absent
func readUpload(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return readFileHeader(header)
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// writeError maps domain errors onto HTTP status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrKeyNotFound), errors.Is(err, domain.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateKey), errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidUpload):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
