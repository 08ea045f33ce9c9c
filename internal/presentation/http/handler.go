package httppresentation

import (
	"net/http"
	"strconv"

	appcart "github.com/Zhima-Mochi/notafiscal-console/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/application/catalog"
	appinvoice "github.com/Zhima-Mochi/notafiscal-console/internal/application/invoice"
	appnotification "github.com/Zhima-Mochi/notafiscal-console/internal/application/notification"
	domcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const componentHTTPHandler = "http_server"

// Handler exposes the console stores as a JSON API.
type Handler struct {
	catalog  *appcatalog.Store
	cart     *appcart.Aggregator
	invoices *appinvoice.Workflow
	feed     *appnotification.Feed

	service  string
	gatherer prometheus.Gatherer
	log      observability.Logger
	tel      observability.Observability
}

type Deps struct {
	Catalog  *appcatalog.Store
	Cart     *appcart.Aggregator
	Invoices *appinvoice.Workflow
	Feed     *appnotification.Feed
	// Gatherer backs /metrics; the route is skipped when nil.
	Gatherer prometheus.Gatherer
}

func NewHandler(service string, deps Deps, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		catalog:  deps.Catalog,
		cart:     deps.Cart,
		invoices: deps.Invoices,
		feed:     deps.Feed,
		service:  service,
		gatherer: deps.Gatherer,
		log:      tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
	}
}

// Router wires: Recovery → Trace (otelgin) → request logger/metrics/access log → handler.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(h.service))
	r.Use(ObservabilityMiddleware(h.log, h.tel))

	r.GET("/health", h.handleHealth)
	if h.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/products", h.handleListProducts)
		api.POST("/products/reload", h.handleReloadProducts)
		api.POST("/products", h.handleCreateProduct)
		api.PUT("/products/:id/selection", h.handleSelect)

		api.GET("/cart", h.handleGetCart)
		api.POST("/cart/lines", h.handleAddLine)
		api.DELETE("/cart/lines/:product_id", h.handleRemoveLine)
		api.DELETE("/cart", h.handleDiscardCart)

		api.POST("/invoices", h.handleGenerateInvoice)
		api.GET("/invoices/open", h.handleOpenInvoices)
		api.POST("/invoices/:code/print", h.handlePrintInvoice)

		api.GET("/notifications", h.handleNotifications)
		api.DELETE("/notifications", h.handleDrainNotifications)
	}
	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

func (h *Handler) handleListProducts(c *gin.Context) {
	h.writeCatalog(c)
}

func (h *Handler) handleReloadProducts(c *gin.Context) {
	if _, err := h.catalog.Load(c.Request.Context()); err != nil {
		writeDomainError(c, err)
		return
	}
	h.writeCatalog(c)
}

func (h *Handler) writeCatalog(c *gin.Context) {
	rows, err := h.catalog.Rows(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCatalogResponse(rows, h.catalog.State()))
}

func (h *Handler) handleCreateProduct(c *gin.Context) {
	var draft domcatalog.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), draft)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(p))
}

func (h *Handler) handleSelect(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.catalog.Select(c.Request.Context(), c.Param("id"), req.Quantity); err != nil {
		writeDomainError(c, err)
		return
	}
	h.writeCatalog(c)
}

func (h *Handler) handleGetCart(c *gin.Context) {
	h.writeCart(c, http.StatusOK)
}

func (h *Handler) handleAddLine(c *gin.Context) {
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	var err error
	if req.Quantity == nil {
		_, err = h.cart.AddSelected(c.Request.Context(), req.ProductID)
	} else {
		_, err = h.cart.AddToCart(c.Request.Context(), req.ProductID, *req.Quantity)
	}
	if err != nil {
		writeDomainError(c, err)
		return
	}
	h.writeCart(c, http.StatusCreated)
}

func (h *Handler) handleRemoveLine(c *gin.Context) {
	if err := h.cart.RemoveLine(c.Request.Context(), c.Param("product_id")); err != nil {
		writeDomainError(c, err)
		return
	}
	h.writeCart(c, http.StatusOK)
}

func (h *Handler) handleDiscardCart(c *gin.Context) {
	if err := h.cart.Discard(c.Request.Context()); err != nil {
		writeDomainError(c, err)
		return
	}
	h.writeCart(c, http.StatusOK)
}

func (h *Handler) writeCart(c *gin.Context, status int) {
	ctx := c.Request.Context()
	lines, err := h.cart.Lines(ctx)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	total, err := h.cart.Total(ctx)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(status, cartResponse{Lines: toLineResponses(lines), Total: total})
}

func (h *Handler) handleGenerateInvoice(c *gin.Context) {
	inv, err := h.invoices.GenerateInvoice(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInvoiceResponse(inv))
}

// handleOpenInvoices reloads from billing; ?cached=true serves the last loaded list.
func (h *Handler) handleOpenInvoices(c *gin.Context) {
	ctx := c.Request.Context()
	if cached, _ := strconv.ParseBool(c.Query("cached")); !cached {
		if _, err := h.invoices.LoadOpenInvoices(ctx); err != nil {
			writeDomainError(c, err)
			return
		}
	}
	invoices, err := h.invoices.OpenInvoices(ctx)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOpenInvoicesResponse(invoices, h.invoices.State()))
}

func (h *Handler) handlePrintInvoice(c *gin.Context) {
	res, err := h.invoices.PrintInvoice(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, printResponse{Invoice: toInvoiceResponse(res.Invoice), File: res.File})
}

func (h *Handler) handleNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	c.JSON(http.StatusOK, gin.H{"notifications": toNotificationResponses(h.feed.Recent(limit))})
}

func (h *Handler) handleDrainNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": toNotificationResponses(h.feed.Drain())})
}
