package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/service"
	"github.com/samber/lo"
)

func (h handler) parseMoney(amount, isoCurrency string) (domain.Money, error) {
	if isoCurrency == "" {
		isoCurrency = h.currency.String()
	}
	return domain.ParseMoney(amount, isoCurrency)
}

func (h handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	in := service.CreateOrderInput{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, service.CreateOrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), principalFrom(c), in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(orders, func(o domain.Order, _ int) orderResponse {
		return toOrderResponse(o)
	}))
}

func (h handler) getOrder(c *gin.Context) {
	orderID, err := uuidParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), principalFrom(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h handler) getOrderByNumber(c *gin.Context) {
	order, err := h.orders.GetOrderByNumber(c.Request.Context(), principalFrom(c), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h handler) updateOrderStatus(c *gin.Context) {
	orderID, err := uuidParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	status, err := domain.ToOrderStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), principalFrom(c), orderID, status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h handler) processPayment(c *gin.Context) {
	var req processPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	amount, err := h.parseMoney(req.Amount, req.Currency)
	if err != nil {
		writeError(c, err)
		return
	}

	method, err := domain.ToPaymentMethod(req.Method)
	if err != nil {
		writeError(c, err)
		return
	}

	payment, err := h.payments.ProcessPayment(c.Request.Context(), principalFrom(c), service.ProcessPaymentInput{
		OrderID: req.OrderID,
		Amount:  amount,
		Method:  method,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPaymentResponse(payment))
}

func (h handler) getPayment(c *gin.Context) {
	paymentID, err := uuidParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	payment, err := h.payments.GetPayment(c.Request.Context(), principalFrom(c), paymentID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func (h handler) getPaymentByOrder(c *gin.Context) {
	orderID, err := uuidParam(c, "orderId")
	if err != nil {
		writeError(c, err)
		return
	}

	payment, err := h.payments.GetPaymentByOrder(c.Request.Context(), principalFrom(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func (h handler) updatePaymentStatus(c *gin.Context) {
	paymentID, err := uuidParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	status, err := domain.ToPaymentStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	payment, err := h.payments.UpdatePaymentStatus(c.Request.Context(), principalFrom(c), paymentID, status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func (h handler) createShop(c *gin.Context) {
	var req createShopRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	shop, err := h.catalog.CreateShop(c.Request.Context(), principalFrom(c), service.CreateShopInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toShopResponse(shop))
}

func (h handler) addProduct(c *gin.Context) {
	shopID, err := uuidParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	var req addProductRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	price, err := h.parseMoney(req.Price, req.Currency)
	if err != nil {
		writeError(c, err)
		return
	}

	product, err := h.catalog.AddProduct(c.Request.Context(), principalFrom(c), shopID, service.AddProductInput{
		Name:     req.Name,
		Price:    price,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProductResponse(product))
}

func (h handler) listShopProducts(c *gin.Context) {
	shopID, err := uuidParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	products, err := h.catalog.ListShopProducts(c.Request.Context(), shopID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(products, func(p domain.Product, _ int) productResponse {
		return toProductResponse(p)
	}))
}

func (h handler) getProduct(c *gin.Context) {
	productID, err := uuidParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

func (h handler) restock(c *gin.Context) {
	productID, err := uuidParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	var req restockRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	product, err := h.catalog.Restock(c.Request.Context(), principalFrom(c), productID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}
